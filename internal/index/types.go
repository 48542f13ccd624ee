// Package index is the shard-local inverted index and retriever:
// schema, in-memory postings, a sort-and-truncate top-K cut, and the
// two operations a shard exposes (search_initial, retrieve_websites),
// grounded on original_source/crates/core/src/searcher/local/mod.rs's
// LocalSearcher and spec.md §4.3 "Shard-local retriever". The
// inverted-index storage layer itself (tantivy segments, column
// stores) is out of this module's scope per spec.md §1's non-goals —
// this package holds a single in-memory segment adequate to exercise
// the retrieval algorithm end to end.
package index

import (
	"distributed-search/internal/docid"
	"distributed-search/internal/signal"
)

// HostRankings is the caller-supplied per-host ranking policy: Boosts
// applies a multiplicative liked/disliked adjustment to a candidate's
// score, while Blocked is a hard exclusion — a host in Blocked never
// appears in the result set at all, independent of any boost. The
// original implementation keeps these structurally distinct
// (original_source/crates/core/src/ranking/optics.rs's
// HostRankings{liked, disliked, blocked}); spec.md §4.4 Testable
// Property 4 and Scenario S5 can't be satisfied by folding blocked
// hosts into the boost map, since a boost can only attenuate a score,
// never remove a candidate from the set.
type HostRankings struct {
	Boosts  map[string]float64
	Blocked []string
}

// IsBlocked reports whether host is in Blocked.
func (h HostRankings) IsBlocked(host string) bool {
	for _, b := range h.Blocked {
		if b == host {
			return true
		}
	}
	return false
}

// DocAddress locates a document inside one shard's single segment.
type DocAddress struct {
	Segment uint64
	DocID   uint32
}

// WebpagePointer is the compact, shard-scoped handle spec.md §3
// describes: it flows through the ranking pipeline and is handed back
// to RetrieveWebsites to materialize the full document.
type WebpagePointer struct {
	Address      DocAddress
	InitialScore float64
	Fingerprints docid.Fingerprints
}

// Document is one page as stored in the shard-local index. Only the
// columns the retriever's core signals read are modeled; tokenization
// and HTML parsing themselves are out of scope (spec.md §1 non-goals).
type Document struct {
	URL    string
	Site   string
	Title  string
	Body   string

	HostCentrality float64
	PageCentrality float64
	IsHomepage     bool
	FetchTimeMs    int64
	UpdateTimestamp int64
	TrackerScore   float64
	HasAds         bool
	Region         string
	Simhash        uint64
}

// RetrievedWebpage is the materialized result of RetrieveWebsites — the
// document rendered for display, snippet computed against the query at
// retrieval time rather than stored (spec.md §4.3).
type RetrievedWebpage struct {
	Title             string
	URL               string
	Snippet           string
	UpdatedTime       int64
	SchemaOrg         string
	LikelyHasAds      bool
	LikelyHasPaywall  bool
	Body              *string
}

// Candidate is one surviving document from SearchInitial: its pointer,
// its computed core signals, and its initial score. The ranking
// pipeline wraps this into its own snapshot types (internal/ranking) —
// kept a plain struct here so this package never depends on ranking.
type Candidate struct {
	Pointer      WebpagePointer
	Signals      signal.SignalMap
	InitialScore float64
	Site         string
}

// InitialResult is what SearchInitial returns: the surviving
// candidates plus an approximate total hit count (spec.md §4.3
// "num_hits ... exactness is not guaranteed past some threshold").
type InitialResult struct {
	Candidates []Candidate
	NumHits    uint64
}
