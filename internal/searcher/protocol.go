// Package searcher is the distributed search-time core: a shard-local
// service wrapping internal/index, and a DistributedSearcher composing
// internal/searchclient fan-out with internal/ranking to answer one
// query, grounded on original_source/crates/core/src/searcher/
// distributed.rs and local/mod.rs.
package searcher

import (
	"distributed-search/internal/index"
	"distributed-search/internal/signal"
)

// SearchInitialRequest is the wire request for a shard's search_initial
// RPC. Wire types stay plain exported fields (no signal.Map, which gob
// can't encode past its unexported override table) — coefficients
// travel as an explicit override map and get rehydrated into a
// signal.Map on the shard side.
type SearchInitialRequest struct {
	QueryText           string
	BangPrefixes        []string
	Region              string
	HostRankings        index.HostRankings
	CoefficientOverrides map[signal.Kind]float64
	CollectorTopN       int
	DedupHammingRadius  int
}

// SearchInitialResponse is one shard's search_initial answer.
type SearchInitialResponse struct {
	Candidates []index.Candidate
	NumHits    uint64
	OK         bool
}

// RetrieveRequest asks a shard to materialize pointers into full
// documents, the local side of retrieve_websites.
type RetrieveRequest struct {
	Pointers  []index.WebpagePointer
	QueryText string
}

// RetrieveResponse is the materialized documents, positionally parallel
// to the request's Pointers.
type RetrieveResponse struct {
	Pages []index.RetrievedWebpage
}

// GetWebpageRequest asks a shard for one document by address, the
// get_webpage operation spec.md §4.3 lists alongside search_initial/
// retrieve_websites.
type GetWebpageRequest struct {
	Address index.DocAddress
}

// GetWebpageResponse is the answer to GetWebpageRequest.
type GetWebpageResponse struct {
	Page  index.RetrievedWebpage
	Found bool
}
