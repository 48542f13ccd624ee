// Package ranking is the multi-stage scoring pipeline that turns a
// shard's SearchInitial candidates into a final ordered, paginated,
// deduplicated result set, grounded on
// original_source/crates/core/src/ranking/pipeline/mod.rs.
//
// A webpage progresses through three snapshot types as more data
// becomes available — mirroring the source's three cloned ranking
// structs, reshaped here into an explicit Local -> Recall -> Precision
// tag progression (DESIGN.md open-question note) so each stage's input
// type statically documents what information it may use.
package ranking

import (
	"distributed-search/internal/index"
	"distributed-search/internal/signal"
)

// LocalRecallRankingWebpage is a candidate exactly as a single shard's
// retriever produced it: a pointer plus its locally-computed core
// signals and initial score. Available right after SearchInitial.
type LocalRecallRankingWebpage struct {
	Pointer      index.WebpagePointer
	Signals      signal.SignalMap
	InitialScore float64
}

// IntoRecall promotes a local candidate once its host is known (needed
// for host-centric signals and bucketed deranking), grounded on the
// source's LocalRecallRankingWebpage -> RecallRankingWebpage step.
func (w LocalRecallRankingWebpage) IntoRecall(host string) RecallRankingWebpage {
	return RecallRankingWebpage{LocalRecallRankingWebpage: w, Host: host}
}

// RecallRankingWebpage is a candidate merged across shards, with its
// originating host known, available for the cross-shard recall stage
// (embedding/inbound-similarity signals, host-based bucketing).
type RecallRankingWebpage struct {
	LocalRecallRankingWebpage
	Host string
}

// IntoPrecision promotes a recall-stage candidate once its full
// document has been retrieved from the owning shard, available for the
// precision stage (optics, cross-encoder, snippet-dependent signals).
func (w RecallRankingWebpage) IntoPrecision(retrieved index.RetrievedWebpage) PrecisionRankingWebpage {
	return PrecisionRankingWebpage{RecallRankingWebpage: w, Webpage: retrieved}
}

// PrecisionRankingWebpage is a candidate with its full retrieved
// document attached — the final stage before pagination/dedup.
type PrecisionRankingWebpage struct {
	RecallRankingWebpage
	Webpage index.RetrievedWebpage
}

// Score returns the candidate's current total score, recomputed from
// whatever signals have accumulated so far in its progression.
func (w LocalRecallRankingWebpage) Score(coeffs signal.Map, lambdaMart *Ensemble) float64 {
	return calculateScore(w.Signals, coeffs, lambdaMart)
}
