package ranking

import (
	"context"
	"sort"

	"distributed-search/internal/docid"
	"distributed-search/internal/index"
	"distributed-search/internal/optic"
	"distributed-search/internal/signal"
)

// CollectorTopN returns how many candidates a stage must collect to
// answer page `page` of `topN`-sized pages, mirroring the source's
// `collector_top_n = (stage_top_n.max(top_n) + top_n*page) + 1` exactly
// — the "+1" lets the caller detect a further page exists.
func CollectorTopN(stageTopN, topN, page int) int {
	base := stageTopN
	if topN > base {
		base = topN
	}
	return base + topN*page + 1
}

// Pipeline runs the recall -> global recall -> precision progression
// over one query's candidates, applying optic rules, host-ranking
// boosts, and inbound-similarity scoring along the way, grounded on
// original_source/crates/core/src/ranking/pipeline/mod.rs's
// RankingPipeline::apply stage order: skip(offset).take(n), score,
// boost, bucket-collect, sort-with-derank, take(top_n).
type Pipeline struct {
	Coefficients signal.Map
	LambdaMart   *Ensemble
	Optic        *optic.Optic
	HostRankings index.HostRankings
	TextScorer   *TextSimilarityScorer
	InboundSimilarity *InboundSimilarityStage
	DerankSimilar bool
	DedupHammingRadius int
}

// NewPipeline builds a pipeline from per-query configuration,
// optionally layering an optic's own Ranking() coefficient overrides on
// top of the query's signal_coefficients (merge-overwrite: the optic's
// explicit overrides win).
func NewPipeline(base signal.Map, o *optic.Optic, lambdaMart *Ensemble, hostRankings index.HostRankings) *Pipeline {
	coeffs := base
	if o != nil {
		overrides := make(map[signal.Kind]float64, len(o.Rankings))
		for _, r := range o.Rankings {
			if kind, ok := signal.Parse(r.Signal); ok {
				overrides[kind] = r.N
			}
		}
		coeffs = base.MergeOverwrite(signal.NewMap(overrides))
	}
	return &Pipeline{
		Coefficients: coeffs,
		LambdaMart:   lambdaMart,
		Optic:        o,
		HostRankings: hostRankings,
		TextScorer:   NewTextSimilarityScorer(),
		DedupHammingRadius: 3,
	}
}

// RecallStage scores and orders local candidates, attaching host
// identity and (when InboundSimilarity is set) each candidate's
// inbound-similarity signal before scoring, then returns the top
// collectorTopN by score. offset implements spec.md §3 pagination
// "skip(offset).take(...)".
func (p *Pipeline) RecallStage(ctx context.Context, candidates []LocalRecallRankingWebpage, hostOf func(docID uint32) string, offset, collectorTopN int) ([]RecallRankingWebpage, error) {
	candidates = sliceSkip(candidates, offset)

	pages := make([]RecallRankingWebpage, 0, len(candidates))
	for _, c := range candidates {
		host := hostOf(c.Pointer.Address.DocID)
		if p.HostRankings.IsBlocked(host) {
			continue
		}
		pages = append(pages, c.IntoRecall(host))
	}

	if p.InboundSimilarity != nil {
		var err error
		pages, err = p.InboundSimilarity.Apply(ctx, pages)
		if err != nil {
			return nil, err
		}
	}

	p.applyHostRankingBoost(pages)
	p.sortByScore(pages)

	if collectorTopN > 0 && len(pages) > collectorTopN {
		pages = pages[:collectorTopN]
	}
	return pages, nil
}

func sliceSkip[T any](s []T, offset int) []T {
	if offset <= 0 || offset >= len(s) {
		if offset >= len(s) {
			return nil
		}
		return s
	}
	return s[offset:]
}

func (p *Pipeline) applyHostRankingBoost(pages []RecallRankingWebpage) {
	for i := range pages {
		boost := 1.0
		if b, ok := p.HostRankings.Boosts[pages[i].Host]; ok {
			boost *= b
		}
		boost *= sitePreferenceBoost(p.Optic, pages[i].Host)
		if boost != 1 {
			pages[i].Signals = pages[i].Signals.Clone()
		}
		pages[i].InitialScore = calculateScore(pages[i].Signals, p.Coefficients, p.LambdaMart) * boost
	}
}

func (p *Pipeline) sortByScore(pages []RecallRankingWebpage) {
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].InitialScore > pages[j].InitialScore
	})
}

// PrecisionStageWebpages applies optics and text-similarity signals to
// retrieved candidates, discards anything an optic rule rejects, and
// returns at most topN results sorted by score (no page offset is
// applied here; pages is already the page window), mirroring the
// source's bucket-collect + take(top_n) tail of RankingStage::apply.
// It never deranks: spec.md §4.4/§9 are explicit that the final
// precision stage must not derank again — that happens once, at the
// global-recall merge (see DerankSimilarWebpages), before this stage
// ever sees the candidates. pages must already carry their retrieved
// document (IntoPrecision).
func (p *Pipeline) PrecisionStageWebpages(pages []PrecisionRankingWebpage, queryText string, segmentOf func(int) uint64, topN int) []PrecisionRankingWebpage {
	var kept []PrecisionRankingWebpage

	for i := range pages {
		boost, discard := applyOptic(p.Optic, &pages[i])
		if discard {
			continue
		}

		seg := segmentOf(i)
		titleSig := p.TextScorer.ScoreTitle(seg, pages[i].Pointer.Address.DocID, queryText, pages[i].Webpage.Title)
		snippetSig := p.TextScorer.ScoreSnippet(seg, pages[i].Pointer.Address.DocID, queryText, pages[i].Webpage.Snippet)
		pages[i].Signals = pages[i].Signals.Clone()
		pages[i].Signals[signal.TitleEmbeddingSimilarity] = titleSig
		pages[i].Signals[signal.CrossEncoderSnippet] = snippetSig

		score := calculateScore(pages[i].Signals, p.Coefficients, p.LambdaMart) * boost
		pages[i].InitialScore = score

		kept = append(kept, pages[i])
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].InitialScore > kept[j].InitialScore
	})

	if topN > 0 && len(kept) > topN {
		kept = kept[:topN]
	}
	return kept
}

// DerankSimilarWebpages pushes a merged, sorted result set's
// candidates whose simhash is within DedupHammingRadius of a
// higher-scoring surviving candidate to the back, rather than dropping
// them outright — spec.md §3 draws a distinction between "dedup"
// (drop) at retrieval time and "derank" (demote, keep visible) once a
// result set is being finalized for display. Applied once, at the
// global-recall merge across shards; never in the precision stage
// (spec.md §4.4, §9's "the precision stage must not derank again").
// A no-op when DerankSimilar is unset.
func (p *Pipeline) DerankSimilarWebpages(pages []RecallRankingWebpage) []RecallRankingWebpage {
	if !p.DerankSimilar {
		return pages
	}

	kept := make([]RecallRankingWebpage, 0, len(pages))
	deranked := make([]RecallRankingWebpage, 0)
	var seen []uint64

	for _, pg := range pages {
		sh := pg.Pointer.Fingerprints.Simhash
		duplicate := false
		for _, s := range seen {
			if docid.SimilarWithinRadius(s, sh, p.DedupHammingRadius) {
				duplicate = true
				break
			}
		}
		if duplicate {
			deranked = append(deranked, pg)
			continue
		}
		seen = append(seen, sh)
		kept = append(kept, pg)
	}
	return append(kept, deranked...)
}
