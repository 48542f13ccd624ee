package ranking

import (
	"context"
	"testing"

	"distributed-search/internal/index"
	"distributed-search/internal/signal"
	"distributed-search/internal/webgraph"
)

func lrw(docID uint32, bm25Score float64) LocalRecallRankingWebpage {
	sigs := signal.SignalMap{
		signal.Bm25Title: signal.Symmetrical(bm25Score),
	}
	coeffs := signal.Map{}
	return LocalRecallRankingWebpage{
		Pointer: index.WebpagePointer{Address: index.DocAddress{DocID: docID}},
		Signals: sigs,
		InitialScore: calculateScore(sigs, coeffs, nil),
	}
}

func rankingWebpageWithSimhash(docID uint32, bm25Score float64, simhash uint64) LocalRecallRankingWebpage {
	w := lrw(docID, bm25Score)
	w.Pointer.Fingerprints.Simhash = simhash
	return w
}

func TestCollectorTopNMatchesFormula(t *testing.T) {
	got := CollectorTopN(10, 20, 2)
	want := 20 + 20*2 + 1
	if got != want {
		t.Fatalf("got %d want %d", got, want)
	}
}

func TestRecallStageOrdersByScoreDescending(t *testing.T) {
	p := NewPipeline(signal.Map{}, nil, nil, index.HostRankings{})
	candidates := []LocalRecallRankingWebpage{lrw(0, 1.0), lrw(1, 5.0), lrw(2, 3.0)}

	pages, err := p.RecallStage(context.Background(), candidates, func(uint32) string { return "example.com" }, 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if pages[0].Pointer.Address.DocID != 1 || pages[1].Pointer.Address.DocID != 2 || pages[2].Pointer.Address.DocID != 0 {
		t.Fatalf("expected descending score order, got %+v", pages)
	}
}

func TestRecallStageOffsetSkips(t *testing.T) {
	p := NewPipeline(signal.Map{}, nil, nil, index.HostRankings{})
	candidates := []LocalRecallRankingWebpage{lrw(0, 1.0), lrw(1, 2.0), lrw(2, 3.0)}

	pages, err := p.RecallStage(context.Background(), candidates, func(uint32) string { return "x.com" }, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page after skipping 2 of 3, got %d", len(pages))
	}
}

func TestHostRankingBoostRaisesScore(t *testing.T) {
	p := NewPipeline(signal.Map{}, nil, nil, index.HostRankings{Boosts: map[string]float64{"boosted.com": 10.0}})
	candidates := []LocalRecallRankingWebpage{lrw(0, 1.0), lrw(1, 1.0)}

	pages, err := p.RecallStage(context.Background(), candidates, func(docID uint32) string {
		if docID == 1 {
			return "boosted.com"
		}
		return "plain.com"
	}, 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pages[0].Pointer.Address.DocID != 1 {
		t.Fatalf("expected boosted host to rank first, got %+v", pages)
	}
}

func TestRecallStageExcludesBlockedHost(t *testing.T) {
	p := NewPipeline(signal.Map{}, nil, nil, index.HostRankings{Blocked: []string{"blocked.com"}})
	candidates := []LocalRecallRankingWebpage{lrw(0, 5.0), lrw(1, 1.0)}

	pages, err := p.RecallStage(context.Background(), candidates, func(docID uint32) string {
		if docID == 0 {
			return "blocked.com"
		}
		return "plain.com"
	}, 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pages) != 1 {
		t.Fatalf("expected the blocked host's candidate dropped entirely, got %d: %+v", len(pages), pages)
	}
	if pages[0].Pointer.Address.DocID != 1 {
		t.Fatalf("expected only the non-blocked candidate to survive, got %+v", pages[0])
	}
}

// TestRecallStageAppliesInboundSimilarity covers the previously-unwired
// path from an optic's liked/disliked hosts through
// NewInboundSimilarityStage into RecallStage: a candidate whose host
// shares backlinks with a liked host must pick up a nonzero
// InboundSimilarity signal, while one with no shared backlinks doesn't.
func TestRecallStageAppliesInboundSimilarity(t *testing.T) {
	graph := webgraph.NewInMemory()
	graph.AddEdge("fan.com", "liked.com", false)
	graph.AddEdge("fan.com", "candidate.com", false)

	stage, err := NewInboundSimilarityStage(context.Background(), graph, []string{"liked.com"}, nil)
	if err != nil {
		t.Fatalf("unexpected error building stage: %v", err)
	}

	p := NewPipeline(signal.Map{}, nil, nil, index.HostRankings{})
	p.InboundSimilarity = stage

	candidates := []LocalRecallRankingWebpage{lrw(0, 1.0), lrw(1, 1.0)}
	pages, err := p.RecallStage(context.Background(), candidates, func(docID uint32) string {
		if docID == 0 {
			return "candidate.com"
		}
		return "unrelated.com"
	}, 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sharedBacklink, noOverlap float64
	for _, pg := range pages {
		switch pg.Host {
		case "candidate.com":
			sharedBacklink = pg.Signals[signal.InboundSimilarity].Value
		case "unrelated.com":
			noOverlap = pg.Signals[signal.InboundSimilarity].Value
		}
	}
	if sharedBacklink <= noOverlap {
		t.Fatalf("expected shared-backlink host to score higher inbound similarity, got shared=%v unrelated=%v", sharedBacklink, noOverlap)
	}
}

func TestPrecisionStageDiscardsOnOpticRule(t *testing.T) {
	pages := []PrecisionRankingWebpage{
		{
			RecallRankingWebpage: RecallRankingWebpage{
				LocalRecallRankingWebpage: lrw(0, 1.0),
				Host:                      "bad.com",
			},
			Webpage: index.RetrievedWebpage{Title: "spam", URL: "https://bad.com/x"},
		},
		{
			RecallRankingWebpage: RecallRankingWebpage{
				LocalRecallRankingWebpage: lrw(1, 1.0),
				Host:                      "good.com",
			},
			Webpage: index.RetrievedWebpage{Title: "good content", URL: "https://good.com/x"},
		},
	}

	p := NewPipeline(signal.Map{}, nil, nil, index.HostRankings{})
	p.Optic = discardOptic()

	kept := p.PrecisionStageWebpages(pages, "content", func(int) uint64 { return 0 }, 10)
	if len(kept) != 1 {
		t.Fatalf("expected 1 surviving page, got %d: %+v", len(kept), kept)
	}
	if kept[0].Host != "good.com" {
		t.Fatalf("expected good.com to survive, got %+v", kept[0])
	}
}

func TestPrecisionStageNeverDeranks(t *testing.T) {
	pages := []PrecisionRankingWebpage{
		{RecallRankingWebpage: RecallRankingWebpage{LocalRecallRankingWebpage: rankingWebpageWithSimhash(0, 5.0, 1), Host: "a.com"}, Webpage: index.RetrievedWebpage{Title: "a"}},
		{RecallRankingWebpage: RecallRankingWebpage{LocalRecallRankingWebpage: rankingWebpageWithSimhash(1, 4.0, 1), Host: "b.com"}, Webpage: index.RetrievedWebpage{Title: "b"}},
	}
	p := NewPipeline(signal.Map{}, nil, nil, index.HostRankings{})
	p.DerankSimilar = true
	p.DedupHammingRadius = 3

	kept := p.PrecisionStageWebpages(pages, "", func(int) uint64 { return 0 }, 10)
	if len(kept) != 2 {
		t.Fatalf("expected both pages retained, got %d", len(kept))
	}
	if kept[0].Pointer.Address.DocID != 0 || kept[1].Pointer.Address.DocID != 1 {
		t.Fatalf("expected score order preserved (no derank reordering), got %+v", kept)
	}
}

func TestDerankSimilarWebpagesPushesDuplicatesToBack(t *testing.T) {
	pages := []RecallRankingWebpage{
		{LocalRecallRankingWebpage: rankingWebpageWithSimhash(0, 5.0, 1), Host: "a.com"},
		{LocalRecallRankingWebpage: rankingWebpageWithSimhash(1, 4.0, 1), Host: "b.com"},
	}
	p := NewPipeline(signal.Map{}, nil, nil, index.HostRankings{})
	p.DerankSimilar = true
	p.DedupHammingRadius = 3

	kept := p.DerankSimilarWebpages(pages)
	if len(kept) != 2 {
		t.Fatalf("expected both pages retained (deranked, not dropped), got %d", len(kept))
	}
	if kept[0].Pointer.Address.DocID != 0 || kept[1].Pointer.Address.DocID != 1 {
		t.Fatalf("expected the higher-scoring page first and the near-duplicate pushed last, got %+v", kept)
	}
}

func TestDerankSimilarWebpagesNoopWhenDisabled(t *testing.T) {
	pages := []RecallRankingWebpage{
		{LocalRecallRankingWebpage: rankingWebpageWithSimhash(0, 4.0, 1), Host: "a.com"},
		{LocalRecallRankingWebpage: rankingWebpageWithSimhash(1, 5.0, 1), Host: "b.com"},
	}
	p := NewPipeline(signal.Map{}, nil, nil, index.HostRankings{})

	kept := p.DerankSimilarWebpages(pages)
	if kept[0].Pointer.Address.DocID != 0 || kept[1].Pointer.Address.DocID != 1 {
		t.Fatalf("expected order unchanged when DerankSimilar is unset, got %+v", kept)
	}
}

func TestCalculateScoreUsesLambdaMartWhenAttached(t *testing.T) {
	sigs := signal.SignalMap{
		signal.InboundSimilarity: signal.Symmetrical(0.5),
	}
	coeffs := signal.NewMap(map[signal.Kind]float64{signal.LambdaMart: 2.0})
	ensemble := &Ensemble{Trees: []*Tree{{Leaf: true, Value: 3.0}}, LearningRate: 1.0}

	got := calculateScore(sigs, coeffs, ensemble)
	want := (0.5 + inboundSimilaritySmoothing) * 2.0 * 3.0
	if got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestCalculateScoreFallsBackToWeightedSum(t *testing.T) {
	sigs := signal.SignalMap{
		signal.Bm25Title: signal.Symmetrical(2.0),
	}
	coeffs := signal.NewMap(map[signal.Kind]float64{signal.Bm25Title: 3.0})

	got := calculateScore(sigs, coeffs, nil)
	if got != 6.0 {
		t.Fatalf("got %v want 6.0", got)
	}
}
