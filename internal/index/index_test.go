package index

import (
	"testing"

	"distributed-search/internal/signal"
)

func seedDocs(m *Memory) {
	m.Insert(Document{
		URL: "https://a.example/1", Site: "a.example",
		Title: "rust programming guide", Body: "learn rust programming with this guide to ownership and borrowing",
		HostCentrality: 0.9, PageCentrality: 0.5,
	})
	m.Insert(Document{
		URL: "https://b.example/2", Site: "b.example",
		Title: "go programming guide", Body: "learn go programming with goroutines and channels",
		HostCentrality: 0.7, PageCentrality: 0.4,
	})
	m.Insert(Document{
		URL: "https://c.example/3", Site: "c.example",
		Title: "cooking recipes", Body: "how to cook pasta and rice at home",
		HostCentrality: 0.3, PageCentrality: 0.2,
	})
}

func TestSearchInitialMatchesAndRanks(t *testing.T) {
	m := NewMemory(0)
	seedDocs(m)

	q := SearchQuery{Text: "programming guide", SignalCoefficients: signal.Map{}}
	result, ok, err := m.SearchInitial(q, 10, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("expected 2 matches, got %d: %+v", len(result.Candidates), result.Candidates)
	}
	for _, c := range result.Candidates {
		if c.Pointer.Address.DocID == 2 {
			t.Fatalf("cooking doc should not match 'programming guide'")
		}
	}
}

func TestSearchInitialSiteRestriction(t *testing.T) {
	m := NewMemory(0)
	seedDocs(m)

	q := SearchQuery{Text: "programming site:b.example", SignalCoefficients: signal.Map{}}
	result, ok, err := m.SearchInitial(q, 10, 3)
	if err != nil || !ok {
		t.Fatalf("unexpected: ok=%v err=%v", ok, err)
	}
	if len(result.Candidates) != 1 {
		t.Fatalf("expected exactly 1 match, got %d", len(result.Candidates))
	}
	if result.Candidates[0].Pointer.Address.DocID != 1 {
		t.Fatalf("expected doc 1 (b.example), got %+v", result.Candidates[0])
	}
}

func TestSearchInitialNotExcludes(t *testing.T) {
	m := NewMemory(0)
	seedDocs(m)

	q := SearchQuery{Text: "programming -rust", SignalCoefficients: signal.Map{}}
	result, ok, err := m.SearchInitial(q, 10, 3)
	if err != nil || !ok {
		t.Fatalf("unexpected: ok=%v err=%v", ok, err)
	}
	for _, c := range result.Candidates {
		if c.Pointer.Address.DocID == 0 {
			t.Fatalf("rust doc should have been excluded by -rust")
		}
	}
}

func TestSearchInitialBlockedHostExcluded(t *testing.T) {
	m := NewMemory(0)
	seedDocs(m)

	q := SearchQuery{
		Text:               "programming guide",
		SignalCoefficients: signal.Map{},
		HostRankings:       HostRankings{Blocked: []string{"a.example"}},
	}
	result, ok, err := m.SearchInitial(q, 10, 3)
	if err != nil || !ok {
		t.Fatalf("unexpected: ok=%v err=%v", ok, err)
	}
	if len(result.Candidates) != 1 {
		t.Fatalf("expected 1 surviving match after blocking a.example, got %d: %+v", len(result.Candidates), result.Candidates)
	}
	for _, c := range result.Candidates {
		if c.Pointer.Address.DocID == 0 {
			t.Fatalf("blocked host a.example should never appear in results")
		}
	}
}

func TestSearchInitialBangOnlyReturnsNotOk(t *testing.T) {
	m := NewMemory(0)
	seedDocs(m)

	q := SearchQuery{Text: "!g", BangPrefixes: []string{"!"}, SignalCoefficients: signal.Map{}}
	_, ok, err := m.SearchInitial(q, 10, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for a bang-only query")
	}
}

func TestRetrieveWebsitesMaterializesFromPointers(t *testing.T) {
	m := NewMemory(0)
	seedDocs(m)

	q := SearchQuery{Text: "programming", SignalCoefficients: signal.Map{}}
	result, ok, err := m.SearchInitial(q, 10, 3)
	if err != nil || !ok {
		t.Fatalf("unexpected: ok=%v err=%v", ok, err)
	}
	pointers := make([]WebpagePointer, len(result.Candidates))
	for i, c := range result.Candidates {
		pointers[i] = c.Pointer
	}

	pages, err := m.RetrieveWebsites(pointers, "programming")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != len(pointers) {
		t.Fatalf("expected %d pages, got %d", len(pointers), len(pages))
	}
	for _, p := range pages {
		if p.Title == "" || p.URL == "" {
			t.Fatalf("expected a materialized title/url, got %+v", p)
		}
	}
}

func TestDedupCollapsesIdenticalFingerprints(t *testing.T) {
	m := NewMemory(0)
	m.Insert(Document{URL: "https://a.example/1", Site: "a.example", Title: "same title", Body: "same body content here", Simhash: 1})
	m.Insert(Document{URL: "https://a.example/1", Site: "a.example", Title: "same title", Body: "same body content here", Simhash: 1})

	q := SearchQuery{Text: "same title", SignalCoefficients: signal.Map{}}
	result, ok, err := m.SearchInitial(q, 10, 3)
	if err != nil || !ok {
		t.Fatalf("unexpected: ok=%v err=%v", ok, err)
	}
	if len(result.Candidates) != 1 {
		t.Fatalf("expected duplicates collapsed to 1 candidate, got %d", len(result.Candidates))
	}
	if result.NumHits != 2 {
		t.Fatalf("expected num_hits to count both matches before dedup, got %d", result.NumHits)
	}
}

func TestGetSiteURLsPaginates(t *testing.T) {
	m := NewMemory(0)
	m.Insert(Document{URL: "https://a.example/1", Site: "a.example", Title: "one", Body: "x"})
	m.Insert(Document{URL: "https://a.example/2", Site: "a.example", Title: "two", Body: "x"})
	m.Insert(Document{URL: "https://a.example/3", Site: "a.example", Title: "three", Body: "x"})

	urls := m.GetSiteURLs("a.example", 1, 1)
	if len(urls) != 1 {
		t.Fatalf("expected 1 url, got %d: %v", len(urls), urls)
	}
	if urls[0] != "https://a.example/2" {
		t.Fatalf("expected the second sorted url, got %s", urls[0])
	}
}

func TestNumDocuments(t *testing.T) {
	m := NewMemory(0)
	seedDocs(m)
	if m.NumDocuments() != 3 {
		t.Fatalf("expected 3 documents, got %d", m.NumDocuments())
	}
}
