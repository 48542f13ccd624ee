package index

import (
	"net/url"
	"sort"
	"strings"
	"sync"

	"distributed-search/internal/docid"
	"distributed-search/internal/query"
	"distributed-search/internal/signal"
)

// SearchQuery is the retriever's input, grounded on spec.md §4.3's
// `SearchQuery { text, page, num_results, region?, host_rankings?,
// optic?, signal_coefficients }`.
type SearchQuery struct {
	Text               string
	Page               int
	NumResults         int
	Region             string
	HostRankings       HostRankings
	SignalCoefficients signal.Map
	BangPrefixes       []string
}

// ShardIndex is the interface a shard-local index exposes to the
// distributed searcher (spec.md §1's "a shard-local index handle
// exposing search_initial / retrieve_websites" external-collaborator
// seam).
type ShardIndex interface {
	SearchInitial(q SearchQuery, collectorTopN int, dedupRadius int) (InitialResult, bool, error)
	RetrieveWebsites(pointers []WebpagePointer, queryText string) ([]RetrievedWebpage, error)
	GetSiteURLs(site string, offset, limit int) []string
	NumDocuments() uint64
}

type storedDoc struct {
	doc         Document
	address     DocAddress
	titleTokens []string
	bodyTokens  []string
}

// Memory is an in-memory ShardIndex: one segment, a simple postings
// scan over every stored document. Adequate to exercise the retrieval
// algorithm; a production shard persists segments and column stores
// instead (out of scope per spec.md §1).
type Memory struct {
	mu      sync.RWMutex
	segment uint64
	nextID  uint32
	docs    []*storedDoc

	titleDF map[string]int
	bodyDF  map[string]int
	titleLenSum uint64
	bodyLenSum  uint64
}

func NewMemory(segment uint64) *Memory {
	return &Memory{
		segment: segment,
		titleDF: make(map[string]int),
		bodyDF:  make(map[string]int),
	}
}

// Insert adds a document and returns its pointer (initial score is
// zero until SearchInitial scores it against a query).
func (m *Memory) Insert(doc Document) WebpagePointer {
	m.mu.Lock()
	defer m.mu.Unlock()

	addr := DocAddress{Segment: m.segment, DocID: m.nextID}
	m.nextID++

	titleTokens := tokenize(doc.Title)
	bodyTokens := tokenize(doc.Body)
	for _, t := range dedupTokens(titleTokens) {
		m.titleDF[t]++
	}
	for _, t := range dedupTokens(bodyTokens) {
		m.bodyDF[t]++
	}
	m.titleLenSum += uint64(len(titleTokens))
	m.bodyLenSum += uint64(len(bodyTokens))

	m.docs = append(m.docs, &storedDoc{doc: doc, address: addr, titleTokens: titleTokens, bodyTokens: bodyTokens})

	fp := docid.NewFingerprints(doc.Site, doc.Title, doc.URL, doc.Simhash)
	return WebpagePointer{Address: addr, Fingerprints: fp}
}

func (m *Memory) NumDocuments() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.docs))
}

func (m *Memory) avgTitleLen() float64 {
	if len(m.docs) == 0 {
		return 1
	}
	return max1(float64(m.titleLenSum) / float64(len(m.docs)))
}

func (m *Memory) avgBodyLen() float64 {
	if len(m.docs) == 0 {
		return 1
	}
	return max1(float64(m.bodyLenSum) / float64(len(m.docs)))
}

func max1(f float64) float64 {
	if f <= 0 {
		return 1
	}
	return f
}

// SearchInitial implements spec.md §4.3 steps 1-5: parse, build a
// boolean query, collect up to collectorTopN scored candidates,
// compute an initial score, and dedup by fingerprint class. Returns
// ok=false when the query resolves entirely to a bang.
func (m *Memory) SearchInitial(q SearchQuery, collectorTopN int, dedupRadius int) (InitialResult, bool, error) {
	terms := query.Parse(q.Text, q.BangPrefixes)
	bq, ok := buildBoolQuery(terms)
	if !ok {
		return InitialResult{}, false, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	queryTokens := dedupTokens(append(append([]string{}, bq.required...), flattenPhraseWords(bq.phrases)...))
	avgTitle := m.avgTitleLen()
	avgBody := m.avgBodyLen()
	totalDocs := len(m.docs)

	var candidates []Candidate
	var numHits uint64
	for _, sd := range m.docs {
		if !bq.matches(&sd.doc, sd.titleTokens, sd.bodyTokens) {
			continue
		}
		if q.HostRankings.IsBlocked(sd.doc.Site) {
			continue
		}
		numHits++

		signals := m.coreSignals(sd, queryTokens, avgTitle, avgBody, totalDocs)
		initial := signals.WeightedSum(q.SignalCoefficients)
		if boost, ok := q.HostRankings.Boosts[sd.doc.Site]; ok {
			initial *= boost
		}

		candidates = append(candidates, Candidate{
			Pointer: WebpagePointer{
				Address:      sd.address,
				InitialScore: initial,
				Fingerprints: docid.NewFingerprints(sd.doc.Site, sd.doc.Title, sd.doc.URL, sd.doc.Simhash),
			},
			Signals:      signals,
			InitialScore: initial,
			Site:         sd.doc.Site,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].InitialScore > candidates[j].InitialScore
	})

	candidates = dedupCandidates(candidates, dedupRadius)

	if collectorTopN > 0 && len(candidates) > collectorTopN {
		candidates = candidates[:collectorTopN]
	}

	return InitialResult{Candidates: candidates, NumHits: numHits}, true, nil
}

func flattenPhraseWords(phrases [][]string) []string {
	var out []string
	for _, p := range phrases {
		out = append(out, p...)
	}
	return out
}

// coreSignals computes exactly the signals whose inputs live in this
// in-memory segment's column data, per spec.md §4.3 step 3.
func (m *Memory) coreSignals(sd *storedDoc, queryTokens []string, avgTitle, avgBody float64, totalDocs int) signal.SignalMap {
	doc := sd.doc
	sigs := make(signal.SignalMap)

	sigs[signal.Bm25Title] = signal.Symmetrical(bm25(queryTokens, sd.titleTokens, m.titleDF, totalDocs, avgTitle))
	sigs[signal.Bm25CleanBody] = signal.Symmetrical(bm25(queryTokens, sd.bodyTokens, m.bodyDF, totalDocs, avgBody))
	sigs[signal.TitleCoverage] = signal.Symmetrical(coverage(queryTokens, sd.titleTokens))
	sigs[signal.CleanBodyCoverage] = signal.Symmetrical(coverage(queryTokens, sd.bodyTokens))

	sigs[signal.HostCentrality] = signal.Symmetrical(doc.HostCentrality)
	sigs[signal.PageCentrality] = signal.Symmetrical(doc.PageCentrality)
	sigs[signal.UpdateTimestamp] = signal.Symmetrical(float64(doc.UpdateTimestamp))
	sigs[signal.FetchTimeMs] = signal.Symmetrical(float64(doc.FetchTimeMs))
	sigs[signal.TrackerScore] = signal.Symmetrical(doc.TrackerScore)

	if doc.IsHomepage {
		sigs[signal.IsHomepage] = signal.Symmetrical(1)
	} else {
		sigs[signal.IsHomepage] = signal.Symmetrical(0)
	}
	if doc.HasAds {
		sigs[signal.HasAds] = signal.Symmetrical(1)
	} else {
		sigs[signal.HasAds] = signal.Symmetrical(0)
	}
	if doc.Region == "" {
		sigs[signal.Region] = signal.Symmetrical(0)
	} else {
		sigs[signal.Region] = signal.Symmetrical(1)
	}

	digits, slashes, density := urlFeatures(doc.URL, doc.Body)
	sigs[signal.URLDigits] = signal.Symmetrical(digits)
	sigs[signal.URLSlashes] = signal.Symmetrical(slashes)
	sigs[signal.LinkDensity] = signal.Symmetrical(density)

	return sigs
}

// urlFeatures computes the URL-structure signals: digit count,
// path-slash count, and a crude link-density proxy (link markup
// fraction of body length — real link density needs parsed anchors,
// out of scope here).
func urlFeatures(rawURL, body string) (digits, slashes, density float64) {
	u, err := url.Parse(rawURL)
	path := rawURL
	if err == nil {
		path = u.Path
	}
	for _, r := range path {
		if r >= '0' && r <= '9' {
			digits++
		}
		if r == '/' {
			slashes++
		}
	}
	if len(body) > 0 {
		density = float64(strings.Count(body, "<a ")) / float64(len(body)/100+1)
	}
	return digits, slashes, density
}

// dedupCandidates keeps the highest-scoring member of every fingerprint
// class: exact site/title/url hash match, or simhash within radius,
// mirroring spec.md §3's dedup invariant. A zero simhash marks a
// document without one and is never compared. Input must already be
// sorted by score descending.
func dedupCandidates(candidates []Candidate, hammingRadius int) []Candidate {
	var out []Candidate
	seenSite := make(map[uint64]bool)
	seenTitle := make(map[uint64]bool)
	seenURL := make(map[uint64]bool)
	var seenSimhash []uint64

	for _, c := range candidates {
		fp := c.Pointer.Fingerprints
		if seenSite[fp.Site] || seenTitle[fp.Title] || seenURL[fp.URL] {
			continue
		}
		duplicate := false
		for _, s := range seenSimhash {
			if fp.Simhash != 0 && docid.SimilarWithinRadius(s, fp.Simhash, hammingRadius) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		seenSite[fp.Site] = true
		seenTitle[fp.Title] = true
		seenURL[fp.URL] = true
		if fp.Simhash != 0 {
			seenSimhash = append(seenSimhash, fp.Simhash)
		}
		out = append(out, c)
	}
	return out
}

// RetrieveWebsites materializes pointers previously produced by
// SearchInitial on this same shard; the snippet is built against
// queryText at retrieval time rather than stored (spec.md §4.3).
func (m *Memory) RetrieveWebsites(pointers []WebpagePointer, queryText string) ([]RetrievedWebpage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byID := make(map[uint32]*storedDoc, len(m.docs))
	for _, sd := range m.docs {
		byID[sd.address.DocID] = sd
	}

	out := make([]RetrievedWebpage, 0, len(pointers))
	queryTokens := dedupTokens(tokenize(queryText))

	for _, p := range pointers {
		sd, ok := byID[p.Address.DocID]
		if !ok {
			out = append(out, RetrievedWebpage{})
			continue
		}
		out = append(out, RetrievedWebpage{
			Title:            sd.doc.Title,
			URL:              sd.doc.URL,
			Snippet:          buildSnippet(sd.doc.Body, queryTokens),
			UpdatedTime:      sd.doc.UpdateTimestamp,
			LikelyHasAds:     sd.doc.HasAds,
			LikelyHasPaywall: false,
		})
	}
	return out, nil
}

// buildSnippet returns a short window of body text around the first
// query-token match, falling back to the body's prefix.
func buildSnippet(body string, queryTokens []string) string {
	tokens := tokenize(body)
	const window = 12

	matchAt := -1
	for i, t := range tokens {
		if containsToken(queryTokens, t) {
			matchAt = i
			break
		}
	}
	if matchAt < 0 {
		if len(tokens) > window {
			tokens = tokens[:window]
		}
		return strings.Join(tokens, " ")
	}

	start := matchAt - window/2
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > len(tokens) {
		end = len(tokens)
	}
	return strings.Join(tokens[start:end], " ")
}

// GetSiteURLs lists every distinct URL under a site, paginated.
func (m *Memory) GetSiteURLs(site string, offset, limit int) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var urls []string
	for _, sd := range m.docs {
		if strings.EqualFold(sd.doc.Site, site) {
			urls = append(urls, sd.doc.URL)
		}
	}
	sort.Strings(urls)
	if offset >= len(urls) {
		return nil
	}
	end := offset + limit
	if end > len(urls) {
		end = len(urls)
	}
	return urls[offset:end]
}
