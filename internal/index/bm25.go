package index

import "math"

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// bm25 scores one field's term matches against a document, the
// textbook Okapi BM25 formula (spec.md §4.3 "BM25 variants"); df/N
// come from the field's corpus-wide statistics tracked by the index.
func bm25(queryTokens []string, fieldTokens []string, df map[string]int, totalDocs int, avgFieldLen float64) float64 {
	if totalDocs == 0 || len(fieldTokens) == 0 {
		return 0
	}
	tf := make(map[string]int, len(queryTokens))
	for _, t := range fieldTokens {
		tf[t]++
	}
	docLen := float64(len(fieldTokens))

	var score float64
	for _, qt := range dedupTokens(queryTokens) {
		freq := tf[qt]
		if freq == 0 {
			continue
		}
		n := df[qt]
		idf := math.Log(1 + (float64(totalDocs)-float64(n)+0.5)/(float64(n)+0.5))
		denom := float64(freq) + bm25K1*(1-bm25B+bm25B*docLen/avgFieldLen)
		score += idf * (float64(freq) * (bm25K1 + 1)) / denom
	}
	return score
}

func dedupTokens(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// coverage is the fraction of distinct query tokens present in
// fieldTokens, backing TitleCoverage/CleanBodyCoverage.
func coverage(queryTokens []string, fieldTokens []string) float64 {
	unique := dedupTokens(queryTokens)
	if len(unique) == 0 {
		return 0
	}
	present := 0
	for _, qt := range unique {
		if containsToken(fieldTokens, qt) {
			present++
		}
	}
	return float64(present) / float64(len(unique))
}
