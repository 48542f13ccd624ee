package ranking

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"distributed-search/internal/signal"
)

// textSimilarityCacheSize bounds the embedding/cross-encoder score
// cache, keyed by (doc address, field, query) — a real embedding model call is
// the expensive part this cache amortizes.
const textSimilarityCacheSize = 8192

// TextSimilarityScorer stands in for the embedding and cross-encoder
// models the precision stage calls out to (TitleEmbeddingSimilarity,
// KeywordEmbeddingSimilarity, CrossEncoderTitle, CrossEncoderSnippet):
// no ML runtime ships in this module, so the score is a bag-of-words
// overlap proxy, cached the same way a real model's output would be —
// by (segment, doc_id, field, query) — via github.com/hashicorp/golang-lru
// (DESIGN.md "embedding cache").
type TextSimilarityScorer struct {
	cache *lru.Cache[string, float64]
}

// NewTextSimilarityScorer builds a scorer with its cache sized to
// textSimilarityCacheSize entries.
func NewTextSimilarityScorer() *TextSimilarityScorer {
	cache, _ := lru.New[string, float64](textSimilarityCacheSize)
	return &TextSimilarityScorer{cache: cache}
}

func cacheKey(segment uint64, docID uint32, field, query string) string {
	return fmt.Sprintf("%d:%d:%s:%s", segment, docID, field, query)
}

// Score returns a 0..1 token-overlap similarity between query and text,
// cached under key.
func (s *TextSimilarityScorer) score(key, query, text string) float64 {
	if v, ok := s.cache.Get(key); ok {
		return v
	}
	v := tokenOverlap(query, text)
	s.cache.Add(key, v)
	return v
}

// ScoreTitle computes TitleEmbeddingSimilarity / CrossEncoderTitle.
func (s *TextSimilarityScorer) ScoreTitle(segment uint64, docID uint32, query, title string) signal.Calculation {
	v := s.score(cacheKey(segment, docID, "title", query), query, title)
	return signal.Symmetrical(v)
}

// ScoreSnippet computes CrossEncoderSnippet against a retrieval-time
// snippet.
func (s *TextSimilarityScorer) ScoreSnippet(segment uint64, docID uint32, query, snippet string) signal.Calculation {
	v := s.score(cacheKey(segment, docID, "snippet", query), query, snippet)
	return signal.Symmetrical(v)
}

func tokenOverlap(query, text string) float64 {
	qTokens := dedupe(strings.Fields(strings.ToLower(query)))
	if len(qTokens) == 0 {
		return 0
	}
	textSet := make(map[string]bool)
	for _, t := range strings.Fields(strings.ToLower(text)) {
		textSet[t] = true
	}
	hits := 0
	for _, t := range qTokens {
		if textSet[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(qTokens))
}

func dedupe(tokens []string) []string {
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
