package query

import (
	"strings"
	"unicode"
)

// Parse tokenizes query into the term grammar, mirroring
// original_source/crates/core/src/query/parser/mod.rs::parse exactly:
// lowercase, normalize curly quotes, split on whitespace outside of
// double-quoted phrases, then classify each bare token by prefix.
//
// bangPrefixes is the caller-supplied bang prefix table (bang prefixes
// are runtime configuration per the decision recorded in DESIGN.md, see
// internal/bangs — not compiled-in constants here).
func Parse(rawQuery string, bangPrefixes []string) []*Term {
	q := strings.ToLower(rawQuery)
	q = strings.NewReplacer("“", "\"", "”", "\"").Replace(q)

	var res []*Term
	runes := []rune(q)
	n := len(runes)
	curBegin := 0

	for i := 0; i < n; i++ {
		if curBegin > i {
			continue
		}

		if runes[curBegin] == '"' {
			if end := indexRune(runes, curBegin+1, '"'); end >= 0 {
				words := splitWhitespace(string(runes[curBegin+1 : end]))
				res = append(res, &Term{Kind: TermSimpleOrPhrase, SimpleOrPhrase: NewPhrase(words)})
				curBegin = end + 1
				i = curBegin - 1
				continue
			}
		}

		if isSpace(runes[i]) {
			if i-curBegin == 0 {
				curBegin = i + 1
				continue
			}
			res = append(res, parseTerm(string(runes[curBegin:i]), bangPrefixes))
			curBegin = i + 1
		}
	}

	if curBegin < n {
		res = append(res, parseTerm(string(runes[curBegin:n]), bangPrefixes))
	}

	return res
}

func parseTerm(term string, bangPrefixes []string) *Term {
	if notTerm, ok := strings.CutPrefix(term, "-"); ok {
		if notTerm != "" && !strings.HasPrefix(notTerm, "-") {
			return &Term{Kind: TermNot, Not: parseTerm(notTerm, bangPrefixes)}
		}
		return simpleTerm(term)
	}
	if site, ok := strings.CutPrefix(term, "site:"); ok {
		if site != "" {
			return &Term{Kind: TermSite, Site: site}
		}
		return simpleTerm(term)
	}
	if title, ok := strings.CutPrefix(term, "intitle:"); ok {
		if title != "" {
			return &Term{Kind: TermTitle, Title: NewSimple(title)}
		}
		return simpleTerm(term)
	}
	if body, ok := strings.CutPrefix(term, "inbody:"); ok {
		if body != "" {
			return &Term{Kind: TermBody, Body: NewSimple(body)}
		}
		return simpleTerm(term)
	}
	if url, ok := strings.CutPrefix(term, "inurl:"); ok {
		if url != "" {
			return &Term{Kind: TermURL, URL: NewSimple(url)}
		}
		return simpleTerm(term)
	}

	for _, prefix := range bangPrefixes {
		if bang, ok := strings.CutPrefix(term, prefix); ok {
			return &Term{Kind: TermPossibleBang, Bang: bang}
		}
	}

	return simpleTerm(term)
}

func simpleTerm(term string) *Term {
	return &Term{Kind: TermSimpleOrPhrase, SimpleOrPhrase: NewSimple(term)}
}

func indexRune(runes []rune, from int, target rune) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == target {
			return i
		}
	}
	return -1
}

func splitWhitespace(s string) []string {
	return strings.Fields(s)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}
