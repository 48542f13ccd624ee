// Package bangs holds the bang-prefix redirect table. Bangs are treated
// as runtime configuration rather than compiled-in constants, per the
// Open Question decision recorded in DESIGN.md — the table is loaded by
// cmd/searchd from its bangs file and used by the distributed
// searcher's redirect handling (MatchQuery). The searcher does not pass
// the table's prefixes on to the shards' internal/query.Parse.
package bangs

import (
	"net/url"
	"strings"
)

// Bang is one redirect entry: a query with this prefix is rewritten
// against URLTemplate (with "%s" replaced by the remaining query text and
// URL-escaped) instead of being searched locally.
type Bang struct {
	Prefix      string
	Site        string
	URLTemplate string
}

// Table is a prefix-keyed lookup of configured bangs.
type Table struct {
	byPrefix map[string]Bang
}

// NewTable builds a Table from a list of bangs, last one wins on a
// duplicate prefix.
func NewTable(entries []Bang) *Table {
	t := &Table{byPrefix: make(map[string]Bang, len(entries))}
	for _, b := range entries {
		t.byPrefix[b.Prefix] = b
	}
	return t
}

// Prefixes returns every configured bang prefix, in the shape
// internal/query.Parse and internal/index's boolean-query builder need
// to recognize a bang term without hardcoding any prefix.
func (t *Table) Prefixes() []string {
	out := make([]string, 0, len(t.byPrefix))
	for p := range t.byPrefix {
		out = append(out, p)
	}
	return out
}

// Lookup finds the bang whose prefix matches term, the stripped-down
// text internal/query.Parse leaves in a TermPossibleBang's Bang field
// (e.g. parsing "!g cats" with bang prefix "!g" yields Bang: "" for the
// first token). Callers that need to resolve a whole raw query use
// MatchQuery instead, since Parse discards which prefix matched.
func (t *Table) Lookup(term string) (Bang, bool) {
	for prefix, b := range t.byPrefix {
		if strings.HasPrefix(term, prefix) {
			return b, true
		}
	}
	return Bang{}, false
}

// MatchQuery scans a raw, not-yet-tokenized query for a leading bang
// token and returns the matched bang plus the remaining query text, for
// callers (the distributed searcher) that need to know which prefix
// fired before handing the query to internal/query.Parse.
func (t *Table) MatchQuery(rawQuery string) (bang Bang, remaining string, ok bool) {
	fields := strings.Fields(rawQuery)
	if len(fields) == 0 {
		return Bang{}, "", false
	}
	first := strings.ToLower(fields[0])
	for prefix, b := range t.byPrefix {
		if first == prefix || strings.HasPrefix(first, prefix) {
			rest := strings.TrimSpace(strings.TrimPrefix(rawQuery, fields[0]))
			return b, rest, true
		}
	}
	return Bang{}, "", false
}

// Resolve builds the redirect URL for a bang match given the remaining
// query text (the part of the query after the bang term is stripped).
func (b Bang) Resolve(remaining string) string {
	return strings.Replace(b.URLTemplate, "%s", escapeQuery(remaining), 1)
}

func escapeQuery(s string) string {
	return url.QueryEscape(strings.TrimSpace(s))
}
