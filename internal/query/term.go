// Package query tokenizes a free-text search query into the term
// grammar spec.md §4 "Shard-local retriever" step 2 requires, grounded
// on original_source/crates/core/src/query/parser/mod.rs.
package query

// SimpleOrPhraseKind distinguishes a bare word from a quoted phrase.
type SimpleOrPhraseKind int

const (
	Simple SimpleOrPhraseKind = iota
	Phrase
)

// SimpleOrPhrase is either one bare word or a sequence of words that
// appeared between double quotes.
type SimpleOrPhrase struct {
	Kind  SimpleOrPhraseKind
	Word  string   // set when Kind == Simple
	Words []string // set when Kind == Phrase
}

func NewSimple(word string) SimpleOrPhrase { return SimpleOrPhrase{Kind: Simple, Word: word} }
func NewPhrase(words []string) SimpleOrPhrase {
	return SimpleOrPhrase{Kind: Phrase, Words: words}
}

// TermKind tags which field/operator a parsed Term represents.
type TermKind int

const (
	TermSimpleOrPhrase TermKind = iota
	TermNot
	TermSite
	TermTitle
	TermBody
	TermURL
	TermPossibleBang
)

// Term is one parsed query token. Exactly one of its payload fields is
// meaningful, selected by Kind — the Go stand-in for the original's
// boxed enum of term variants.
type Term struct {
	Kind TermKind

	SimpleOrPhrase SimpleOrPhrase // TermSimpleOrPhrase
	Not            *Term          // TermNot
	Site           string         // TermSite
	Title          SimpleOrPhrase // TermTitle
	Body           SimpleOrPhrase // TermBody
	URL            SimpleOrPhrase // TermURL
	Bang           string         // TermPossibleBang
}
