// Package optic parses the small ranking-configuration DSL described in
// spec.md §6 "Optic language", grounded on
// original_source/crates/core/src/ranking/optics.rs's use of the
// language (host_rankings, Like/Dislike) and spec.md's grammar summary,
// since the optic grammar's own lexer/parser lives in the original's
// separate `optics` crate, which isn't part of this retrieval pack.
package optic

// FieldKind names the field a Matches pattern targets.
type FieldKind int

const (
	FieldURL FieldKind = iota
	FieldSite
	FieldTitle
	FieldBody
)

// PatternPart is one element of a Matches field pattern: a literal
// phrase, a `*` wildcard term, or a `|` anchor at the pattern's start or
// end.
type PatternPart struct {
	Wildcard bool
	Anchor   bool
	Literal  string // set when neither Wildcard nor Anchor
}

// FieldPattern is one field match inside a Rule's Matches block, e.g.
// Url("|example.com*").
type FieldPattern struct {
	Field FieldKind
	Parts []PatternPart
}

// ActionKind is the effect a matching Rule has on a candidate.
type ActionKind int

const (
	ActionBoost ActionKind = iota
	ActionDownrank
	ActionDiscard
)

// Action pairs an ActionKind with its magnitude; Discard ignores N.
type Action struct {
	Kind ActionKind
	N    float64
}

// Rule is one `Rule { Matches { ... }, Action(...) }` block.
type Rule struct {
	Matches []FieldPattern
	Action  Action
}

// RankingCoefficient is one `Ranking(Signal("name"), n);` statement.
type RankingCoefficient struct {
	Signal string
	N      float64
}

// LikeKind distinguishes Like from Dislike site preferences.
type LikeKind int

const (
	Like LikeKind = iota
	Dislike
)

// SitePreference is one `Like(Site("..."))` / `Dislike(Site("..."))`
// statement, feeding spec.md §4.7's inbound-similarity scoring.
type SitePreference struct {
	Kind LikeKind
	Site string
}

// Optic is a fully parsed optic program.
type Optic struct {
	DiscardNonMatching bool
	Rankings           []RankingCoefficient
	Rules              []Rule
	Preferences        []SitePreference
}
