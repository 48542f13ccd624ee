package ranking

import (
	"strings"

	"distributed-search/internal/optic"
)

// applyOptic evaluates every rule in o against a precision-stage
// candidate's retrieved document and returns the multiplicative boost
// to apply to its score, or discard=true if any matching rule's action
// is Discard (or DiscardNonMatching is set and no rule matched).
func applyOptic(o *optic.Optic, page *PrecisionRankingWebpage) (boost float64, discard bool) {
	if o == nil {
		return 1, false
	}
	boost = 1
	matchedAny := false

	for _, rule := range o.Rules {
		if !ruleMatches(rule, page) {
			continue
		}
		matchedAny = true
		switch rule.Action.Kind {
		case optic.ActionBoost:
			boost *= 1 + rule.Action.N
		case optic.ActionDownrank:
			boost *= 1 / (1 + rule.Action.N)
		case optic.ActionDiscard:
			return boost, true
		}
	}

	if o.DiscardNonMatching && !matchedAny && len(o.Rules) > 0 {
		return boost, true
	}
	return boost, false
}

func ruleMatches(rule optic.Rule, page *PrecisionRankingWebpage) bool {
	for _, pattern := range rule.Matches {
		if !fieldMatches(pattern, page) {
			return false
		}
	}
	return true
}

func fieldMatches(pattern optic.FieldPattern, page *PrecisionRankingWebpage) bool {
	var field string
	switch pattern.Field {
	case optic.FieldURL:
		field = page.Webpage.URL
	case optic.FieldSite:
		field = page.Host
	case optic.FieldTitle:
		field = page.Webpage.Title
	case optic.FieldBody:
		field = page.Webpage.Snippet
	}
	return patternMatches(pattern.Parts, strings.ToLower(field))
}

// patternMatches checks parts (literal/wildcard/anchor segments, split
// on '*' and '|' by internal/optic's parser) against field, requiring
// every literal part to appear in left-to-right order. An Anchor part
// is its own sentinel entry (not a flag on a literal): one at the start
// pins the following literal to field's start, one at the end pins the
// preceding literal to field's end.
func patternMatches(parts []optic.PatternPart, field string) bool {
	field = strings.ToLower(field)
	pos := 0
	anchorNext := false

	for i, part := range parts {
		if part.Anchor {
			if i == 0 {
				anchorNext = true
			}
			continue
		}
		if part.Wildcard {
			continue
		}
		lit := strings.ToLower(part.Literal)
		if lit == "" {
			continue
		}

		idx := strings.Index(field[pos:], lit)
		if idx < 0 {
			return false
		}
		if anchorNext {
			if pos+idx != 0 {
				return false
			}
			anchorNext = false
		}
		pos += idx + len(lit)

		if i+1 < len(parts) && parts[i+1].Anchor && i+1 == len(parts)-1 && pos != len(field) {
			return false
		}
	}
	return true
}

// sitePreferenceBoost returns the multiplicative factor a Like/Dislike
// site preference contributes for a host, layered on top of rule
// boosts.
func sitePreferenceBoost(o *optic.Optic, host string) float64 {
	if o == nil {
		return 1
	}
	boost := 1.0
	for _, pref := range o.Preferences {
		if !strings.Contains(strings.ToLower(host), strings.ToLower(pref.Site)) {
			continue
		}
		switch pref.Kind {
		case optic.Like:
			boost *= 1.5
		case optic.Dislike:
			boost *= 0.5
		}
	}
	return boost
}

// LikedDislikedHosts extracts the host lists an optic's site
// preferences imply, for NewInboundSimilarityStage.
func LikedDislikedHosts(o *optic.Optic) (liked, disliked []string) {
	if o == nil {
		return nil, nil
	}
	for _, pref := range o.Preferences {
		switch pref.Kind {
		case optic.Like:
			liked = append(liked, pref.Site)
		case optic.Dislike:
			disliked = append(disliked, pref.Site)
		}
	}
	return liked, disliked
}
