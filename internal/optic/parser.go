package optic

import "fmt"

type parser struct {
	toks []token
	pos  int
}

// Parse compiles one optic program into its statements.
func Parse(src string) (*Optic, error) {
	toks, err := newLexer(src).tokens()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	out := &Optic{}
	for !p.at(tokEOF) {
		if err := p.parseStatement(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *parser) cur() token { return p.toks[p.pos] }
func (p *parser) at(k tokenKind) bool { return p.cur().kind == k }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokenKind, what string) (token, error) {
	if !p.at(k) {
		return token{}, fmt.Errorf("optic: expected %s, got %q", what, p.cur().text)
	}
	return p.advance(), nil
}

func (p *parser) expectIdent(name string) error {
	if !p.at(tokIdent) || p.cur().text != name {
		return fmt.Errorf("optic: expected identifier %q, got %q", name, p.cur().text)
	}
	p.advance()
	return nil
}

func (p *parser) parseStatement(out *Optic) error {
	if !p.at(tokIdent) {
		return fmt.Errorf("optic: expected statement, got %q", p.cur().text)
	}

	switch p.cur().text {
	case "DiscardNonMatching":
		p.advance()
		if _, err := p.expect(tokSemicolon, ";"); err != nil {
			return err
		}
		out.DiscardNonMatching = true
		return nil
	case "Ranking":
		return p.parseRanking(out)
	case "Rule":
		return p.parseRule(out)
	case "Like":
		return p.parseSitePreference(out, Like)
	case "Dislike":
		return p.parseSitePreference(out, Dislike)
	default:
		return fmt.Errorf("optic: unknown statement %q", p.cur().text)
	}
}

// Ranking(Signal("bm25"), 100);
func (p *parser) parseRanking(out *Optic) error {
	p.advance() // Ranking
	if _, err := p.expect(tokLParen, "("); err != nil {
		return err
	}
	if err := p.expectIdent("Signal"); err != nil {
		return err
	}
	if _, err := p.expect(tokLParen, "("); err != nil {
		return err
	}
	name, err := p.expect(tokString, "signal name string")
	if err != nil {
		return err
	}
	if _, err := p.expect(tokRParen, ")"); err != nil {
		return err
	}
	if _, err := p.expect(tokComma, ","); err != nil {
		return err
	}
	nTok, err := p.expect(tokNumber, "coefficient")
	if err != nil {
		return err
	}
	n, err := parseFloat(nTok.text)
	if err != nil {
		return fmt.Errorf("optic: invalid coefficient %q: %w", nTok.text, err)
	}
	if _, err := p.expect(tokRParen, ")"); err != nil {
		return err
	}
	if _, err := p.expect(tokSemicolon, ";"); err != nil {
		return err
	}
	out.Rankings = append(out.Rankings, RankingCoefficient{Signal: name.text, N: n})
	return nil
}

// Like(Site("..."));  /  Dislike(Site("..."));
func (p *parser) parseSitePreference(out *Optic, kind LikeKind) error {
	p.advance()
	if _, err := p.expect(tokLParen, "("); err != nil {
		return err
	}
	if err := p.expectIdent("Site"); err != nil {
		return err
	}
	if _, err := p.expect(tokLParen, "("); err != nil {
		return err
	}
	site, err := p.expect(tokString, "site string")
	if err != nil {
		return err
	}
	if _, err := p.expect(tokRParen, ")"); err != nil {
		return err
	}
	if _, err := p.expect(tokRParen, ")"); err != nil {
		return err
	}
	if _, err := p.expect(tokSemicolon, ";"); err != nil {
		return err
	}
	out.Preferences = append(out.Preferences, SitePreference{Kind: kind, Site: site.text})
	return nil
}

// Rule { Matches { Url("..."), Site("*|literal"), ... }, Action(Boost(n)) }
// The trailing ";" after the closing brace is optional.
func (p *parser) parseRule(out *Optic) error {
	p.advance() // Rule
	if _, err := p.expect(tokLBrace, "{"); err != nil {
		return err
	}
	if err := p.expectIdent("Matches"); err != nil {
		return err
	}
	if _, err := p.expect(tokLBrace, "{"); err != nil {
		return err
	}

	var rule Rule
	for !p.at(tokRBrace) {
		fp, err := p.parseFieldPattern()
		if err != nil {
			return err
		}
		rule.Matches = append(rule.Matches, fp)
		if p.at(tokComma) {
			p.advance()
		}
	}
	if _, err := p.expect(tokRBrace, "}"); err != nil {
		return err
	}
	if _, err := p.expect(tokComma, ","); err != nil {
		return err
	}

	action, err := p.parseAction()
	if err != nil {
		return err
	}
	rule.Action = action

	if _, err := p.expect(tokRBrace, "}"); err != nil {
		return err
	}
	if p.at(tokSemicolon) {
		p.advance()
	}
	out.Rules = append(out.Rules, rule)
	return nil
}

func (p *parser) parseFieldPattern() (FieldPattern, error) {
	var field FieldKind
	if !p.at(tokIdent) {
		return FieldPattern{}, fmt.Errorf("optic: expected field name, got %q", p.cur().text)
	}
	switch p.cur().text {
	case "Url":
		field = FieldURL
	case "Site":
		field = FieldSite
	case "Title":
		field = FieldTitle
	case "Body":
		field = FieldBody
	default:
		return FieldPattern{}, fmt.Errorf("optic: unknown match field %q", p.cur().text)
	}
	p.advance()

	if _, err := p.expect(tokLParen, "("); err != nil {
		return FieldPattern{}, err
	}
	s, err := p.expect(tokString, "pattern string")
	if err != nil {
		return FieldPattern{}, err
	}
	if _, err := p.expect(tokRParen, ")"); err != nil {
		return FieldPattern{}, err
	}
	return FieldPattern{Field: field, Parts: parsePatternString(s.text)}, nil
}

func (p *parser) parseAction() (Action, error) {
	if err := p.expectIdent("Action"); err != nil {
		return Action{}, err
	}
	if _, err := p.expect(tokLParen, "("); err != nil {
		return Action{}, err
	}
	if !p.at(tokIdent) {
		return Action{}, fmt.Errorf("optic: expected action name, got %q", p.cur().text)
	}
	name := p.advance().text

	var act Action
	switch name {
	case "Boost":
		act.Kind = ActionBoost
	case "Downrank":
		act.Kind = ActionDownrank
	case "Discard":
		act.Kind = ActionDiscard
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return Action{}, err
		}
		return act, nil
	default:
		return Action{}, fmt.Errorf("optic: unknown action %q", name)
	}

	if _, err := p.expect(tokLParen, "("); err != nil {
		return Action{}, err
	}
	nTok, err := p.expect(tokNumber, "action magnitude")
	if err != nil {
		return Action{}, err
	}
	n, err := parseFloat(nTok.text)
	if err != nil {
		return Action{}, fmt.Errorf("optic: invalid action magnitude %q: %w", nTok.text, err)
	}
	act.N = n
	if _, err := p.expect(tokRParen, ")"); err != nil {
		return Action{}, err
	}
	if _, err := p.expect(tokRParen, ")"); err != nil {
		return Action{}, err
	}
	return act, nil
}

// parsePatternString splits a Matches pattern string on '*' wildcards
// and '|' start/end anchors into its constituent PatternParts, per
// spec.md §6 "`*` for wildcard term, `|` for anchor at start/end".
func parsePatternString(s string) []PatternPart {
	var parts []PatternPart
	runes := []rune(s)
	start := 0
	for i, r := range runes {
		switch r {
		case '*':
			if i > start {
				parts = append(parts, PatternPart{Literal: string(runes[start:i])})
			}
			parts = append(parts, PatternPart{Wildcard: true})
			start = i + 1
		case '|':
			if i > start {
				parts = append(parts, PatternPart{Literal: string(runes[start:i])})
			}
			parts = append(parts, PatternPart{Anchor: true})
			start = i + 1
		}
	}
	if start < len(runes) {
		parts = append(parts, PatternPart{Literal: string(runes[start:])})
	}
	return parts
}
