package optic

import "testing"

func TestParseDiscardNonMatching(t *testing.T) {
	o, err := Parse(`DiscardNonMatching;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !o.DiscardNonMatching {
		t.Fatalf("expected DiscardNonMatching to be set")
	}
}

func TestParseRanking(t *testing.T) {
	o, err := Parse(`Ranking(Signal("bm25"), 100);`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.Rankings) != 1 || o.Rankings[0].Signal != "bm25" || o.Rankings[0].N != 100 {
		t.Fatalf("got %+v", o.Rankings)
	}
}

func TestParseRuleWithWildcardAndAnchor(t *testing.T) {
	src := `Rule {
		Matches {
			Site("|example.com*"),
			Title("*best*")
		},
		Action(Boost(10))
	}`
	o, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.Rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(o.Rules))
	}
	rule := o.Rules[0]
	if len(rule.Matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(rule.Matches))
	}
	if rule.Matches[0].Field != FieldSite {
		t.Fatalf("want FieldSite, got %v", rule.Matches[0].Field)
	}
	if !rule.Matches[0].Parts[0].Anchor {
		t.Fatalf("expected leading anchor part")
	}
	if rule.Action.Kind != ActionBoost || rule.Action.N != 10 {
		t.Fatalf("got action %+v", rule.Action)
	}
}

func TestParseDiscardAction(t *testing.T) {
	o, err := Parse(`Rule { Matches { Url("*spam*") }, Action(Discard) }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Rules[0].Action.Kind != ActionDiscard {
		t.Fatalf("got %+v", o.Rules[0].Action)
	}
}

func TestParseLikeDislike(t *testing.T) {
	o, err := Parse(`Like(Site("good.com")); Dislike(Site("bad.com"));`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.Preferences) != 2 {
		t.Fatalf("got %d preferences, want 2", len(o.Preferences))
	}
	if o.Preferences[0].Kind != Like || o.Preferences[0].Site != "good.com" {
		t.Fatalf("got %+v", o.Preferences[0])
	}
	if o.Preferences[1].Kind != Dislike || o.Preferences[1].Site != "bad.com" {
		t.Fatalf("got %+v", o.Preferences[1])
	}
}

func TestParseMultiStatementProgram(t *testing.T) {
	src := `
		DiscardNonMatching;
		Ranking(Signal("host_centrality"), 50);
		Rule {
			Matches { Body("*cheap flights*") },
			Action(Downrank(20))
		}
		Like(Site("trusted.example"));
	`
	o, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !o.DiscardNonMatching || len(o.Rankings) != 1 || len(o.Rules) != 1 || len(o.Preferences) != 1 {
		t.Fatalf("got %+v", o)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse(`NotAStatement;`); err == nil {
		t.Fatalf("expected error for unknown statement")
	}
}
