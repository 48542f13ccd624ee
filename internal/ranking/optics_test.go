package ranking

import (
	"testing"

	"distributed-search/internal/index"
	"distributed-search/internal/optic"
)

func discardOptic() *optic.Optic {
	o, err := optic.Parse(`Rule { Matches { Site("bad.com") }, Action(Discard) };`)
	if err != nil {
		panic(err)
	}
	return o
}

func TestApplyOpticBoostsScore(t *testing.T) {
	o, err := optic.Parse(`Rule { Matches { Title("|good*") }, Action(Boost(1)) };`)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	page := &PrecisionRankingWebpage{
		Webpage: index.RetrievedWebpage{Title: "good content"},
	}
	boost, discard := applyOptic(o, page)
	if discard {
		t.Fatalf("expected no discard")
	}
	if boost != 2.0 {
		t.Fatalf("expected boost 2.0 for Boost(1), got %v", boost)
	}
}

func TestApplyOpticDiscardsOnMatch(t *testing.T) {
	page := &PrecisionRankingWebpage{RecallRankingWebpage: RecallRankingWebpage{Host: "bad.com"}}
	_, discard := applyOptic(discardOptic(), page)
	if !discard {
		t.Fatalf("expected discard for matching Site rule")
	}
}

func TestSitePreferenceBoostLikeRaisesScore(t *testing.T) {
	o, err := optic.Parse(`Like(Site("good.com"));`)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	boost := sitePreferenceBoost(o, "www.good.com")
	if boost <= 1.0 {
		t.Fatalf("expected a boost greater than 1.0, got %v", boost)
	}
}
