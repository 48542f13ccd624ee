package query

import (
	"reflect"
	"testing"
)

var noBangs []string

func simpleOf(ts []*Term) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.SimpleOrPhrase.Word
	}
	return out
}

func TestParseNot(t *testing.T) {
	got := Parse("this -that", noBangs)
	want := []*Term{
		simpleTerm("this"),
		{Kind: TermNot, Not: simpleTerm("that")},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	got = Parse("this -", noBangs)
	want = []*Term{simpleTerm("this"), simpleTerm("-")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseDoubleNot(t *testing.T) {
	got := Parse("this --that", noBangs)
	want := []*Term{simpleTerm("this"), simpleTerm("--that")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseSite(t *testing.T) {
	got := Parse("this site:test.com", noBangs)
	want := []*Term{simpleTerm("this"), {Kind: TermSite, Site: "test.com"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseTitleBodyURL(t *testing.T) {
	got := Parse("this intitle:test", noBangs)
	want := []*Term{simpleTerm("this"), {Kind: TermTitle, Title: NewSimple("test")}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	got = Parse("this inbody:test", noBangs)
	want = []*Term{simpleTerm("this"), {Kind: TermBody, Body: NewSimple("test")}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	got = Parse("this inurl:test", noBangs)
	want = []*Term{simpleTerm("this"), {Kind: TermURL, URL: NewSimple("test")}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseEmpty(t *testing.T) {
	got := Parse("", noBangs)
	if len(got) != 0 {
		t.Fatalf("got %+v, want empty", got)
	}
}

func TestParsePhrase(t *testing.T) {
	got := Parse(`"this is a" inurl:test`, noBangs)
	want := []*Term{
		{Kind: TermSimpleOrPhrase, SimpleOrPhrase: NewPhrase([]string{"this", "is", "a"})},
		{Kind: TermURL, URL: NewSimple("test")},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseUnterminatedPhraseFallsBackToWords(t *testing.T) {
	got := Parse(`"this is a inurl:test`, noBangs)
	want := []*Term{
		simpleTerm(`"this`),
		simpleTerm("is"),
		simpleTerm("a"),
		{Kind: TermURL, URL: NewSimple("test")},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseEmptyPhrase(t *testing.T) {
	got := Parse(`""`, noBangs)
	want := []*Term{{Kind: TermSimpleOrPhrase, SimpleOrPhrase: NewPhrase(nil)}}
	if len(got) != 1 || got[0].SimpleOrPhrase.Kind != Phrase || len(got[0].SimpleOrPhrase.Words) != 0 {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseCurlyQuotes(t *testing.T) {
	got := Parse("“this is a“ inurl:test", noBangs)
	want := []*Term{
		{Kind: TermSimpleOrPhrase, SimpleOrPhrase: NewPhrase([]string{"this", "is", "a"})},
		{Kind: TermURL, URL: NewSimple("test")},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseBangPrefix(t *testing.T) {
	got := Parse("!g golang", []string{"!"})
	want := []*Term{
		{Kind: TermPossibleBang, Bang: "g"},
		simpleTerm("golang"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseUnicodeDoesNotPanic(t *testing.T) {
	got := Parse(" ", noBangs)
	if len(got) != 0 {
		t.Fatalf("got %d terms, want 0", len(got))
	}
}
