package tui

import (
	"strings"
	"testing"
)

func TestBuildStyledWordsMarksUnmatched(t *testing.T) {
	tokens := buildStyledWords("The cat sat.", "the dog sat")
	if len(tokens) != 5 {
		t.Fatalf("expected 5 tokens, got %d", len(tokens))
	}
	if tokens[0].s != correctStyle.Render("the") {
		t.Fatalf("expected correct style for matched word")
	}
	if tokens[2].s != incorrectStyle.Render("dog") {
		t.Fatalf("expected incorrect style for extra word")
	}
	if !tokens[1].isSpace || !tokens[3].isSpace {
		t.Fatalf("expected separators between words")
	}
}

func TestBuildStyledWordsConsumesCounts(t *testing.T) {
	tokens := buildStyledWords("hi there", "hi hi")
	if tokens[0].s != correctStyle.Render("hi") {
		t.Fatalf("expected first occurrence to match")
	}
	if tokens[2].s != incorrectStyle.Render("hi") {
		t.Fatalf("expected second occurrence to be unmatched")
	}
}

func TestWrapStyledTokensBreaksAtSpaces(t *testing.T) {
	tokens := []styledToken{
		{s: "one", width: 3},
		{s: " ", width: 1, isSpace: true},
		{s: "two", width: 3},
		{s: " ", width: 1, isSpace: true},
		{s: "three", width: 5},
	}
	got := wrapStyledTokens(tokens, 8)
	if got != "one two\nthree" {
		t.Fatalf("unexpected wrap: %q", got)
	}
	if unwrapped := wrapStyledTokens(tokens, 0); strings.Contains(unwrapped, "\n") {
		t.Fatalf("expected no wrapping for zero width")
	}
}
