package webfetch

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClipRunesKeepsShortText(t *testing.T) {
	if got := clipRunes("short", 100); got != "short" {
		t.Fatalf("expected text unchanged, got %q", got)
	}
}

func TestClipRunesDoesNotSplitMultibyte(t *testing.T) {
	text := strings.Repeat("é", 20)
	got := clipRunes(text, 10)
	if !utf8.ValidString(got) {
		t.Fatalf("clip produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 10 {
		t.Fatalf("expected 10 runes, got %d", n)
	}
}

func TestClipRunesZeroMaxMeansUnbounded(t *testing.T) {
	text := strings.Repeat("x", 50)
	if got := clipRunes(text, 0); got != text {
		t.Fatalf("expected text unchanged, got %d chars", len(got))
	}
}
