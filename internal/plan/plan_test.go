package plan

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAcceptsDisplayNames(t *testing.T) {
	text := "1. Find recent articles about solar power -> Internet Searcher\n" +
		"2. Summarize the findings -> Gemini API Admin\n" +
		"3. Save the summary to report.txt -> File Manager\n"
	p, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(p.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(p.Steps))
	}
	want := []Assistant{WebSearcher, LanguageModelAdmin, FileManager}
	for i, a := range want {
		if p.Steps[i].Assistant != a {
			t.Fatalf("step %d: expected %s, got %s", i, a, p.Steps[i].Assistant)
		}
	}
	if p.Steps[0].TaskDescription != "Find recent articles about solar power" {
		t.Fatalf("unexpected task: %q", p.Steps[0].TaskDescription)
	}
}

func TestParseAcceptsCanonicalNames(t *testing.T) {
	p, err := Parse("1) count the documents -> VectorStoreAdmin")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Steps[0].Assistant != VectorStoreAdmin {
		t.Fatalf("expected VectorStoreAdmin, got %s", p.Steps[0].Assistant)
	}
}

func TestParseRejectsUnknownAssistant(t *testing.T) {
	text := "1. Search the web -> Internet Searcher\n" +
		"2. Summarize -> Wizard\n"
	_, err := Parse(text)
	if err == nil {
		t.Fatal("expected error for unknown assistant")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Line != 2 {
		t.Fatalf("expected line 2, got %d", pe.Line)
	}
	if !strings.Contains(pe.Reason, "Wizard") {
		t.Fatalf("expected reason to name the assistant, got %q", pe.Reason)
	}
}

func TestParseRejectsMalformedLine(t *testing.T) {
	text := "1. Search the web -> Internet Searcher\n" +
		"this line is not a step\n"
	_, err := Parse(text)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Line != 2 {
		t.Fatalf("expected line 2, got %d", pe.Line)
	}
}

func TestParseRejectsEmptyPlan(t *testing.T) {
	for _, text := range []string{"", "\n\n", "   \n"} {
		_, err := Parse(text)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("expected *ParseError for %q, got %v", text, err)
		}
		if pe.Line != 0 {
			t.Fatalf("expected line 0 for empty plan, got %d", pe.Line)
		}
	}
}

func TestParseIsDeterministic(t *testing.T) {
	text := "1. look up the launch date -> ChromaDB Admin\n" +
		"2. write a short answer -> Gemini API Admin\n"
	first, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	second, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(first.Steps) != len(second.Steps) {
		t.Fatal("parses disagree on step count")
	}
	for i := range first.Steps {
		if first.Steps[i] != second.Steps[i] {
			t.Fatalf("step %d differs between parses", i)
		}
	}
}

func TestPlanStringRoundTrips(t *testing.T) {
	p := &Plan{Steps: []Step{
		{TaskDescription: "find sources", Assistant: WebSearcher},
		{TaskDescription: "summarize", Assistant: LanguageModelAdmin},
	}}
	again, err := Parse(p.String())
	if err != nil {
		t.Fatalf("Parse(String): %v", err)
	}
	if len(again.Steps) != 2 || again.Steps[0] != p.Steps[0] || again.Steps[1] != p.Steps[1] {
		t.Fatalf("round trip mismatch: %+v", again.Steps)
	}
}

func TestResolveAssistantIsCaseInsensitive(t *testing.T) {
	a, ok := ResolveAssistant("internet searcher")
	if !ok || a != WebSearcher {
		t.Fatalf("expected WebSearcher, got %v %v", a, ok)
	}
	if _, ok := ResolveAssistant("nobody"); ok {
		t.Fatal("expected unknown name to fail")
	}
}
