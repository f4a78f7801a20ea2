package prompt

import (
	"strings"
	"testing"

	"github.com/mosaibah/askdocs/internal/retrieval"
)

func TestFormatIsIdempotent(t *testing.T) {
	bundle := retrieval.ContextBundle{
		Chunks: []retrieval.Chunk{{Text: "alpha"}, {Text: "beta"}},
		Source: retrieval.SourceDocuments,
	}
	first := Format("what is alpha?", bundle, "Summarize the context")
	second := Format("what is alpha?", bundle, "Summarize the context")
	if first != second {
		t.Fatal("identical inputs must yield byte-identical prompts")
	}
}

func TestFormatEmbedsDocumentsSource(t *testing.T) {
	bundle := retrieval.ContextBundle{
		Chunks: []retrieval.Chunk{{Text: "the manual says 42"}},
		Source: retrieval.SourceDocuments,
	}
	out := Format("what does the manual say?", bundle, "")
	if !strings.Contains(out, "retrieved from internal storage") {
		t.Fatalf("prompt must name the documents source:\n%s", out)
	}
	if !strings.Contains(out, "the manual says 42") {
		t.Fatal("prompt must contain the chunk text")
	}
	if !strings.Contains(out, "Context:\n---\n") || !strings.Contains(out, "\n---\n\nResponse:") {
		t.Fatalf("unexpected prompt frame:\n%s", out)
	}
}

func TestFormatEmbedsInternetSource(t *testing.T) {
	bundle := retrieval.ContextBundle{
		Chunks: []retrieval.Chunk{{Text: "snippet one"}, {Text: "snippet two"}},
		Source: retrieval.SourceInternet,
	}
	out := Format("q", bundle, "")
	if !strings.Contains(out, "found on the internet") {
		t.Fatalf("prompt must name the internet source:\n%s", out)
	}
	for _, s := range []string{"snippet one", "snippet two"} {
		if !strings.Contains(out, s) {
			t.Fatalf("prompt missing %q", s)
		}
	}
}

func TestFormatEmbedsExternalSource(t *testing.T) {
	bundle := retrieval.ContextBundle{
		Chunks: []retrieval.Chunk{{Text: "prior step result"}},
		Source: retrieval.SourceExternal,
	}
	out := Format("q", bundle, "Summarize this")
	if !strings.Contains(out, "using the following provided context") {
		t.Fatalf("prompt must name the external source:\n%s", out)
	}
	if !strings.Contains(out, "Summarize this") {
		t.Fatal("prompt must carry the task instruction")
	}
}

func TestFormatNoneTierTellsModelToSaySo(t *testing.T) {
	bundle := retrieval.ContextBundle{Source: retrieval.SourceNone}
	out := Format("what is the airspeed of a swallow?", bundle, "")
	if strings.Contains(out, "Context:") {
		t.Fatalf("no context block expected:\n%s", out)
	}
	if !strings.Contains(out, "general knowledge") {
		t.Fatalf("none tier must instruct a general knowledge answer:\n%s", out)
	}
	if !strings.Contains(out, "state that you are doing so") {
		t.Fatalf("none tier must ask the model to say so:\n%s", out)
	}
}

func TestFormatHasNoSideEffects(t *testing.T) {
	bundle := retrieval.ContextBundle{
		Chunks: []retrieval.Chunk{{Text: "original"}},
		Source: retrieval.SourceDocuments,
	}
	_ = Format("q", bundle, "")
	if bundle.Chunks[0].Text != "original" {
		t.Fatal("Format must not mutate its input")
	}
}
