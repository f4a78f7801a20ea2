// Package prompt renders generation requests. Format is a pure
// function: identical inputs produce byte-identical prompts.
package prompt

import (
	"strings"

	"github.com/mosaibah/askdocs/internal/retrieval"
)

// Format combines the query, the selected context and an optional task
// instruction into one prompt. The context tier is named inside the
// prompt so the model can annotate its answer's provenance.
func Format(query string, bundle retrieval.ContextBundle, taskInstruction string) string {
	texts := make([]string, 0, len(bundle.Chunks))
	for _, c := range bundle.Chunks {
		if c.Text != "" {
			texts = append(texts, c.Text)
		}
	}
	context := strings.Join(texts, "\n")

	instruction := taskInstruction
	if instruction == "" {
		instruction = "Answer the following question: " + query
		if bundle.Source == retrieval.SourceNone || context == "" {
			instruction += ". No relevant documents were found, so answer from your general knowledge and state that you are doing so"
		} else {
			instruction += " Use the provided context to inform your answer."
		}
	}

	if context == "" {
		return "Instruction: " + instruction + ".\n\nResponse:"
	}

	var sourceDescription string
	switch bundle.Source {
	case retrieval.SourceDocuments:
		sourceDescription = "using the following documents retrieved from internal storage"
	case retrieval.SourceInternet:
		sourceDescription = "using the following information found on the internet"
	case retrieval.SourceExternal:
		sourceDescription = "using the following provided context"
	}

	var b strings.Builder
	b.WriteString("Instruction: ")
	b.WriteString(instruction)
	if sourceDescription != "" {
		b.WriteString(" ")
		b.WriteString(sourceDescription)
	}
	b.WriteString(".\n\nContext:\n---\n")
	b.WriteString(context)
	b.WriteString("\n---\n\nResponse:")
	return b.String()
}
