package plan

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mosaibah/askdocs/internal/llm"
	"github.com/mosaibah/askdocs/internal/telemetry"
)

// capability catalog shown to the planning model. Display names here
// must round-trip through the parser.
var capabilities = []struct {
	assistant Assistant
	purpose   string
}{
	{VectorStoreAdmin, "searches the internal document index, or counts how many documents are stored"},
	{WebSearcher, "searches the internet for current or external information"},
	{LanguageModelAdmin, "generates, summarizes or rewrites text, using prior step output as context"},
	{FileManager, "saves or reads files in the workspace"},
	{CodeInterpreter, "executes a short code snippet and returns its output"},
}

// Generator asks the language model to decompose a query into steps.
type Generator struct {
	provider llm.Provider
	model    string
	costs    *telemetry.CostTracker
	logger   *log.Logger
}

func NewGenerator(provider llm.Provider, model string, costs *telemetry.CostTracker) *Generator {
	return &Generator{
		provider: provider,
		model:    model,
		costs:    costs,
		logger:   log.New(log.Writer(), "[PLANNER] ", log.LstdFlags),
	}
}

// GeneratePlan returns the raw plan text for query. No document
// context is attached; planning sees only the query and the catalog.
func (g *Generator) GeneratePlan(ctx context.Context, query string) (string, error) {
	prompt := createPlanningPrompt(query)
	text, promptTokens, completionTokens, err := g.provider.GenerateWithTokens(ctx, prompt, g.model, map[string]interface{}{
		"temperature": 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("plan generation: %w", err)
	}
	if g.costs != nil {
		cost, cerr := g.provider.CalculateCost(g.model, promptTokens, completionTokens)
		if cerr != nil {
			cost = 0
		}
		g.costs.Add(g.model, promptTokens, completionTokens, cost)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("plan generation: model returned empty plan")
	}
	g.logger.Printf("generated plan (%d chars) for query: %s", len(text), query)
	return text, nil
}

func createPlanningPrompt(query string) string {
	var b strings.Builder
	b.WriteString("You are a task planner. Break the user's request into a numbered list of steps.\n")
	b.WriteString("Each step delegates one task to exactly one of these assistants:\n\n")
	for _, c := range capabilities {
		fmt.Fprintf(&b, "- %s: %s\n", c.assistant.DisplayName(), c.purpose)
	}
	b.WriteString("\nFormat every step as:\n")
	b.WriteString("<number>. <task description> -> <assistant name>\n\n")
	b.WriteString("Use only the assistant names listed above, exactly as written.\n")
	b.WriteString("Output nothing but the numbered list.\n\n")
	b.WriteString("Request: ")
	b.WriteString(query)
	return b.String()
}
