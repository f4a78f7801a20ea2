// Package plan turns a user query into an ordered list of delegated
// sub-tasks, and parses the model's plan text back into steps.
package plan

import (
	"fmt"
	"regexp"
	"strings"
)

// Assistant identifies one specialized worker. The set is closed:
// unknown names are rejected at parse time, never at dispatch time.
type Assistant string

const (
	VectorStoreAdmin   Assistant = "VectorStoreAdmin"
	WebSearcher        Assistant = "WebSearcher"
	LanguageModelAdmin Assistant = "LanguageModelAdmin"
	FileManager        Assistant = "FileManager"
	CodeInterpreter    Assistant = "CodeInterpreter"
)

// DisplayName is the user-facing name that appears in plan text.
func (a Assistant) DisplayName() string {
	switch a {
	case VectorStoreAdmin:
		return "ChromaDB Admin"
	case WebSearcher:
		return "Internet Searcher"
	case LanguageModelAdmin:
		return "Gemini API Admin"
	case FileManager:
		return "File Manager"
	case CodeInterpreter:
		return "Code Interpreter"
	default:
		return string(a)
	}
}

// All lists every assistant in catalog order.
func All() []Assistant {
	return []Assistant{VectorStoreAdmin, WebSearcher, LanguageModelAdmin, FileManager, CodeInterpreter}
}

// assistantNames maps accepted plan-text spellings (canonical and
// display, case-folded) to the assistant.
var assistantNames = func() map[string]Assistant {
	m := make(map[string]Assistant)
	for _, a := range All() {
		m[strings.ToLower(string(a))] = a
		m[strings.ToLower(a.DisplayName())] = a
	}
	return m
}()

// ResolveAssistant maps a plan-text name to its assistant.
func ResolveAssistant(name string) (Assistant, bool) {
	a, ok := assistantNames[strings.ToLower(strings.TrimSpace(name))]
	return a, ok
}

// Step is one (task, assistant) pair within a plan.
type Step struct {
	TaskDescription string
	Assistant       Assistant
}

// Plan is the ordered list of steps derived from one query.
type Plan struct {
	Steps []Step
}

// String renders the plan back in its wire format: a numbered list of
// "task -> assistant" lines using display names.
func (p *Plan) String() string {
	var b strings.Builder
	for i, s := range p.Steps {
		fmt.Fprintf(&b, "%d. %s -> %s\n", i+1, s.TaskDescription, s.Assistant.DisplayName())
	}
	return b.String()
}

// ParseError rejects a whole plan text. Line is the 1-based index of
// the offending line within the plan, or 0 when no steps were found.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return "plan parse: " + e.Reason
	}
	return fmt.Sprintf("plan parse: line %d: %s (%q)", e.Line, e.Reason, e.Text)
}

// stepLine matches "N. task -> assistant" with either "." or ")" after
// the number.
var stepLine = regexp.MustCompile(`^\s*(\d+)[.)]\s*(.+?)\s*->\s*(.+?)\s*$`)

// Parse validates plan text against the step grammar. Parsing is
// fail-fast: the first malformed line or unknown assistant rejects the
// entire text. Blank lines are skipped; any other non-step line is an
// error. Zero steps is an error.
func Parse(text string) (*Plan, error) {
	var steps []Step
	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		m := stepLine.FindStringSubmatch(line)
		if m == nil {
			return nil, &ParseError{Line: i + 1, Text: trimmed, Reason: "not a numbered step"}
		}
		task := strings.TrimSpace(m[2])
		if task == "" {
			return nil, &ParseError{Line: i + 1, Text: trimmed, Reason: "empty task description"}
		}
		assistant, ok := ResolveAssistant(m[3])
		if !ok {
			return nil, &ParseError{Line: i + 1, Text: trimmed, Reason: fmt.Sprintf("unknown assistant %q", strings.TrimSpace(m[3]))}
		}
		steps = append(steps, Step{TaskDescription: task, Assistant: assistant})
	}
	if len(steps) == 0 {
		return nil, &ParseError{Reason: "no steps found"}
	}
	return &Plan{Steps: steps}, nil
}
