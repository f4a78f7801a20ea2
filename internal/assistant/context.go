package assistant

import "strings"

type contextKind int

const (
	contextNone contextKind = iota
	contextText
	contextList
)

// ContextData is the single value threaded from one plan step to the
// next. It is either absent, one text, or a list of texts. Values are
// immutable once constructed; each step receives exactly the previous
// step's result, never an accumulation.
type ContextData struct {
	kind contextKind
	text string
	list []string
}

func NoContext() ContextData { return ContextData{} }

func TextContext(text string) ContextData {
	if text == "" {
		return ContextData{}
	}
	return ContextData{kind: contextText, text: text}
}

func ListContext(items []string) ContextData {
	kept := make([]string, 0, len(items))
	for _, s := range items {
		if s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return ContextData{}
	}
	return ContextData{kind: contextList, list: kept}
}

func (c ContextData) IsEmpty() bool { return c.kind == contextNone }

// IsList reports whether the context is a list of strings, the shape
// that forces the retrieval pipeline into its external tier.
func (c ContextData) IsList() bool { return c.kind == contextList }

// List returns the context as a list, or nil when not list shaped.
func (c ContextData) List() []string {
	if c.kind != contextList {
		return nil
	}
	out := make([]string, len(c.list))
	copy(out, c.list)
	return out
}

// Text flattens the context to one string for display or file output.
func (c ContextData) Text() string {
	switch c.kind {
	case contextText:
		return c.text
	case contextList:
		return strings.Join(c.list, "\n")
	default:
		return ""
	}
}
