// Package prompt renders the model prompt for a judgment request.
package prompt

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/invopop/jsonschema"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/judgment"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/knowledge"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// persona describes one adviser to the model.
type persona struct {
	Name  judgment.PersonaName
	Brief string
}

var personas = []persona{
	{judgment.PersonaTherapist, "warm and emotionally attuned; looks at feelings, needs and how each person is likely experiencing the situation."},
	{judgment.PersonaAnalyst, "neutral and evidence-minded; weighs the facts, norms and any obligations involved."},
	{judgment.PersonaCoach, "practical and forward-looking; focuses on what the user can do next."},
}

// Input is one judgment request to render.
type Input struct {
	Context  string
	Query    string
	Snippets []knowledge.Snippet
}

// Builder renders prompts. It is safe for concurrent use.
type Builder struct {
	tmpl   *template.Template
	schema string
}

// NewBuilder parses the embedded template and generates the result schema.
func NewBuilder() (*Builder, error) {
	tmpl, err := template.New("judge.tmpl").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		ParseFS(templateFS, "templates/judge.tmpl")
	if err != nil {
		return nil, fmt.Errorf("prompt: parse template: %w", err)
	}
	schema, err := ResultSchema()
	if err != nil {
		return nil, err
	}
	return &Builder{tmpl: tmpl, schema: schema}, nil
}

// ResultSchema returns the indented JSON Schema of judgment.Result.
func ResultSchema() (string, error) {
	r := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	b, err := json.MarshalIndent(r.Reflect(&judgment.Result{}), "", "  ")
	if err != nil {
		return "", fmt.Errorf("prompt: marshal schema: %w", err)
	}
	return string(b), nil
}

// Build renders the prompt for in. Snippets are numbered from 1 in the order
// given; that numbering is what the model must cite.
func (b *Builder) Build(in Input) (string, error) {
	data := struct {
		Personas           []persona
		References         []knowledge.Snippet
		Context, Query     string
		Schema             string
		MaxParaphraseWords int
		MaxSummaryWords    int
		MaxRationaleWords  int
	}{
		Personas:           personas,
		References:         in.Snippets,
		Context:            neutralizeFences(strings.TrimSpace(in.Context)),
		Query:              neutralizeFences(strings.TrimSpace(in.Query)),
		Schema:             b.schema,
		MaxParaphraseWords: judgment.MaxParaphraseWords,
		MaxSummaryWords:    judgment.MaxSummaryWords,
		MaxRationaleWords:  judgment.MaxRationaleWords,
	}

	var sb strings.Builder
	if err := b.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("prompt: render: %w", err)
	}
	return sb.String(), nil
}

// neutralizeFences stops user text from closing the fence it is placed in.
func neutralizeFences(s string) string {
	return strings.ReplaceAll(s, "```", "'''")
}
