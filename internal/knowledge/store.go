// Package knowledge detects which reference domains a situation touches and
// supplies the curated snippets filed under them.
package knowledge

import (
	"context"
	"errors"
	"io"
)

// Snippet is a short pre-computed reference text. Snippets are cited in
// generated text by their 1-based position in the prompt, e.g. [2].
type Snippet struct {
	Domain string `json:"domain" yaml:"-"`
	URL    string `json:"url" yaml:"url" validate:"required,url"`
	Title  string `json:"title" yaml:"title" validate:"required"`
	Text   string `json:"text" yaml:"text" validate:"required"`
}

// Domain is a reference domain tag and the keywords that select it.
type Domain struct {
	Tag      string   `json:"tag"`
	Keywords []string `json:"keywords,omitempty"`
}

// Stats summarizes a knowledge base.
type Stats struct {
	DomainCount int `json:"domainCount"`
	// SnippetCount counts filings: a URL filed under two domains counts twice.
	SnippetCount int `json:"snippetCount"`
}

// Source returns the snippets filed under a domain, in filing order. An
// unknown domain yields no snippets and no error.
type Source interface {
	Snippets(ctx context.Context, domain string) ([]Snippet, error)
}

// Store is the knowledge base backend.
// Implementations: KuzuStore (persistent), MemStore (tests and default).
type Store interface {
	Source
	io.Closer

	// InitSchema is called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// AddDomain creates or replaces a domain's keywords.
	AddDomain(ctx context.Context, d Domain) error

	// AddSnippet files s under s.Domain, creating the domain if needed.
	// Filing the same URL under the same domain twice is a no-op.
	AddSnippet(ctx context.Context, s Snippet) error

	// Domains lists every domain in creation order.
	Domains(ctx context.Context) ([]Domain, error)

	Stats(ctx context.Context) (*Stats, error)
}

// ErrKuzuUnavailable is returned by OpenKuzu in builds without cgo.
var ErrKuzuUnavailable = errors.New("knowledge: kuzu store requires a cgo build")
