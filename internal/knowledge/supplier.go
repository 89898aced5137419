package knowledge

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxSnippets caps the references injected into one prompt.
const DefaultMaxSnippets = 4

// Supplier turns a situation into the reference snippets shown to the model.
type Supplier struct {
	detector *Detector
	source   Source
	max      int
	log      *zap.Logger
}

// NewSupplier creates a Supplier. A nil source supplies no snippets; max
// <= 0 uses DefaultMaxSnippets.
func NewSupplier(detector *Detector, source Source, max int, log *zap.Logger) *Supplier {
	if max <= 0 {
		max = DefaultMaxSnippets
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Supplier{detector: detector, source: source, max: max, log: log}
}

// Gather detects the domains text touches and returns up to the supplier's
// maximum snippets across them, in domain order, de-duplicated by URL.
// Source errors are logged and only reduce the snippets returned.
func (s *Supplier) Gather(ctx context.Context, text string) ([]string, []Snippet) {
	if s == nil {
		return nil, nil
	}
	domains := s.detector.Detect(text)
	if len(domains) == 0 || s.source == nil {
		return domains, nil
	}

	perDomain := make([][]Snippet, len(domains))
	var g errgroup.Group
	g.SetLimit(4)
	for i, tag := range domains {
		g.Go(func() error {
			snippets, err := s.source.Snippets(ctx, tag)
			if err != nil {
				s.log.Warn("snippet lookup failed", zap.String("domain", tag), zap.Error(err))
				return nil
			}
			perDomain[i] = snippets
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]bool)
	var out []Snippet
	for i, snippets := range perDomain {
		for _, sn := range snippets {
			if len(out) == s.max {
				return domains, out
			}
			if seen[sn.URL] {
				continue
			}
			seen[sn.URL] = true
			if sn.Domain == "" {
				sn.Domain = domains[i]
			}
			out = append(out, sn)
		}
	}
	return domains, out
}
