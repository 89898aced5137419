package knowledge

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Seed is a curated knowledge base loaded from YAML:
//
//	domains:
//	  tenancy:
//	    keywords: [landlord, deposit]
//	    snippets:
//	      - url: https://example.org/deposits
//	        title: Tenancy deposit protection
//	        text: Landlords must protect deposits within 30 days.
//
// Domains keep their file order.
type Seed struct {
	Domains SeedDomains `yaml:"domains"`
}

// SeedDomain is one entry under domains.
type SeedDomain struct {
	Tag      string    `yaml:"-" validate:"required"`
	Keywords []string  `yaml:"keywords" validate:"dive,required"`
	Snippets []Snippet `yaml:"snippets" validate:"dive"`
}

// SeedDomains decodes a YAML mapping into an ordered list.
type SeedDomains []SeedDomain

// UnmarshalYAML walks the mapping node so that file order is preserved.
func (sd *SeedDomains) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: domains must be a mapping of tag to domain", node.Line)
	}
	out := make(SeedDomains, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var d SeedDomain
		if err := node.Content[i+1].Decode(&d); err != nil {
			return err
		}
		d.Tag = node.Content[i].Value
		out = append(out, d)
	}
	*sd = out
	return nil
}

// LoadSeed reads and validates a seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("knowledge: read seed %s: %w", path, err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates seed YAML.
func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("knowledge: parse seed: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every domain and snippet.
func (s *Seed) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	seen := make(map[string]bool, len(s.Domains))
	var errs []error
	for _, d := range s.Domains {
		if seen[d.Tag] {
			errs = append(errs, fmt.Errorf("domain %q: duplicate tag", d.Tag))
			continue
		}
		seen[d.Tag] = true
		if err := v.Struct(d); err != nil {
			errs = append(errs, fmt.Errorf("domain %q: %w", d.Tag, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("knowledge: invalid seed: %w", errors.Join(errs...))
	}
	return nil
}

// DomainList returns the seed's domains and keywords.
func (s *Seed) DomainList() []Domain {
	out := make([]Domain, 0, len(s.Domains))
	for _, d := range s.Domains {
		out = append(out, Domain{Tag: d.Tag, Keywords: d.Keywords})
	}
	return out
}

// Apply loads the seed into st and returns how many snippets were filed.
func (s *Seed) Apply(ctx context.Context, st Store) (int, error) {
	if err := st.InitSchema(ctx); err != nil {
		return 0, fmt.Errorf("knowledge: apply seed: %w", err)
	}
	n := 0
	for _, d := range s.Domains {
		if err := st.AddDomain(ctx, Domain{Tag: d.Tag, Keywords: d.Keywords}); err != nil {
			return n, fmt.Errorf("knowledge: apply seed: domain %q: %w", d.Tag, err)
		}
		for _, sn := range d.Snippets {
			sn.Domain = d.Tag
			if err := st.AddSnippet(ctx, sn); err != nil {
				return n, fmt.Errorf("knowledge: apply seed: snippet %s: %w", sn.URL, err)
			}
			n++
		}
	}
	return n, nil
}
