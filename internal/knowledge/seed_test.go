package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSeed(t *testing.T) {
	seed, err := LoadSeed("testdata/seed.yml")
	require.NoError(t, err)
	require.Len(t, seed.Domains, 2)

	assert.Equal(t, "tenancy", seed.Domains[0].Tag, "file order preserved")
	assert.Equal(t, "housework", seed.Domains[1].Tag)
	assert.Equal(t, []string{"flatmate", "washing up", "chores"}, seed.Domains[1].Keywords)
	require.Len(t, seed.Domains[0].Snippets, 2)
	assert.Equal(t, "Tenancy deposit protection", seed.Domains[0].Snippets[0].Title)
}

func TestSeed_Apply(t *testing.T) {
	seed, err := LoadSeed("testdata/seed.yml")
	require.NoError(t, err)

	st := NewMemStore()
	ctx := context.Background()
	n, err := seed.Apply(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	got, err := st.Snippets(ctx, "housework")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "housework", got[0].Domain)

	// Applying twice does not duplicate filings.
	_, err = seed.Apply(ctx, st)
	require.NoError(t, err)
	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Stats{DomainCount: 2, SnippetCount: 4}, stats)
}

func TestParseSeed_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"not a mapping", "domains: [a, b]", "must be a mapping"},
		{"bad url", `
domains:
  tenancy:
    snippets:
      - {url: not-a-url, title: T, text: X}
`, "URL"},
		{"missing text", `
domains:
  tenancy:
    snippets:
      - {url: "https://a.example", title: T}
`, "Text"},
		{"blank keyword", `
domains:
  tenancy:
    keywords: ["landlord", ""]
`, "Keywords"},
		{"duplicate tag", `
domains:
  tenancy: {}
  tenancy: {}
`, ""},
		{"malformed", "domains: {tenancy: [", "parse seed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeed([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSeed_DomainList(t *testing.T) {
	seed, err := ParseSeed([]byte(`
domains:
  weddings:
    keywords: [elopement]
`))
	require.NoError(t, err)
	assert.Equal(t, []Domain{{Tag: "weddings", Keywords: []string{"elopement"}}}, seed.DomainList())
}
