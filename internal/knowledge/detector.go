package knowledge

import (
	"regexp"
	"strings"
)

// DefaultDomains is the built-in keyword table. A seed file may replace the
// keywords of any tag or add new tags.
var DefaultDomains = []Domain{
	{Tag: "tenancy", Keywords: []string{"landlord", "letting agent", "tenancy", "tenant", "deposit", "eviction", "lease", "rent increase"}},
	{Tag: "employment", Keywords: []string{"employer", "my boss", "line manager", "contract of employment", "redundancy", "dismissed", "disciplinary", "grievance", "annual leave", "sick pay", "maternity leave"}},
	{Tag: "consumer", Keywords: []string{"refund", "faulty", "warranty", "retailer", "receipt", "consumer rights", "chargeback"}},
	{Tag: "neighbours", Keywords: []string{"neighbour", "neighbor", "noise complaint", "boundary", "hedge", "party wall", "parking space"}},
	{Tag: "family-law", Keywords: []string{"custody", "divorce", "separation", "child maintenance", "contact arrangement", "co-parent", "co-parenting"}},
	{Tag: "weddings", Keywords: []string{"wedding", "bridesmaid", "best man", "hen do", "stag do", "maid of honour", "plus one"}},
}

// Detector maps free text to domain tags by keyword.
// The zero value detects nothing. A Detector is safe for concurrent use.
type Detector struct {
	rules []domainRule
}

// nonWord stands in for \b, which in RE2 only knows ASCII word characters.
const nonWord = `[^\p{L}\p{N}_]`

type domainRule struct {
	tag     string
	pattern *regexp.Regexp
}

// NewDetector compiles a keyword table. Domains without keywords are
// skipped; order is preserved.
func NewDetector(domains []Domain) *Detector {
	d := &Detector{}
	for _, dom := range domains {
		var alts []string
		for _, kw := range dom.Keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			// Any run of whitespace in a multi-word keyword matches any other.
			words := strings.Fields(kw)
			for i, w := range words {
				words[i] = regexp.QuoteMeta(w)
			}
			alts = append(alts, strings.Join(words, `\s+`))
		}
		if len(alts) == 0 {
			continue
		}
		d.rules = append(d.rules, domainRule{
			tag:     dom.Tag,
			pattern: regexp.MustCompile(`(?i)(?:^|` + nonWord + `)(?:` + strings.Join(alts, "|") + `)(?:$|` + nonWord + `)`),
		})
	}
	return d
}

// Detect returns the tags whose keywords appear in text, in table order.
func (d *Detector) Detect(text string) []string {
	if d == nil {
		return nil
	}
	var tags []string
	for _, r := range d.rules {
		if r.pattern.MatchString(text) {
			tags = append(tags, r.tag)
		}
	}
	return tags
}

// Tags lists the tags the detector can return.
func (d *Detector) Tags() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.rules))
	for i, r := range d.rules {
		out[i] = r.tag
	}
	return out
}

// MergeDomains returns base with the keywords of every tag in override
// replaced, and override's new tags appended in order. A domain in override
// with no keywords keeps base's keywords.
func MergeDomains(base, override []Domain) []Domain {
	out := make([]Domain, len(base))
	copy(out, base)
	index := make(map[string]int, len(out))
	for i, d := range out {
		index[d.Tag] = i
	}
	for _, d := range override {
		i, ok := index[d.Tag]
		switch {
		case !ok:
			index[d.Tag] = len(out)
			out = append(out, d)
		case len(d.Keywords) > 0:
			out[i].Keywords = d.Keywords
		}
	}
	return out
}
