package judgment

import (
	"math"
	"regexp"
	"strconv"
)

// citationPattern matches a citation marker: an integer in square brackets.
var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// CitationReport is the outcome of CheckCitations.
type CitationReport struct {
	// Valid is true when every marker refers to a supplied snippet.
	Valid bool `json:"valid"`

	// Found lists every distinct marker number in order of first appearance.
	Found []int `json:"found,omitempty"`

	// Invalid lists the distinct out-of-range numbers in order of first
	// appearance.
	Invalid []int `json:"invalid,omitempty"`
}

// CheckCitations verifies that every citation marker in text refers to one of
// snippetCount reference snippets, numbered from 1. With no snippets the
// valid range is empty, so any marker is reported.
func CheckCitations(text string, snippetCount int) CitationReport {
	var report CitationReport
	seen := make(map[int]bool)

	for _, m := range citationPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			// Only overflow can fail here; the number is beyond any count.
			n = math.MaxInt
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		report.Found = append(report.Found, n)
		if n <= 0 || n > snippetCount {
			report.Invalid = append(report.Invalid, n)
		}
	}

	report.Valid = len(report.Invalid) == 0
	return report
}
