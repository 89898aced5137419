// Package judgmenttest provides well-formed judgment payloads for tests in
// other packages.
package judgmenttest

import (
	"encoding/json"
)

// Payload returns a map that satisfies the judgment contract. Callers may
// mutate the returned value freely; every call builds a fresh copy.
func Payload() map[string]any {
	return map[string]any{
		"paraphrase": "You shouted at a flatmate who never washes up and wonder if that was fair.",
		"personas": []any{
			persona("Therapist", "Partially",
				"Your frustration is understandable after repeated neglect, but shouting made it harder for them to hear the request.",
				"Your frustration had a real cause", "Raised voices trigger defensiveness", "Name the feeling, then the ask"),
			persona("Analyst", "Yes",
				"The chore split is unequal, yet the method of confrontation escalated the conflict rather than resolving it.",
				"The workload is measurably uneven", "Shouting shifted focus to tone", "A written rota removes ambiguity"),
			persona("Coach", "Partially",
				"Apologise for the volume, keep the point, and propose a concrete rota you can both check weekly.",
				"Own the delivery, not the grievance", "Offer a specific plan", "Schedule a short weekly check-in"),
		},
		"summary": "You were right to raise the issue and wrong to shout. Apologise for the tone, then agree a clear rota.",
	}
}

// JSON marshals Payload after applying mutate (which may be nil).
func JSON(mutate func(map[string]any)) string {
	p := Payload()
	if mutate != nil {
		mutate(p)
	}
	b, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// WithSummary returns a mutation that replaces the summary.
func WithSummary(s string) func(map[string]any) {
	return func(p map[string]any) { p["summary"] = s }
}

// Personas returns the personas slice of a payload for mutation.
func Personas(p map[string]any) []any {
	return p["personas"].([]any)
}

func persona(name, verdict, rationale string, points ...string) map[string]any {
	kp := make([]any, len(points))
	for i, s := range points {
		kp[i] = s
	}
	return map[string]any{
		"name":       name,
		"verdict":    verdict,
		"rationale":  rationale,
		"key_points": kp,
	}
}
