package judgment

import "strings"

// PersonaName identifies one of the three fixed analytical viewpoints.
type PersonaName string

const (
	PersonaTherapist PersonaName = "Therapist"
	PersonaAnalyst   PersonaName = "Analyst"
	PersonaCoach     PersonaName = "Coach"
)

// PersonaOrder is the only accepted order of personas in a Result.
var PersonaOrder = [3]PersonaName{PersonaTherapist, PersonaAnalyst, PersonaCoach}

// Verdict is a persona's answer to the user's question.
type Verdict string

const (
	VerdictYes       Verdict = "Yes"
	VerdictNo        Verdict = "No"
	VerdictPartially Verdict = "Partially"
)

// Word ceilings. They are enforced as true word counts (strings.Fields),
// not as character-length approximations.
const (
	MaxParaphraseWords = 30
	MaxSummaryWords    = 120
	MaxRationaleWords  = 120
)

// Result is a judgment that has passed schema validation. Values of this
// type are only produced by Validate and Parse.
type Result struct {
	Paraphrase string           `json:"paraphrase" validate:"required,nonblank,maxwords=30" jsonschema:"description=One-sentence restatement of the situation (max 30 words)"`
	Personas   []PersonaVerdict `json:"personas" validate:"dive" jsonschema:"minItems=3,maxItems=3,description=Exactly three entries in the order Therapist\\, Analyst\\, Coach"`
	Summary    string           `json:"summary" validate:"required,nonblank,maxwords=120" jsonschema:"description=Synthesised verdict across the personas (max 120 words)"`
}

// PersonaVerdict is one persona's view of the situation.
type PersonaVerdict struct {
	Name      PersonaName `json:"name" jsonschema:"enum=Therapist,enum=Analyst,enum=Coach"`
	Verdict   Verdict     `json:"verdict" validate:"required,oneof=Yes No Partially" jsonschema:"enum=Yes,enum=No,enum=Partially"`
	Rationale string      `json:"rationale" validate:"required,nonblank,maxwords=120" jsonschema:"description=Reasoning behind the verdict (max 120 words)"`
	KeyPoints []string    `json:"key_points" validate:"len=3,dive,nonblank" jsonschema:"minItems=3,maxItems=3,description=Exactly three short standalone points"`
}

// CitableText returns the text in which citation markers are checked: the
// summary followed by every persona rationale.
func (r *Result) CitableText() string {
	parts := make([]string, 0, len(r.Personas)+1)
	parts = append(parts, r.Summary)
	for _, p := range r.Personas {
		parts = append(parts, p.Rationale)
	}
	return strings.Join(parts, "\n")
}

// Persona returns the verdict for the named persona, or nil.
func (r *Result) Persona(name PersonaName) *PersonaVerdict {
	for i := range r.Personas {
		if r.Personas[i].Name == name {
			return &r.Personas[i]
		}
	}
	return nil
}
