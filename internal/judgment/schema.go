package judgment

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Violation describes one way a value fails the Result contract.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return v.Path + ": " + v.Message
}

// Violations is an ordered list of contract failures, most fundamental first.
type Violations []Violation

// Error joins the violations into a single line.
func (vs Violations) Error() string {
	msgs := make([]string, len(vs))
	for i, v := range vs {
		msgs[i] = v.String()
	}
	return strings.Join(msgs, "; ")
}

// rootPath is the path reported for violations of the top-level value.
const rootPath = "$"

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// fieldValidator returns the shared validator with the judgment rules
// registered. validator.Validate caches struct metadata and is safe for
// concurrent use.
func fieldValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("maxwords", func(fl validator.FieldLevel) bool {
			limit, err := strconv.Atoi(fl.Param())
			if err != nil {
				return false
			}
			return WordCount(fl.Field().String()) <= limit
		})
		validate = v
	})
	return validate
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Validate checks an untyped value (typically the output of json.Unmarshal
// into any) against the Result contract. It returns either a fully typed
// Result and nil, or nil and a non-empty list of violations. It never panics.
//
// Violations are reported in priority order: presence and type of the
// top-level fields, persona count, persona order, per-persona field
// presence and types, enum membership and non-empty fields, key_points
// shape, and finally word ceilings. Each stage runs only when the previous
// ones passed.
func Validate(v any) (*Result, Violations) {
	obj, items, vs := decodeTop(v)
	if len(vs) > 0 {
		return nil, vs
	}

	if len(items) != len(PersonaOrder) {
		return nil, Violations{{
			Path:    "personas",
			Message: fmt.Sprintf("expected exactly %d personas, got %d", len(PersonaOrder), len(items)),
		}}
	}

	if vs := nameOrder(items); len(vs) > 0 {
		return nil, vs
	}

	res := &Result{
		Paraphrase: obj["paraphrase"].(string),
		Summary:    obj["summary"].(string),
		Personas:   make([]PersonaVerdict, len(items)),
	}
	for i, item := range items {
		var pvs Violations
		res.Personas[i], pvs = decodePersona(item, fmt.Sprintf("personas[%d]", i))
		vs = append(vs, pvs...)
	}
	if len(vs) > 0 {
		return nil, vs
	}

	if vs := fieldViolations(res); len(vs) > 0 {
		return nil, vs
	}
	return res, nil
}

// decodeTop checks the top-level object: paraphrase and summary strings and
// a personas array. Persona entries are not inspected.
func decodeTop(v any) (map[string]any, []any, Violations) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, nil, Violations{{Path: rootPath, Message: "expected an object, got " + typeName(v)}}
	}

	var vs Violations
	_, vs = requireString(obj, "paraphrase", "paraphrase", vs)
	_, vs = requireString(obj, "summary", "summary", vs)

	raw, present := obj["personas"]
	items, isArray := raw.([]any)
	switch {
	case !present || raw == nil:
		vs = append(vs, Violation{Path: "personas", Message: "is required"})
	case !isArray:
		vs = append(vs, Violation{Path: "personas", Message: "expected an array, got " + typeName(raw)})
	}
	return obj, items, vs
}

// nameOrder checks that the personas carry the fixed names in the fixed
// order. Names are read leniently: a missing or non-string name is a
// mismatch, and an entry that is not an object cannot be identified at all.
func nameOrder(items []any) Violations {
	var vs Violations
	for i, want := range PersonaOrder {
		path := fmt.Sprintf("personas[%d]", i)
		obj, ok := items[i].(map[string]any)
		if !ok {
			vs = append(vs, Violation{Path: path, Message: "expected an object, got " + typeName(items[i])})
			continue
		}
		var got string
		switch name := obj["name"].(type) {
		case string:
			if PersonaName(name) == want {
				continue
			}
			got = strconv.Quote(name)
		default:
			if raw, present := obj["name"]; !present {
				got = "nothing"
			} else {
				got = "a " + typeName(raw)
			}
		}
		vs = append(vs, Violation{
			Path:    path + ".name",
			Message: fmt.Sprintf("expected %q at position %d, got %s", want, i, got),
		})
	}
	return vs
}

// decodePersona copies one persona object, reporting type problems under path.
func decodePersona(v any, path string) (PersonaVerdict, Violations) {
	var (
		p  PersonaVerdict
		vs Violations
	)
	obj, ok := v.(map[string]any)
	if !ok {
		return p, Violations{{Path: path, Message: "expected an object, got " + typeName(v)}}
	}

	var name, verdict string
	name, vs = requireString(obj, "name", path+".name", vs)
	verdict, vs = requireString(obj, "verdict", path+".verdict", vs)
	p.Name = PersonaName(name)
	p.Verdict = Verdict(verdict)
	p.Rationale, vs = requireString(obj, "rationale", path+".rationale", vs)

	raw, present := obj["key_points"]
	items, isArray := raw.([]any)
	switch {
	case !present || raw == nil:
		vs = append(vs, Violation{Path: path + ".key_points", Message: "is required"})
	case !isArray:
		vs = append(vs, Violation{Path: path + ".key_points", Message: "expected an array, got " + typeName(raw)})
	default:
		p.KeyPoints = make([]string, len(items))
		for i, item := range items {
			s, ok := item.(string)
			if !ok {
				vs = append(vs, Violation{
					Path:    fmt.Sprintf("%s.key_points[%d]", path, i),
					Message: "expected a string, got " + typeName(item),
				})
				continue
			}
			p.KeyPoints[i] = s
		}
	}
	return p, vs
}

// requireString reads obj[key] as a string, appending a violation when it is
// missing or of the wrong type.
func requireString(obj map[string]any, key, path string, vs Violations) (string, Violations) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return "", append(vs, Violation{Path: path, Message: "is required"})
	}
	s, ok := raw.(string)
	if !ok {
		return "", append(vs, Violation{Path: path, Message: "expected a string, got " + typeName(raw)})
	}
	return s, vs
}

// fieldViolations runs the struct-tag rules and converts their failures into
// violations ordered by rule priority.
func fieldViolations(res *Result) Violations {
	err := fieldValidator().Struct(res)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Violations{{Path: rootPath, Message: err.Error()}}
	}

	vs := make(Violations, 0, len(fieldErrs))
	ranks := make([]int, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := fieldPath(fe.Namespace())
		vs = append(vs, Violation{Path: path, Message: ruleMessage(fe)})
		ranks = append(ranks, ruleRank(fe.Tag(), path))
	}

	idx := make([]int, len(vs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return ranks[idx[a]] < ranks[idx[b]] })

	ordered := make(Violations, len(vs))
	for i, j := range idx {
		ordered[i] = vs[j]
	}
	return ordered
}

// fieldPath drops the struct name that validator prefixes to namespaces.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// ruleRank orders field-level failures: emptiness and enums first, then the
// shape of key_points, then word ceilings.
func ruleRank(tag, path string) int {
	switch {
	case tag == "maxwords":
		return 3
	case strings.Contains(path, "key_points"):
		return 2
	default:
		return 1
	}
}

// ruleMessage renders a validator failure as a human-readable message.
func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "nonblank":
		return "must not be empty"
	case "oneof":
		return fmt.Sprintf("must be one of %s, got %q", strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "len":
		if v := reflect.ValueOf(fe.Value()); v.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain exactly %s items, got %d", fe.Param(), v.Len())
		}
		return "must have length " + fe.Param()
	case "maxwords":
		s, _ := fe.Value().(string)
		return fmt.Sprintf("must be at most %s words, got %d", fe.Param(), WordCount(s))
	default:
		return fmt.Sprintf("failed %q rule", fe.Tag())
	}
}

// typeName names a JSON-decoded value's type for error messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
