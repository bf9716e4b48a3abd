package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/input-output-hk/dogstore/domain"
	"github.com/input-output-hk/dogstore/errors"
)

// DogSchema is the CUE source of the record schema.
const DogSchema = `
#Dog: {
	name:  string & =~"\\S"
	breed: string & =~"\\S"
	...
}
`

// Reasons reported in a Violation.
const (
	ReasonMissing = "required"
	ReasonInvalid = "must be a non-empty string"
)

// Violation describes one invalid field.
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Result is the outcome of validating a payload: either valid, carrying the
// decoded input, or invalid, carrying every violated field.
type Result struct {
	// Input is the decoded payload. Only meaningful when Valid returns true.
	Input domain.DogInput

	// Violations lists every invalid field in schema order.
	Violations []Violation
}

// Valid reports whether the payload satisfied the schema.
func (r Result) Valid() bool {
	return len(r.Violations) == 0
}

// Fields returns the names of the invalid fields in schema order.
func (r Result) Fields() []string {
	fields := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		fields = append(fields, v.Field)
	}
	return fields
}

// Err returns nil for a valid result and a SCHEMA_VALIDATION_FAILED error
// naming the invalid fields otherwise.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return errors.WrapWithContext(
		fmt.Errorf("invalid fields %v", r.Fields()),
		errors.CodeSchemaFailed,
		"validation failed",
		map[string]any{"fields": r.Fields()},
	)
}

// Validator validates payloads against a compiled schema.
type Validator struct {
	// mu serializes access to ctx; a cue.Context is not safe for concurrent use.
	mu sync.Mutex

	ctx    *cue.Context
	fields []string
	rules  map[string]cue.Value
}

// New compiles DogSchema.
func New() (*Validator, error) {
	return NewWithSchema(DogSchema, "#Dog")
}

// MustNew is like New but panics if the schema does not compile.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// NewWithSchema compiles a CUE schema and uses the definition at path as the
// record schema. Every regular field of the definition becomes required.
func NewWithSchema(src, path string) (*Validator, error) {
	ctx := cuecontext.New()

	root := ctx.CompileString(src)
	if err := root.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to compile schema")
	}

	def := root.LookupPath(cue.ParsePath(path))
	if !def.Exists() {
		return nil, errors.New(errors.CodeInvalidConfig, fmt.Sprintf("schema definition %s not found", path))
	}

	iter, err := def.Fields()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to iterate schema fields")
	}

	v := &Validator{
		ctx:   ctx,
		rules: make(map[string]cue.Value),
	}
	for iter.Next() {
		name := iter.Selector().String()
		v.fields = append(v.fields, name)
		v.rules[name] = iter.Value()
	}
	if len(v.fields) == 0 {
		return nil, errors.New(errors.CodeInvalidConfig, fmt.Sprintf("schema definition %s has no fields", path))
	}

	return v, nil
}

// RequiredFields returns the required field names in schema order.
func (v *Validator) RequiredFields() []string {
	return append([]string(nil), v.fields...)
}

// Validate decodes a JSON body and validates it. An empty body, malformed
// JSON, or a JSON value that is not an object fails every required field.
func (v *Validator) Validate(body []byte) Result {
	if len(bytes.TrimSpace(body)) == 0 {
		return v.allMissing()
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return v.allMissing()
	}

	return v.ValidateValue(payload)
}

// ValidateValue validates an already decoded payload.
func (v *Validator) ValidateValue(payload any) Result {
	obj, ok := payload.(map[string]any)
	if !ok {
		return v.allMissing()
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	var res Result
	values := make(map[string]string, len(v.fields))
	for _, field := range v.fields {
		raw, present := obj[field]
		if !present {
			res.Violations = append(res.Violations, Violation{Field: field, Reason: ReasonMissing})
			continue
		}

		unified := v.rules[field].Unify(v.ctx.Encode(raw))
		if err := unified.Validate(cue.Concrete(true)); err != nil {
			res.Violations = append(res.Violations, Violation{Field: field, Reason: ReasonInvalid})
			continue
		}

		// The schema regex only knows ASCII whitespace; blankness is decided
		// the same way as the workflow entry guard.
		s, err := unified.String()
		if err != nil || strings.TrimSpace(s) == "" {
			res.Violations = append(res.Violations, Violation{Field: field, Reason: ReasonInvalid})
			continue
		}
		values[field] = s
	}

	if res.Valid() {
		res.Input = domain.DogInput{
			Name:  values["name"],
			Breed: values["breed"],
		}
	}
	return res
}

func (v *Validator) allMissing() Result {
	res := Result{Violations: make([]Violation, 0, len(v.fields))}
	for _, field := range v.fields {
		res.Violations = append(res.Violations, Violation{Field: field, Reason: ReasonMissing})
	}
	return res
}
