package validation

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/input-output-hk/dogstore/domain"
	"github.com/input-output-hk/dogstore/errors"
)

func TestValidate(t *testing.T) {
	v := MustNew()

	tests := []struct {
		name       string
		body       string
		wantFields []string
		wantInput  domain.DogInput
	}{
		{
			name:      "valid payload",
			body:      `{"name":"Rex","breed":"Labrador"}`,
			wantInput: domain.DogInput{Name: "Rex", Breed: "Labrador"},
		},
		{
			name:      "unknown fields are ignored",
			body:      `{"name":"Rex","breed":"Labrador","age":4,"owner":{"name":"Ann"}}`,
			wantInput: domain.DogInput{Name: "Rex", Breed: "Labrador"},
		},
		{
			name:       "missing breed",
			body:       `{"name":"Rex"}`,
			wantFields: []string{"breed"},
		},
		{
			name:       "missing name",
			body:       `{"breed":"Labrador"}`,
			wantFields: []string{"name"},
		},
		{
			name:       "empty object",
			body:       `{}`,
			wantFields: []string{"name", "breed"},
		},
		{
			name:       "empty body",
			body:       ``,
			wantFields: []string{"name", "breed"},
		},
		{
			name:       "whitespace body",
			body:       "  \n\t",
			wantFields: []string{"name", "breed"},
		},
		{
			name:       "malformed json",
			body:       `{"name":`,
			wantFields: []string{"name", "breed"},
		},
		{
			name:       "array body",
			body:       `[{"name":"Rex","breed":"Labrador"}]`,
			wantFields: []string{"name", "breed"},
		},
		{
			name:       "null body",
			body:       `null`,
			wantFields: []string{"name", "breed"},
		},
		{
			name:       "non string name",
			body:       `{"name":42,"breed":"Labrador"}`,
			wantFields: []string{"name"},
		},
		{
			name:       "null breed",
			body:       `{"name":"Rex","breed":null}`,
			wantFields: []string{"breed"},
		},
		{
			name:       "object breed",
			body:       `{"name":"Rex","breed":{"kind":"Labrador"}}`,
			wantFields: []string{"breed"},
		},
		{
			name:       "empty name",
			body:       `{"name":"","breed":"Labrador"}`,
			wantFields: []string{"name"},
		},
		{
			name:       "vertical tab name",
			body:       `{"name":"\u000b","breed":"Labrador"}`,
			wantFields: []string{"name"},
		},
		{
			name:       "no-break space name",
			body:       `{"name":"\u00a0","breed":"Labrador"}`,
			wantFields: []string{"name"},
		},
		{
			name:       "unicode space breed",
			body:       `{"name":"Rex","breed":"\u2003\u3000\u0085"}`,
			wantFields: []string{"breed"},
		},
		{
			name:      "name with inner no-break space",
			body:      `{"name":"Rex\u00a0Jr","breed":"Labrador"}`,
			wantInput: domain.DogInput{Name: "Rex\u00a0Jr", Breed: "Labrador"},
		},
		{
			name:       "blank name and non string breed",
			body:       `{"name":"   ","breed":true}`,
			wantFields: []string{"name", "breed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate([]byte(tt.body))
			if len(tt.wantFields) == 0 {
				require.True(t, res.Valid(), "violations: %v", res.Violations)
				assert.Equal(t, tt.wantInput, res.Input)
				assert.NoError(t, res.Err())
				return
			}
			assert.False(t, res.Valid())
			assert.Equal(t, tt.wantFields, res.Fields())
			assert.Equal(t, errors.CodeSchemaFailed, errors.CodeOf(res.Err()))
		})
	}
}

func TestValidate_Reasons(t *testing.T) {
	res := MustNew().Validate([]byte(`{"name":7}`))

	require.Len(t, res.Violations, 2)
	assert.Equal(t, Violation{Field: "name", Reason: ReasonInvalid}, res.Violations[0])
	assert.Equal(t, Violation{Field: "breed", Reason: ReasonMissing}, res.Violations[1])
}

func TestRequiredFields(t *testing.T) {
	assert.Equal(t, []string{"name", "breed"}, MustNew().RequiredFields())
}

func TestNewWithSchema_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		path string
	}{
		{name: "syntax error", src: `#Dog: {`, path: "#Dog"},
		{name: "missing definition", src: `#Cat: {name: string}`, path: "#Dog"},
		{name: "no fields", src: `#Dog: {...}`, path: "#Dog"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWithSchema(tt.src, tt.path)
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidConfig, errors.CodeOf(err))
		})
	}
}

func TestValidate_Concurrent(t *testing.T) {
	v := MustNew()
	var wg sync.WaitGroup

	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				assert.True(t, v.Validate([]byte(`{"name":"Rex","breed":"Labrador"}`)).Valid())
			} else {
				assert.Equal(t, []string{"breed"}, v.Validate([]byte(`{"name":"Rex"}`)).Fields())
			}
		}()
	}
	wg.Wait()
}

func TestValidate_Properties(t *testing.T) {
	v := MustNew()

	rapid.Check(t, func(t *rapid.T) {
		payload := map[string]any{}
		var want []string

		for _, field := range []string{"name", "breed"} {
			switch rapid.IntRange(0, 3).Draw(t, field+"_kind") {
			case 0: // absent
				want = append(want, field)
			case 1: // non-blank string
				payload[field] = rapid.StringMatching(`\s*[A-Za-z0-9]{1,12}\s*`).Draw(t, field)
			case 2: // blank string
				payload[field] = strings.Repeat(
					rapid.SampledFrom([]string{" ", "\t", "\v", "\u00a0", "\u0085", "\u2003", "\u3000"}).Draw(t, field+"_space"),
					rapid.IntRange(0, 4).Draw(t, field+"_spaces"))
				want = append(want, field)
			case 3: // non-string
				payload[field] = rapid.IntRange(-1000, 1000).Draw(t, field+"_num")
				want = append(want, field)
			}
		}

		body, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}

		res := v.Validate(body)
		if len(want) == 0 {
			if !res.Valid() {
				t.Fatalf("expected valid, got %v for %s", res.Violations, body)
			}
			if res.Input.Name != payload["name"] || res.Input.Breed != payload["breed"] {
				t.Fatalf("decoded %+v from %s", res.Input, body)
			}
			return
		}

		got := res.Fields()
		if len(got) != len(want) {
			t.Fatalf("fields %v, want %v for %s", got, want, body)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("fields %v, want %v for %s", got, want, body)
			}
		}
	})
}
