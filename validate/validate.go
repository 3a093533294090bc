// Package validate checks inbound payloads against schemas reflected from
// the request types in core, before any handler acts on them.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/lborres/guildhall/core"
)

var printer = message.NewPrinter(language.English)

// Validator holds one compiled schema per payload type.
// It is immutable after New and safe for concurrent use.
type Validator struct {
	schemas map[reflect.Type]*jschema.Schema
}

// payloads lists every request body the HTTP surface accepts.
var payloads = []any{
	core.SignUpInput{},
	core.SignInInput{},
	core.ProfileUpdate{},
	core.ReauthInput{},
	core.CharacterInput{},
	core.ItemInput{},
	core.ItemUpdate{},
}

func New() (*Validator, error) {
	v := &Validator{schemas: make(map[reflect.Type]*jschema.Schema, len(payloads))}
	for _, p := range payloads {
		if err := v.register(p); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Schema returns the JSON Schema document generated for payload type T.
func Schema[T any]() ([]byte, error) {
	var zero T
	return json.Marshal(reflectSchema(zero))
}

func reflectSchema(payload any) *jsonschema.Schema {
	r := jsonschema.Reflector{
		DoNotReference:             true,
		Anonymous:                  true,
		RequiredFromJSONSchemaTags: true,
	}
	return r.Reflect(payload)
}

func (v *Validator) register(payload any) error {
	t := reflect.TypeOf(payload)
	name := strings.ToLower(t.Name()) + ".json"

	data, err := json.Marshal(reflectSchema(payload))
	if err != nil {
		return fmt.Errorf("failed to marshal schema %s: %w", name, err)
	}

	doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to parse schema %s: %w", name, err)
	}

	c := jschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(name, doc); err != nil {
		return fmt.Errorf("failed to add schema resource %s: %w", name, err)
	}

	sch, err := c.Compile(name)
	if err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	v.schemas[t] = sch
	return nil
}

// Decode validates body against the schema for T and returns the typed
// payload. Any failure is a *core.ValidationError listing every violation.
func Decode[T any](v *Validator, body []byte) (T, error) {
	var out T

	sch, ok := v.schemas[reflect.TypeOf(out)]
	if !ok {
		return out, fmt.Errorf("no schema registered for %T", out)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return out, core.NewValidationError(core.Violation{
			Rule:    "required",
			Message: "request body is required",
		})
	}

	inst, err := jschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return out, core.NewValidationError(core.Violation{
			Rule:    "json",
			Message: "request body must be a JSON object",
		})
	}

	if err := sch.Validate(inst); err != nil {
		verr, ok := err.(*jschema.ValidationError)
		if !ok {
			return out, fmt.Errorf("schema validation: %w", err)
		}
		return out, core.NewValidationError(violations(verr)...)
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return out, core.NewValidationError(core.Violation{
			Rule:    "type",
			Message: "request body does not match the expected shape",
		})
	}

	if e, ok := any(out).(interface{ Empty() bool }); ok && e.Empty() {
		return out, core.NewValidationError(core.Violation{
			Rule:    "minProperties",
			Message: "at least one field is required",
		})
	}

	return out, nil
}

// violations flattens the leaves of a validation error tree.
func violations(root *jschema.ValidationError) []core.Violation {
	var out []core.Violation

	var walk func(e *jschema.ValidationError)
	walk = func(e *jschema.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, leaf(e)...)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(root)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func leaf(e *jschema.ValidationError) []core.Violation {
	field := strings.Join(e.InstanceLocation, ".")

	switch k := e.ErrorKind.(type) {
	case *kind.Required:
		out := make([]core.Violation, 0, len(k.Missing))
		for _, m := range k.Missing {
			out = append(out, core.Violation{Field: join(field, m), Rule: "required", Message: "is required"})
		}
		return out
	case *kind.AdditionalProperties:
		out := make([]core.Violation, 0, len(k.Properties))
		for _, p := range k.Properties {
			out = append(out, core.Violation{Field: join(field, p), Rule: "unknown", Message: "is not allowed"})
		}
		return out
	}

	rule := "invalid"
	if path := e.ErrorKind.KeywordPath(); len(path) > 0 {
		rule = path[len(path)-1]
	}
	return []core.Violation{{
		Field:   field,
		Rule:    rule,
		Message: e.ErrorKind.LocalizedString(printer),
	}}
}

func join(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}
