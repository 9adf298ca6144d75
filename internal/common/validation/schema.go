package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"montaz-workers/pkg/registry"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Summary joins the errors into one line for job error messages.
func (r *ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

// Validator checks job variables against the input schemas of a registry.
// Schemas are compiled on first use and cached.
type Validator struct {
	reg *registry.ActivityRegistry

	mu      sync.Mutex
	schemas map[string]*gojsonschema.Schema
}

func NewValidator(reg *registry.ActivityRegistry) *Validator {
	return &Validator{
		reg:     reg,
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// ValidateJSON validates raw job variables for taskType. Task types without a
// registered schema pass.
func (v *Validator) ValidateJSON(taskType, variables string) (*ValidationResult, error) {
	schema, err := v.schema(taskType)
	if err != nil {
		return nil, err
	}
	if schema == nil {
		return &ValidationResult{Valid: true}, nil
	}

	res, err := schema.Validate(gojsonschema.NewStringLoader(variables))
	if err != nil {
		return nil, fmt.Errorf("validate %s input: %w", taskType, err)
	}
	return toResult(res), nil
}

func (v *Validator) schema(taskType string) (*gojsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.schemas[taskType]; ok {
		return s, nil
	}

	activity, ok := v.reg.Find(taskType)
	if !ok || activity.InputSchema == nil {
		v.schemas[taskType] = nil
		return nil, nil
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(activity.InputSchema))
	if err != nil {
		return nil, fmt.Errorf("compile %s input schema: %w", taskType, err)
	}
	v.schemas[taskType] = s
	return s, nil
}

func toResult(res *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: res.Valid()}
	for _, e := range res.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    strings.ToUpper(e.Type()),
		})
	}
	return out
}
