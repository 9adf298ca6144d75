package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"montaz-workers/pkg/registry"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	return NewValidator(reg)
}

func TestValidateJSON_ComputeCoverage(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name      string
		variables string
		valid     bool
		field     string
	}{
		{
			name:      "project id only",
			variables: `{"projectId":"p-1"}`,
			valid:     true,
		},
		{
			name:      "inline staffing",
			variables: `{"requirements":[{"seniority":"senior","count":2}],"assignedWorkers":[{"id":"w1","seniority":null}]}`,
			valid:     true,
		},
		{
			name:      "unknown tier is not a schema error",
			variables: `{"requirements":[{"seniority":"foreman","count":1}]}`,
			valid:     true,
		},
		{
			name:      "neither project nor requirements",
			variables: `{"assignedWorkers":[]}`,
			valid:     false,
		},
		{
			name:      "fractional count",
			variables: `{"requirements":[{"seniority":"junior","count":1.5}]}`,
			valid:     false,
			field:     "requirements.0.count",
		},
		{
			name:      "count missing",
			variables: `{"requirements":[{"seniority":"junior"}]}`,
			valid:     false,
			field:     "requirements.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.ValidateJSON("compute-coverage", tt.variables)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid, res.Summary())
			if tt.field != "" {
				require.NotEmpty(t, res.Errors)
				assert.Equal(t, tt.field, res.Errors[0].Field)
			}
		})
	}
}

func TestValidateJSON_QueryStaffing(t *testing.T) {
	v := newTestValidator(t)

	res, err := v.ValidateJSON("query-staffing", `{"queryType":"drop_tables","projectId":"p-1"}`)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Summary(), "queryType")
}

func TestValidateJSON_UnknownTaskTypePasses(t *testing.T) {
	v := newTestValidator(t)

	res, err := v.ValidateJSON("no-such-task", `{"anything":true}`)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateJSON_MalformedJSON(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.ValidateJSON("compute-coverage", `{"projectId":`)
	assert.Error(t, err)
}
