package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryList(t *testing.T) {
	out, err := runCmd(t, "registry", "list")
	require.NoError(t, err)

	for _, taskType := range []string{"compute-coverage", "suggest-candidates", "notify-understaffed", "query-staffing"} {
		assert.Contains(t, out, taskType)
	}
}

func TestRegistryValidate(t *testing.T) {
	out, err := runCmd(t, "registry", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "OK: 4 activities")
}

func TestRegistryValidate_File(t *testing.T) {
	bad := writeFile(t, "activities.json", `{
		"version": "0.1.0",
		"activities": [
			{"id": "a", "taskType": "a", "timeout": "soon"},
			{"id": "a", "taskType": "b"}
		]
	}`)

	_, err := runCmd(t, "registry", "validate", "--path", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate id")
	assert.Contains(t, err.Error(), `invalid timeout "soon"`)

	_, err = runCmd(t, "registry", "list", "--path", "/does/not/exist.json")
	assert.Error(t, err)
}
