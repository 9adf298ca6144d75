// internal/workers/staffing/compute-coverage/models.go
package computecoverage

import (
	"time"

	"montaz-workers/internal/coverage"
)

// Input carries either explicit staffing or a project to load it for.
// Explicit requirements or workers take precedence over stored ones.
type Input struct {
	ProjectID       string                    `json:"projectId,omitempty"`
	Requirements    []coverage.Requirement    `json:"requirements,omitempty"`
	AssignedWorkers []coverage.AssignedWorker `json:"assignedWorkers,omitempty"`
}

type Output struct {
	ProjectID         string          `json:"projectId,omitempty"`
	ProjectName       string          `json:"projectName,omitempty"`
	Coverage          coverage.Result `json:"coverage"`
	Understaffed      bool            `json:"understaffed"`
	AssignedWorkerIDs []string        `json:"assignedWorkerIds"`
	EvaluatedAt       time.Time       `json:"evaluatedAt"`
}
