// internal/models/project.go
package models

import (
	"time"

	"montaz-workers/internal/coverage"
)

// ProjectStaffing is what coverage needs to know about one project.
type ProjectStaffing struct {
	ProjectID    string                    `json:"projectId"`
	ProjectName  string                    `json:"projectName"`
	Requirements []coverage.Requirement    `json:"requirements"`
	Assigned     []coverage.AssignedWorker `json:"assignedWorkers"`
	LoadedAt     time.Time                 `json:"loadedAt"`
}

// ProjectContact identifies who answers for a project's staffing.
type ProjectContact struct {
	ProjectID    string     `json:"projectId"`
	ProjectName  string     `json:"projectName"`
	ManagerName  string     `json:"managerName"`
	ManagerEmail string     `json:"managerEmail"`
	ManagerPhone string     `json:"managerPhone"`
	StartsOn     *time.Time `json:"startsOn,omitempty"`
}
