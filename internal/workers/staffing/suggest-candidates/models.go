// internal/workers/staffing/suggest-candidates/models.go
package suggestcandidates

import (
	"montaz-workers/internal/coverage"
	"montaz-workers/internal/models"
)

type Input struct {
	ProjectID        string          `json:"projectId,omitempty"`
	Missing          []coverage.Tier `json:"missing"`
	ExcludeWorkerIDs []string        `json:"excludeWorkerIds,omitempty"`
	PerSlot          int             `json:"perSlot,omitempty"`
}

type Output struct {
	Candidates []TierCandidates `json:"candidates"`
	TotalFound int              `json:"totalFound"`
}

// TierCandidates are the proposals for the missing slots of one tier.
type TierCandidates struct {
	Tier    coverage.Tier      `json:"tier"`
	Needed  int                `json:"needed"`
	Workers []models.Candidate `json:"workers"`
}
