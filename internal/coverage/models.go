// internal/coverage/models.go
package coverage

// Requirement is one {tier, count} entry of a project's staffing needs.
// Raw input may repeat a tier; entries are summed.
type Requirement struct {
	Seniority Tier `json:"seniority" yaml:"seniority"`
	Count     int  `json:"count" yaml:"count"`
}

// AssignedWorker is a worker reduced to what coverage needs. An empty
// Seniority means none was recorded and the worker fills no slot.
type AssignedWorker struct {
	ID        string `json:"id,omitempty" yaml:"id,omitempty"`
	Seniority Tier   `json:"seniority,omitempty" yaml:"seniority,omitempty"`
}

// Status classifies overall fulfillment.
type Status string

const (
	StatusFull        Status = "full"
	StatusComposition Status = "composition"
	StatusPartial     Status = "partial"
	StatusNone        Status = "none"
)

// TierStatus classifies fulfillment of a single tier.
type TierStatus string

const (
	TierFull    TierStatus = "full"
	TierPartial TierStatus = "partial"
	TierNone    TierStatus = "none"
)

// TierCoverage is the per-tier breakdown of a Result.
type TierCoverage struct {
	Seniority Tier       `json:"seniority"`
	Required  int        `json:"required"`
	Assigned  int        `json:"assigned"`
	Covered   int        `json:"covered"`
	Missing   int        `json:"missing"`
	Status    TierStatus `json:"status"`
}

// Result is the derived coverage view. It is never persisted.
type Result struct {
	Status   Status         `json:"status"`
	Filled   int            `json:"filled"`
	Required int            `json:"required"`
	Missing  []Tier         `json:"missing"`
	Coverage []TierCoverage `json:"coverage"`
}

// Shortfall is the number of unfilled positions.
func (r Result) Shortfall() int {
	return len(r.Missing)
}

// MissingByTier counts missing slots per tier.
func (r Result) MissingByTier() map[Tier]int {
	out := make(map[Tier]int, len(r.Missing))
	for _, t := range r.Missing {
		out[t]++
	}
	return out
}

// Understaffed reports whether any required position is unfilled.
func (r Result) Understaffed() bool {
	return r.Status != StatusFull
}
