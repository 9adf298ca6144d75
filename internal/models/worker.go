// internal/models/worker.go
package models

import "montaz-workers/internal/coverage"

// Worker is an employee as indexed for candidate search.
type Worker struct {
	ID        string        `json:"id"`
	FullName  string        `json:"fullName"`
	Seniority coverage.Tier `json:"seniority,omitempty"`
	Phone     string        `json:"phone,omitempty"`
	Active    bool          `json:"active"`
}

// Candidate is a worker proposed for a missing slot, with the search score.
type Candidate struct {
	ID        string        `json:"id"`
	FullName  string        `json:"fullName"`
	Seniority coverage.Tier `json:"seniority"`
	Phone     string        `json:"phone,omitempty"`
	Score     float64       `json:"score"`
}
