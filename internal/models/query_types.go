// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypeProjectStaffing QueryType = "project_staffing"
	QueryTypeProjectContact  QueryType = "project_contact"
)
