package querystaffing

import "montaz-workers/internal/models"

type Input struct {
	QueryType string `json:"queryType"`
	ProjectID string `json:"projectId"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}

type QueryType = models.QueryType

var (
	QueryTypeProjectStaffing = models.QueryTypeProjectStaffing
	QueryTypeProjectContact  = models.QueryTypeProjectContact
)
