package queries

import (
	"context"
	"errors"
	"fmt"

	"montaz-workers/internal/models"
)

var (
	ErrMissingParam     = errors.New("missing required parameter")
	ErrUnknownQueryType = errors.New("unknown query type")
)

// Source is satisfied by *staffing.Store.
type Source interface {
	LoadProjectStaffing(ctx context.Context, projectID string) (*models.ProjectStaffing, error)
	ProjectContact(ctx context.Context, projectID string) (*models.ProjectContact, error)
}

type QueryFunc func(ctx context.Context, src Source, params map[string]interface{}) (interface{}, int, int64, error)

var Registry = map[models.QueryType]QueryFunc{
	models.QueryTypeProjectStaffing: ProjectStaffing,
	models.QueryTypeProjectContact:  ProjectContact,
}

func Execute(ctx context.Context, src Source, queryType models.QueryType, params map[string]interface{}) (interface{}, int, int64, error) {
	fn, exists := Registry[queryType]
	if !exists {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnknownQueryType, queryType)
	}
	return fn(ctx, src, params)
}
