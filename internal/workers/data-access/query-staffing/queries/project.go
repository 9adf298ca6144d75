package queries

import (
	"context"
	"time"
)

// ProjectStaffing returns requirements and active assignments; rowCount is
// the number of assigned workers.
func ProjectStaffing(ctx context.Context, src Source, params map[string]interface{}) (interface{}, int, int64, error) {
	projectID, ok := params["projectId"].(string)
	if !ok || projectID == "" {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()
	staffing, err := src.LoadProjectStaffing(ctx, projectID)
	if err != nil {
		return nil, 0, 0, err
	}
	return staffing, len(staffing.Assigned), time.Since(start).Milliseconds(), nil
}

func ProjectContact(ctx context.Context, src Source, params map[string]interface{}) (interface{}, int, int64, error) {
	projectID, ok := params["projectId"].(string)
	if !ok || projectID == "" {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()
	contact, err := src.ProjectContact(ctx, projectID)
	if err != nil {
		return nil, 0, 0, err
	}
	return contact, 1, time.Since(start).Milliseconds(), nil
}
