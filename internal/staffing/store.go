// internal/staffing/store.go
package staffing

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"montaz-workers/internal/common/logger"
	"montaz-workers/internal/common/metrics"
	"montaz-workers/internal/coverage"
	"montaz-workers/internal/models"
)

var (
	ErrProjectNotFound     = errors.New("PROJECT_NOT_FOUND")
	ErrInvalidRequirements = errors.New("INVALID_STAFFING_INPUT")
	ErrStaffingLoadFailed  = errors.New("STAFFING_LOAD_FAILED")
)

const cacheKeyPrefix = "project:staffing:"

const (
	projectQuery = `SELECT id, name, staffing_requirements FROM projects WHERE id = $1`

	// An assignment without an end date is open-ended.
	assignmentsQuery = `SELECT w.id, w.seniority FROM project_assignments pa ` +
		`JOIN workers w ON w.id = pa.worker_id ` +
		`WHERE pa.project_id = $1 AND (pa.assigned_to IS NULL OR pa.assigned_to >= CURRENT_DATE) ` +
		`ORDER BY w.id`

	contactQuery = `SELECT id, name, manager_name, manager_email, manager_phone, starts_on FROM projects WHERE id = $1`
)

// Store loads project staffing from PostgreSQL behind a Redis read-through cache.
type Store struct {
	db     *sql.DB
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
	now    func() time.Time
}

// NewStore returns a Store. A nil redis client disables caching.
func NewStore(db *sql.DB, rdb *redis.Client, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		db:     db,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "staffing-store"}),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func CacheKey(projectID string) string {
	return cacheKeyPrefix + projectID
}

// LoadProjectStaffing returns the requirements and active assignments of a project.
// Cache failures are logged and never fail the load.
func (s *Store) LoadProjectStaffing(ctx context.Context, projectID string) (*models.ProjectStaffing, error) {
	if cached, ok := s.fromCache(ctx, projectID); ok {
		return cached, nil
	}

	staffing := &models.ProjectStaffing{ProjectID: projectID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.loadProject(gctx, staffing)
	})

	var assigned []coverage.AssignedWorker
	g.Go(func() error {
		var err error
		assigned, err = s.loadAssignments(gctx, projectID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	staffing.Assigned = assigned
	staffing.LoadedAt = s.now()

	s.toCache(ctx, staffing)
	return staffing, nil
}

func (s *Store) loadProject(ctx context.Context, staffing *models.ProjectStaffing) error {
	var raw []byte
	err := s.db.QueryRowContext(ctx, projectQuery, staffing.ProjectID).
		Scan(&staffing.ProjectID, &staffing.ProjectName, &raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrProjectNotFound, staffing.ProjectID)
		}
		return fmt.Errorf("%w: project %s: %w", ErrStaffingLoadFailed, staffing.ProjectID, err)
	}

	requirements, err := ParseRequirements(raw)
	if err != nil {
		return fmt.Errorf("%w: project %s: %v", ErrInvalidRequirements, staffing.ProjectID, err)
	}
	staffing.Requirements = requirements
	return nil
}

func (s *Store) loadAssignments(ctx context.Context, projectID string) ([]coverage.AssignedWorker, error) {
	rows, err := s.db.QueryContext(ctx, assignmentsQuery, projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: assignments of %s: %w", ErrStaffingLoadFailed, projectID, err)
	}
	defer rows.Close()

	assigned := []coverage.AssignedWorker{}
	for rows.Next() {
		var (
			id        string
			seniority sql.NullString
		)
		if err := rows.Scan(&id, &seniority); err != nil {
			return nil, fmt.Errorf("%w: assignments of %s: %w", ErrStaffingLoadFailed, projectID, err)
		}
		assigned = append(assigned, coverage.AssignedWorker{
			ID:        id,
			Seniority: coverage.Tier(seniority.String),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: assignments of %s: %w", ErrStaffingLoadFailed, projectID, err)
	}
	return assigned, nil
}

// IsConnectionError reports whether a load failed because the database could
// not be reached, as opposed to a failing query.
func IsConnectionError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr)
}

// ParseRequirements decodes the staffing_requirements column. NULL or empty
// means nothing is required.
func ParseRequirements(raw []byte) ([]coverage.Requirement, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []coverage.Requirement{}, nil
	}
	var requirements []coverage.Requirement
	if err := json.Unmarshal(raw, &requirements); err != nil {
		return nil, err
	}
	return requirements, nil
}

// ProjectContact returns the project's name and manager contact.
func (s *Store) ProjectContact(ctx context.Context, projectID string) (*models.ProjectContact, error) {
	var (
		contact                   models.ProjectContact
		managerName, email, phone sql.NullString
		startsOn                  sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, contactQuery, projectID).
		Scan(&contact.ProjectID, &contact.ProjectName, &managerName, &email, &phone, &startsOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
		}
		return nil, fmt.Errorf("%w: contact of %s: %w", ErrStaffingLoadFailed, projectID, err)
	}

	contact.ManagerName = managerName.String
	contact.ManagerEmail = email.String
	contact.ManagerPhone = phone.String
	if startsOn.Valid {
		t := startsOn.Time
		contact.StartsOn = &t
	}
	return &contact, nil
}

// Invalidate drops the cached staffing of a project.
func (s *Store) Invalidate(ctx context.Context, projectID string) error {
	if s.redis == nil {
		return nil
	}
	if err := s.redis.Del(ctx, CacheKey(projectID)).Err(); err != nil {
		return fmt.Errorf("invalidate staffing of %s: %w", projectID, err)
	}
	return nil
}

func (s *Store) fromCache(ctx context.Context, projectID string) (*models.ProjectStaffing, bool) {
	if s.redis == nil {
		return nil, false
	}

	val, err := s.redis.Get(ctx, CacheKey(projectID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.StaffingCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	case err != nil:
		metrics.StaffingCacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("staffing cache read failed", map[string]interface{}{
			"projectId": projectID,
			"error":     err.Error(),
		})
		return nil, false
	}

	var staffing models.ProjectStaffing
	if err := json.Unmarshal(val, &staffing); err != nil {
		metrics.StaffingCacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("discarding unreadable staffing cache entry", map[string]interface{}{
			"projectId": projectID,
			"error":     err.Error(),
		})
		return nil, false
	}

	metrics.StaffingCacheLookups.WithLabelValues("hit").Inc()
	return &staffing, true
}

func (s *Store) toCache(ctx context.Context, staffing *models.ProjectStaffing) {
	if s.redis == nil || s.ttl <= 0 {
		return
	}

	data, err := json.Marshal(staffing)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, CacheKey(staffing.ProjectID), data, s.ttl).Err(); err != nil {
		s.logger.Warn("staffing cache write failed", map[string]interface{}{
			"projectId": staffing.ProjectID,
			"error":     err.Error(),
		})
	}
}
