package staffing

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"montaz-workers/internal/common/logger"
	"montaz-workers/internal/coverage"
	"montaz-workers/internal/models"
)

func TestMain(m *testing.M) {
	// go-redis keeps a maintenance-notification cleanup loop per client that
	// Close does not stop.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/redis/go-redis/v9/maintnotifications.(*CircuitBreakerManager).cleanupLoop"),
	)
}

var fixedNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func createTestStore(t *testing.T) (*Store, sqlmock.Sqlmock, redismock.ClientMock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mock.MatchExpectationsInOrder(false)

	rdb, redisMock := redismock.NewClientMock()
	t.Cleanup(func() { rdb.Close() })

	store := NewStore(db, rdb, 5*time.Minute, logger.NewTestLogger(t))
	store.now = func() time.Time { return fixedNow }
	return store, mock, redisMock
}

func expectProject(mock sqlmock.Sqlmock, id, name string, requirements interface{}) {
	mock.ExpectQuery(regexp.QuoteMeta(projectQuery)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "staffing_requirements"}).
			AddRow(id, name, requirements))
}

func expectAssignments(mock sqlmock.Sqlmock, id string, rows *sqlmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta(assignmentsQuery)).
		WithArgs(id).
		WillReturnRows(rows)
}

// ============================================================================
// LoadProjectStaffing
// ============================================================================

func TestLoadProjectStaffing_CacheMissLoadsAndCaches(t *testing.T) {
	store, mock, redisMock := createTestStore(t)
	ctx := context.Background()

	expectProject(mock, "p-1", "Bytový dům Karlín",
		`[{"seniority":"senior","count":1},{"seniority":"junior","count":2}]`)
	expectAssignments(mock, "p-1", sqlmock.NewRows([]string{"id", "seniority"}).
		AddRow("w-1", "senior").
		AddRow("w-2", "junior").
		AddRow("w-3", nil))

	want := &models.ProjectStaffing{
		ProjectID:   "p-1",
		ProjectName: "Bytový dům Karlín",
		Requirements: []coverage.Requirement{
			{Seniority: coverage.Senior, Count: 1},
			{Seniority: coverage.Junior, Count: 2},
		},
		Assigned: []coverage.AssignedWorker{
			{ID: "w-1", Seniority: coverage.Senior},
			{ID: "w-2", Seniority: coverage.Junior},
			{ID: "w-3"},
		},
		LoadedAt: fixedNow,
	}
	cached, err := json.Marshal(want)
	require.NoError(t, err)

	redisMock.ExpectGet(CacheKey("p-1")).RedisNil()
	redisMock.ExpectSet(CacheKey("p-1"), cached, 5*time.Minute).SetVal("OK")

	got, err := store.LoadProjectStaffing(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestLoadProjectStaffing_CacheHitSkipsDatabase(t *testing.T) {
	store, mock, redisMock := createTestStore(t)

	staffing := models.ProjectStaffing{
		ProjectID:    "p-2",
		ProjectName:  "Hala Modřice",
		Requirements: []coverage.Requirement{{Seniority: coverage.Medior, Count: 1}},
		Assigned:     []coverage.AssignedWorker{{ID: "w-9", Seniority: coverage.Specialista}},
		LoadedAt:     fixedNow,
	}
	cached, err := json.Marshal(staffing)
	require.NoError(t, err)
	redisMock.ExpectGet(CacheKey("p-2")).SetVal(string(cached))

	got, err := store.LoadProjectStaffing(context.Background(), "p-2")
	require.NoError(t, err)
	assert.Equal(t, &staffing, got)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestLoadProjectStaffing_CacheFailuresAreIgnored(t *testing.T) {
	store, mock, redisMock := createTestStore(t)

	expectProject(mock, "p-3", "Škola Slaný", nil)
	expectAssignments(mock, "p-3", sqlmock.NewRows([]string{"id", "seniority"}))

	redisMock.ExpectGet(CacheKey("p-3")).SetErr(errors.New("connection refused"))
	want := &models.ProjectStaffing{
		ProjectID:    "p-3",
		ProjectName:  "Škola Slaný",
		Requirements: []coverage.Requirement{},
		Assigned:     []coverage.AssignedWorker{},
		LoadedAt:     fixedNow,
	}
	cached, err := json.Marshal(want)
	require.NoError(t, err)
	redisMock.ExpectSet(CacheKey("p-3"), cached, 5*time.Minute).SetErr(errors.New("connection refused"))

	got, err := store.LoadProjectStaffing(context.Background(), "p-3")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestLoadProjectStaffing_CorruptCacheEntryIsReloaded(t *testing.T) {
	store, mock, redisMock := createTestStore(t)

	expectProject(mock, "p-4", "Sklad Kladno", `[{"seniority":"junior","count":1}]`)
	expectAssignments(mock, "p-4", sqlmock.NewRows([]string{"id", "seniority"}).AddRow("w-1", "junior"))

	want := &models.ProjectStaffing{
		ProjectID:    "p-4",
		ProjectName:  "Sklad Kladno",
		Requirements: []coverage.Requirement{{Seniority: coverage.Junior, Count: 1}},
		Assigned:     []coverage.AssignedWorker{{ID: "w-1", Seniority: coverage.Junior}},
		LoadedAt:     fixedNow,
	}
	cached, err := json.Marshal(want)
	require.NoError(t, err)

	redisMock.ExpectGet(CacheKey("p-4")).SetVal("{not json")
	redisMock.ExpectSet(CacheKey("p-4"), cached, 5*time.Minute).SetVal("OK")

	got, err := store.LoadProjectStaffing(context.Background(), "p-4")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestLoadProjectStaffing_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "project not found",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(projectQuery)).
					WithArgs("p-x").
					WillReturnRows(sqlmock.NewRows([]string{"id", "name", "staffing_requirements"}))
				expectAssignments(mock, "p-x", sqlmock.NewRows([]string{"id", "seniority"}))
			},
			wantErr: ErrProjectNotFound,
		},
		{
			name: "requirements are not valid json",
			setup: func(mock sqlmock.Sqlmock) {
				expectProject(mock, "p-x", "Rozbitý", `{"senior":1`)
				expectAssignments(mock, "p-x", sqlmock.NewRows([]string{"id", "seniority"}))
			},
			wantErr: ErrInvalidRequirements,
		},
		{
			name: "project query fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(projectQuery)).
					WithArgs("p-x").
					WillReturnError(errors.New("connection reset"))
				expectAssignments(mock, "p-x", sqlmock.NewRows([]string{"id", "seniority"}))
			},
			wantErr: ErrStaffingLoadFailed,
		},
		{
			name: "assignments query fails",
			setup: func(mock sqlmock.Sqlmock) {
				expectProject(mock, "p-x", "Hala", `[]`)
				mock.ExpectQuery(regexp.QuoteMeta(assignmentsQuery)).
					WithArgs("p-x").
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: ErrStaffingLoadFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock, redisMock := createTestStore(t)
			tt.setup(mock)
			redisMock.ExpectGet(CacheKey("p-x")).RedisNil()

			got, err := store.LoadProjectStaffing(context.Background(), "p-x")
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NoError(t, redisMock.ExpectationsWereMet())
		})
	}
}

func TestLoadProjectStaffing_WithoutCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	expectProject(mock, "p-5", "Bez cache", `[{"seniority":"specialista","count":1}]`)
	expectAssignments(mock, "p-5", sqlmock.NewRows([]string{"id", "seniority"}).AddRow("w-1", "senior"))

	store := NewStore(db, nil, time.Minute, logger.NewNoOpLogger())
	got, err := store.LoadProjectStaffing(context.Background(), "p-5")
	require.NoError(t, err)

	result := coverage.Compute(got.Requirements, got.Assigned)
	assert.Equal(t, coverage.StatusFull, result.Status)
	assert.NoError(t, store.Invalidate(context.Background(), "p-5"))
}

// ============================================================================
// ParseRequirements
// ============================================================================

func TestParseRequirements(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		want    []coverage.Requirement
		wantErr bool
	}{
		{name: "nil", raw: nil, want: []coverage.Requirement{}},
		{name: "json null", raw: []byte("null"), want: []coverage.Requirement{}},
		{name: "empty array", raw: []byte("[]"), want: []coverage.Requirement{}},
		{
			name: "entries",
			raw:  []byte(`[{"seniority":"medior","count":3}]`),
			want: []coverage.Requirement{{Seniority: coverage.Medior, Count: 3}},
		},
		{name: "object instead of array", raw: []byte(`{"medior":3}`), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequirements(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ============================================================================
// ProjectContact / Invalidate
// ============================================================================

func TestProjectContact(t *testing.T) {
	store, mock, _ := createTestStore(t)
	startsOn := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(contactQuery)).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "manager_name", "manager_email", "manager_phone", "starts_on"}).
			AddRow("p-1", "Bytový dům Karlín", "Jana Nováková", "jana@example.cz", nil, startsOn))

	got, err := store.ProjectContact(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Jana Nováková", got.ManagerName)
	assert.Equal(t, "jana@example.cz", got.ManagerEmail)
	assert.Empty(t, got.ManagerPhone)
	require.NotNil(t, got.StartsOn)
	assert.True(t, startsOn.Equal(*got.StartsOn))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectContact_NotFound(t *testing.T) {
	store, mock, _ := createTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(contactQuery)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "manager_name", "manager_email", "manager_phone", "starts_on"}))

	_, err := store.ProjectContact(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestInvalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := NewStore(nil, rdb, time.Minute, logger.NewTestLogger(t))
	require.NoError(t, mr.Set(CacheKey("p-1"), `{"projectId":"p-1"}`))

	require.NoError(t, store.Invalidate(context.Background(), "p-1"))
	assert.False(t, mr.Exists(CacheKey("p-1")))

	// Dropping a missing key is not an error.
	require.NoError(t, store.Invalidate(context.Background(), "p-1"))
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"bad connection", fmt.Errorf("%w: project p-1: %w", ErrStaffingLoadFailed, driver.ErrBadConn), true},
		{"connection done", sql.ErrConnDone, true},
		{"dial failure", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, true},
		{"deadline", fmt.Errorf("%w: %w", ErrStaffingLoadFailed, context.DeadlineExceeded), false},
		{"query failure", fmt.Errorf("%w: %w", ErrStaffingLoadFailed, errors.New("syntax error")), false},
		{"not found", ErrProjectNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConnectionError(tt.err))
		})
	}
}

func TestLoadProjectStaffing_KeepsCause(t *testing.T) {
	store, mock, redisMock := createTestStore(t)
	redisMock.ExpectGet(CacheKey("p-1")).RedisNil()

	refused := &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")}
	mock.ExpectQuery(regexp.QuoteMeta(projectQuery)).WithArgs("p-1").WillReturnError(refused)
	mock.ExpectQuery(regexp.QuoteMeta(assignmentsQuery)).WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "seniority"}))

	_, err := store.LoadProjectStaffing(context.Background(), "p-1")
	assert.ErrorIs(t, err, ErrStaffingLoadFailed)
	assert.ErrorIs(t, err, refused)
	assert.True(t, IsConnectionError(err))
}
