// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
app:
  name: montaz-workers
camunda:
  broker_address: ${TEST_BROKER_ADDRESS}
database:
  postgres:
    host: localhost
    database: montaz
    user: montaz
  elasticsearch:
    url: http://localhost:9200
  redis:
    address: localhost:6379
workers:
  compute-coverage:
    enabled: true
    max_jobs_active: 8
  notify-understaffed:
    enabled: false
staffing:
  candidates_per_slot: 4
notifications:
  sms:
    statuses: [none, partial]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile_Success(t *testing.T) {
	t.Setenv("TEST_BROKER_ADDRESS", "zeebe:26500")

	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "zeebe:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Database.Elasticsearch.GetAddresses())
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, 4, cfg.Staffing.CandidatesPerSlot)
	assert.Equal(t, 50, cfg.Staffing.MaxCandidates)
	assert.Equal(t, "workers", cfg.Staffing.CandidateIndex)
	assert.Equal(t, []string{"none", "partial"}, cfg.Notifications.SMS.Statuses)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_WorkerDefaults(t *testing.T) {
	t.Setenv("TEST_BROKER_ADDRESS", "zeebe:26500")

	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	wc := GetWorkerConfig(cfg, "compute-coverage")
	assert.True(t, wc.Enabled)
	assert.Equal(t, 8, wc.MaxJobsActive)
	assert.Equal(t, 30000, wc.Timeout)
	assert.Equal(t, 3, wc.MaxRetries)

	assert.False(t, IsWorkerEnabled(cfg, "notify-understaffed"))
	assert.True(t, IsWorkerEnabled(cfg, "suggest-candidates"))
	assert.Equal(t, 5, GetWorkerConfig(cfg, "suggest-candidates").MaxJobsActive)
}

func TestLoadFromFile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "missing broker",
			content: "database:\n  postgres:\n    host: h\n",
			errMsg:  "camunda.broker_address is required",
		},
		{
			name: "missing elasticsearch",
			content: `
camunda:
  broker_address: zeebe:26500
database:
  postgres: {host: h, database: d, user: u}
  redis: {address: r:6379}
`,
			errMsg: "database.elasticsearch.addresses or url is required",
		},
		{
			name: "negative candidate limit",
			content: `
camunda:
  broker_address: zeebe:26500
database:
  postgres: {host: h, database: d, user: u}
  elasticsearch: {url: http://es:9200}
  redis: {address: r:6379}
staffing:
  max_candidates: -1
`,
			errMsg: "staffing candidate limits must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5432, User: "montaz", Password: "secret", Database: "montaz", SSLMode: "disable"}
	assert.Equal(t,
		"host=db port=5432 user=montaz password=secret dbname=montaz sslmode=disable application_name=montaz-workers",
		cfg.GetDSN())

	cfg.StatementTimeout = 4000
	assert.Contains(t, cfg.GetDSN(), "options='-c statement_timeout=4000'")
}
