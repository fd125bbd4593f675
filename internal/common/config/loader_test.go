package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: ${TEST_DB_HOST}
    port: 5432
    database: beauty
    user: beauty
  redis:
    address: localhost:6379
workers:
  generate-recommendations:
    enabled: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "db.internal")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, 25, cfg.Database.Postgres.MaxConnections)

	assert.Equal(t, 0.5, cfg.Matching.OverlapWeight)
	assert.Equal(t, 0.25, cfg.Matching.BudgetWeight)
	assert.Equal(t, 0.25, cfg.Matching.TrustWeight)
	assert.Equal(t, 50.0, cfg.Matching.TrustFloor)
	assert.Equal(t, 6, cfg.Matching.PageSize)
	assert.Equal(t, CatalogSourcePostgres, cfg.Matching.CatalogSource)
	assert.Equal(t, 2*time.Second, cfg.Matching.StoreTimeoutDuration())
	assert.Equal(t, 10*time.Minute, cfg.Matching.PreferenceTTLDuration())

	assert.Equal(t, 100.0, cfg.Trust.BaseScore)
	assert.Equal(t, map[int]float64{5: 5}, cfg.Trust.RatingDeltas)
	assert.Equal(t, -10.0, cfg.Trust.HardSellDelta)
	assert.Equal(t, 3, cfg.Trust.MaxRetries)
	assert.Equal(t, TrustStoreRedis, cfg.Trust.Store)

	wc := cfg.Workers["generate-recommendations"]
	assert.True(t, wc.Enabled)
	assert.Equal(t, 5, wc.MaxJobsActive)
	assert.Equal(t, 30000, wc.Timeout)
	assert.Equal(t, ":8080", cfg.Metrics.Address)
}

func TestLoadFromFile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		wantErr string
	}{
		{
			name: "weights must sum to one",
			extra: `
matching:
  overlap_weight: 0.6
  budget_weight: 0.3
  trust_weight: 0.3
`,
			wantErr: "must sum to 1",
		},
		{
			name: "unknown catalog source",
			extra: `
matching:
  catalog_source: mongo
`,
			wantErr: "catalog_source",
		},
		{
			name: "elasticsearch source needs address",
			extra: `
matching:
  catalog_source: elasticsearch
`,
			wantErr: "elasticsearch",
		},
		{
			name: "trust floor out of range",
			extra: `
matching:
  trust_floor: 150
`,
			wantErr: "trust_floor",
		},
		{
			name: "unknown trust store",
			extra: `
trust:
  store: etcd
`,
			wantErr: "trust.store",
		},
		{
			name: "sns enabled without topic",
			extra: `
notifications:
  sns:
    enabled: true
`,
			wantErr: "topic_arn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DB_HOST", "db.internal")
			t.Setenv("TRUST_ALERT_TOPIC_ARN", "")

			_, err := LoadFromFile(writeConfig(t, minimalYAML+tt.extra))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingBroker(t *testing.T) {
	_, err := LoadFromFile(writeConfig(t, `
database:
  postgres:
    host: localhost
    database: beauty
    user: beauty
  redis:
    address: localhost:6379
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "camunda.broker_address")
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"apply-trust-event": {Enabled: false, MaxJobsActive: 2, Timeout: 1000, MaxRetries: 1},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "apply-trust-event"))
	assert.True(t, IsWorkerEnabled(cfg, "generate-recommendations"))

	fallback := GetWorkerConfig(cfg, "generate-recommendations")
	assert.True(t, fallback.Enabled)
	assert.Equal(t, 5, fallback.MaxJobsActive)
	assert.Equal(t, 500*time.Millisecond, GetDuration(500))
}
