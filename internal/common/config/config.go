// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Matching      MatchingConfig          `mapstructure:"matching"`
	Trust         TrustConfig             `mapstructure:"trust"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Metrics       MetricsConfig           `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	URL          string   `mapstructure:"url"`
	CatalogIndex string   `mapstructure:"catalog_index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Recommendation core ---

// Catalog sources for the startup snapshot.
const (
	CatalogSourcePostgres      = "postgres"
	CatalogSourceElasticsearch = "elasticsearch"
)

// Trust store backends.
const (
	TrustStoreMemory = "memory"
	TrustStoreRedis  = "redis"
)

// MatchingConfig holds scoring weights and request limits.
type MatchingConfig struct {
	OverlapWeight    float64 `mapstructure:"overlap_weight"`
	BudgetWeight     float64 `mapstructure:"budget_weight"`
	TrustWeight      float64 `mapstructure:"trust_weight"`
	TrustFloor       float64 `mapstructure:"trust_floor"`
	PageSize         int     `mapstructure:"page_size"`
	ScoringWorkers   int     `mapstructure:"scoring_workers"`
	StoreTimeout     int     `mapstructure:"store_timeout"`     // milliseconds
	PreferenceTTL    int     `mapstructure:"preference_ttl"`    // seconds
	CatalogSource    string  `mapstructure:"catalog_source"`
	CatalogBatchSize int     `mapstructure:"catalog_batch_size"`
}

// TrustConfig holds the trust score state machine parameters.
type TrustConfig struct {
	BaseScore      float64         `mapstructure:"base_score"`
	RatingDeltas   map[int]float64 `mapstructure:"rating_deltas"`
	HardSellDelta  float64         `mapstructure:"hard_sell_delta"`
	MaxRetries     int             `mapstructure:"max_retries"`
	InitialBackoff int             `mapstructure:"initial_backoff"` // milliseconds
	Store          string          `mapstructure:"store"`
}

// NotificationConfig holds settings for the trust floor notifier.
type NotificationConfig struct {
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		Region   string `mapstructure:"region"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds the health/metrics listener settings.
type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

// StoreTimeoutDuration returns the bounded wait for store reads.
func (m MatchingConfig) StoreTimeoutDuration() time.Duration {
	return GetDuration(m.StoreTimeout)
}

// PreferenceTTLDuration returns how long built preferences stay cached.
func (m MatchingConfig) PreferenceTTLDuration() time.Duration {
	return time.Duration(m.PreferenceTTL) * time.Second
}
