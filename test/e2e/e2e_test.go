//go:build e2e

// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beauty-workers/internal/catalog"
	"beauty-workers/internal/common/camunda"
	"beauty-workers/internal/common/config"
	"beauty-workers/internal/common/database"
	"beauty-workers/internal/common/logger"
	"beauty-workers/internal/matching"
	"beauty-workers/internal/models"
	"beauty-workers/internal/profile"
	"beauty-workers/internal/recommend"
	"beauty-workers/internal/store"
	"beauty-workers/internal/trust"

	scs "beauty-workers/internal/workers/catalog/sync-catalog-service"
	bpp "beauty-workers/internal/workers/onboarding/build-preference-profile"
	gr "beauty-workers/internal/workers/recommendation/generate-recommendations"
	ate "beauty-workers/internal/workers/trust/apply-trust-event"
)

type env struct {
	cfg   *config.Config
	pg    *database.PostgresClient
	rdb   *database.RedisClient
	runID string
}

func TestMain(m *testing.M) {
	if os.Getenv("E2E_ZEEBE_ADDRESS") == "" {
		fmt.Println("E2E_ZEEBE_ADDRESS not set, skipping e2e suite")
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func TestFullE2E(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)

	e := connect(t, ctx, cfg)
	createDatabaseTables(t, ctx, e)
	seedCatalog(t, ctx, e)

	testRecommendationFlow(t, ctx, e)
}

// ==========================
// 1. Connectivity
// ==========================

func connect(t *testing.T, ctx context.Context, cfg *config.Config) *env {
	t.Log("Checking service connectivity...")

	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "PostgreSQL connection failed")
	require.NoError(t, pg.Ping(ctx), "PostgreSQL ping failed")
	t.Cleanup(func() { pg.Close() })

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "Redis client creation failed")
	require.NoError(t, rdb.Ping(ctx), "Redis ping failed")
	t.Cleanup(func() { rdb.Close() })

	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         os.Getenv("E2E_ZEEBE_ADDRESS"),
		UsePlaintextConnection: true,
		RetryConfig:            &camunda.RetryConfig{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 5 * time.Second},
	}, logger.NewTestLogger(t))
	require.NoError(t, err, "Zeebe topology request failed")
	zeebe.Close()

	return &env{cfg: cfg, pg: pg, rdb: rdb, runID: fmt.Sprintf("%d", time.Now().UnixNano())}
}

// ==========================
// 2. Database Tables Setup + Test Data
// ==========================

func createDatabaseTables(t *testing.T, ctx context.Context, e *env) {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS onboarding_submissions (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			answers JSONB NOT NULL,
			submitted_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS onboarding_submissions_user_idx
			ON onboarding_submissions (user_id, submitted_at DESC)`,
		`CREATE TABLE IF NOT EXISTS merchants (
			id VARCHAR(255) PRIMARY KEY,
			name VARCHAR(255),
			active BOOLEAN NOT NULL DEFAULT true
		)`,
		`CREATE TABLE IF NOT EXISTS services (
			id VARCHAR(255) PRIMARY KEY,
			merchant_id VARCHAR(255) NOT NULL REFERENCES merchants(id),
			name VARCHAR(255),
			price_cents BIGINT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			category VARCHAR(50) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT true
		)`,
		`CREATE TABLE IF NOT EXISTS tags (
			id SERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			category VARCHAR(50) NOT NULL,
			UNIQUE (name, category)
		)`,
		`CREATE TABLE IF NOT EXISTS service_tags (
			service_id VARCHAR(255) REFERENCES services(id) ON DELETE CASCADE,
			tag_id INTEGER REFERENCES tags(id),
			PRIMARY KEY (service_id, tag_id)
		)`,
	}

	db := e.pg.GetDB()
	for _, query := range queries {
		_, err := db.ExecContext(ctx, query)
		require.NoError(t, err)
	}
}

func (e *env) id(prefix string) string {
	return prefix + "-" + e.runID
}

func seedCatalog(t *testing.T, ctx context.Context, e *env) {
	db := e.pg.GetDB()
	exec := func(query string, args ...interface{}) {
		_, err := db.ExecContext(ctx, query, args...)
		require.NoError(t, err, query)
	}

	exec(`INSERT INTO merchants (id, name) VALUES ($1, 'Trusted Salon'), ($2, 'Pushy Salon')`,
		e.id("m-trusted"), e.id("m-pushy"))
	exec(`INSERT INTO services (id, merchant_id, name, price_cents, duration_minutes, category) VALUES
		($1, $2, 'Repair treatment', 8500, 60, 'hair'),
		($3, $4, 'Deep conditioning', 7000, 45, 'hair'),
		($5, $2, 'Express facial', 6000, 30, 'facial')`,
		e.id("svc-repair"), e.id("m-trusted"), e.id("svc-condition"), e.id("m-pushy"), e.id("svc-facial"))
	exec(`INSERT INTO tags (name, category) VALUES ('damaged_hair', 'hair_concern'), ('dry_hair', 'hair_concern')
		ON CONFLICT (name, category) DO NOTHING`)
	exec(`INSERT INTO service_tags (service_id, tag_id)
		SELECT $1, id FROM tags WHERE category = 'hair_concern' AND name IN ('damaged_hair', 'dry_hair')`,
		e.id("svc-repair"))
	exec(`INSERT INTO service_tags (service_id, tag_id)
		SELECT $1, id FROM tags WHERE category = 'hair_concern' AND name = 'dry_hair'`,
		e.id("svc-condition"))
}

// ==========================
// 3. Worker Flow
// ==========================

func testRecommendationFlow(t *testing.T, ctx context.Context, e *env) {
	log := logger.NewTestLogger(t)
	repo := store.NewPostgresRepository(e.pg.GetDB())

	matchCfg := matching.ConfigFrom(e.cfg.Matching)
	engine := trust.NewEngine(trust.NewRedisStore(e.rdb.GetClient()), nil, trust.ConfigFrom(e.cfg.Trust, matchCfg.TrustFloor), log)
	merchants, err := repo.Merchants(ctx)
	require.NoError(t, err)
	for _, m := range merchants {
		_, err := engine.Register(ctx, m.ID)
		require.NoError(t, err)
	}

	snapshot, err := repo.CatalogSnapshot(ctx)
	require.NoError(t, err)
	// Earlier runs leave their rows behind; index only this run's services.
	var services []models.Service
	for _, svc := range snapshot {
		if strings.HasSuffix(svc.ID, e.runID) {
			services = append(services, svc)
		}
	}
	require.Len(t, services, 3)
	index := catalog.NewIndex()
	require.NoError(t, index.Load(services))

	builder := profile.NewBuilder(nil, log)
	prefs := store.NewPreferenceStore(repo, builder, e.rdb.GetClient(), time.Minute, log)
	recommender := recommend.NewService(prefs, index, engine, matching.NewEngine(matchCfg, log), recommend.Config{}, log)

	onboarding := bpp.NewHandler(nil, builder, prefs, log)
	recommendations := gr.NewHandler(nil, recommender, log)
	trustEvents := ate.NewHandler(nil, engine, log)
	catalogSync := scs.NewHandler(nil, index, log)

	userID := e.id("user")

	t.Run("build-preference-profile", func(t *testing.T) {
		out, err := onboarding.Execute(ctx, &bpp.Input{
			UserID: userID,
			Answers: map[string]interface{}{
				"service_type":  "hair",
				"hair_concerns": []interface{}{"damaged_hair", "dry_hair"},
				"budget":        "50-100",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, models.FocusHair, out.Preference.ServiceTypeFocus)
	})

	t.Run("generate-recommendations", func(t *testing.T) {
		out, err := recommendations.Execute(ctx, &gr.Input{UserID: userID})
		require.NoError(t, err)
		require.True(t, out.Success)
		require.Len(t, out.Recommendations, 2, "facial service is filtered by focus")
		assert.Equal(t, e.id("svc-repair"), out.Recommendations[0].ServiceID)
	})

	t.Run("apply-trust-event drops merchant below floor", func(t *testing.T) {
		for i := 0; i < 6; i++ {
			_, err := trustEvents.Execute(ctx, &ate.Input{
				Type:       models.EventTypeHardSellReport,
				ID:         fmt.Sprintf("%s-%d", e.id("report"), i),
				MerchantID: e.id("m-pushy"),
				ReporterID: userID,
				Timestamp:  time.Now().UTC(),
			})
			require.NoError(t, err)
		}

		out, err := recommendations.Execute(ctx, &gr.Input{UserID: userID})
		require.NoError(t, err)
		require.Len(t, out.Recommendations, 1)
		assert.Equal(t, e.id("svc-repair"), out.Recommendations[0].ServiceID)
	})

	t.Run("sync-catalog-service", func(t *testing.T) {
		out, err := catalogSync.Execute(ctx, &scs.Input{Action: scs.ActionRemove, Service: models.Service{ID: e.id("svc-repair")}})
		require.NoError(t, err)
		assert.True(t, out.Changed)

		rec, err := recommendations.Execute(ctx, &gr.Input{UserID: userID})
		require.NoError(t, err)
		assert.Empty(t, rec.Recommendations)
	})
}
