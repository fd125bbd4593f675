// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"beauty-workers/internal/catalog"
	"beauty-workers/internal/common/aws"
	"beauty-workers/internal/common/camunda"
	"beauty-workers/internal/common/config"
	"beauty-workers/internal/common/database"
	"beauty-workers/internal/common/logger"
	"beauty-workers/internal/common/metrics"
	"beauty-workers/internal/common/observability"
	"beauty-workers/internal/matching"
	"beauty-workers/internal/models"
	"beauty-workers/internal/profile"
	"beauty-workers/internal/recommend"
	"beauty-workers/internal/store"
	"beauty-workers/internal/trust"
	"beauty-workers/pkg/registry"

	scs "beauty-workers/internal/workers/catalog/sync-catalog-service"
	bpp "beauty-workers/internal/workers/onboarding/build-preference-profile"
	gr "beauty-workers/internal/workers/recommendation/generate-recommendations"
	ate "beauty-workers/internal/workers/trust/apply-trust-event"
)

// catalogSource yields a full snapshot of bookable services.
type catalogSource interface {
	CatalogSnapshot(ctx context.Context) ([]models.Service, error)
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("worker-manager", log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	repo := store.NewPostgresRepository(pg.GetDB())

	// --- Catalog snapshot source ---
	var source catalogSource = repo
	if cfg.Matching.CatalogSource == config.CatalogSourceElasticsearch {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch, nil)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
		source = store.NewElasticsearchCatalog(esClient.Client, cfg.Database.Elasticsearch.CatalogIndex, cfg.Matching.CatalogBatchSize)
	}

	// --- Trust engine ---
	var trustStore trust.Store = trust.NewMemoryStore()
	if cfg.Trust.Store == config.TrustStoreRedis {
		trustStore = trust.NewRedisStore(rdb.GetClient())
	}

	var notifier trust.Notifier
	if cfg.Notifications.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.SNS.Region, cfg.Notifications.SNS.TopicARN)
		if err != nil {
			zapLog.Fatal("failed to create SNS client", zap.Error(err))
		}
		notifier = trust.NewSNSNotifier(snsClient)
		zapLog.Info("Trust floor notifications enabled", zap.String("topicArn", cfg.Notifications.SNS.TopicARN))
	}

	matchCfg := matching.ConfigFrom(cfg.Matching)
	if err := matchCfg.Validate(); err != nil {
		zapLog.Fatal("invalid matching config", zap.Error(err))
	}
	trustEngine := trust.NewEngine(trustStore, notifier, trust.ConfigFrom(cfg.Trust, matchCfg.TrustFloor), log)

	if err := registerMerchants(ctx, repo, trustEngine); err != nil {
		zapLog.Fatal("failed to register merchants", zap.Error(err))
	}

	index := catalog.NewIndex()
	if err := loadCatalog(ctx, source, index); err != nil {
		zapLog.Fatal("failed to load catalog snapshot", zap.Error(err))
	}
	zapLog.Info("Catalog index loaded",
		zap.String("source", cfg.Matching.CatalogSource),
		zap.Int("services", index.Len()),
	)

	// --- Core services ---
	builder := profile.NewBuilder(nil, log)
	prefs := store.NewPreferenceStore(repo, builder, rdb.GetClient(), cfg.Matching.PreferenceTTLDuration(), log)
	recommender := recommend.NewService(prefs, index, trustEngine, matching.NewEngine(matchCfg, log), recommend.Config{
		PageSize:     cfg.Matching.PageSize,
		StoreTimeout: cfg.Matching.StoreTimeoutDuration(),
	}, log)

	// --- Workers ---
	activities := loadActivityRegistry(zapLog)
	var workers []worker.JobWorker
	start := func(taskType string, handler camunda.HandlerFunc) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		if !wcfg.Enabled {
			log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
			return
		}
		if activities != nil {
			if _, ok := activities.Find(taskType); !ok {
				zapLog.Warn("worker not listed in activity registry", zap.String("taskType", taskType))
			}
		}
		workers = append(workers, camunda.StartWorker(zeebe.GetClient(), camunda.WorkerOptions{
			TaskType:      taskType,
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, handler, obs, log))
	}
	handlerTimeout := func(taskType string) time.Duration {
		return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
	}

	start(bpp.TaskType, bpp.NewHandler(&bpp.Config{Timeout: handlerTimeout(bpp.TaskType)}, builder, prefs, log).Handle)
	start(gr.TaskType, gr.NewHandler(&gr.Config{Timeout: handlerTimeout(gr.TaskType)}, recommender, log).Handle)
	start(ate.TaskType, ate.NewHandler(&ate.Config{Timeout: handlerTimeout(ate.TaskType)}, trustEngine, log).Handle)
	start(scs.TaskType, scs.NewHandler(&scs.Config{Timeout: handlerTimeout(scs.TaskType)}, index, log).Handle)

	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		rctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := zeebe.HealthCheck(rctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not_ready", err)
			return
		}
		if err := pg.Ping(rctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not_ready", err)
			return
		}
		if !index.Loaded() {
			writeStatus(w, http.StatusServiceUnavailable, "not_ready", errors.New("catalog index not loaded"))
			return
		}
		writeStatus(w, http.StatusOK, "ready", nil)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Metrics.Address, Handler: mux}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// registerMerchants seeds the trust engine with every known merchant. Already
// registered merchants keep their score.
func registerMerchants(ctx context.Context, repo *store.PostgresRepository, engine *trust.Engine) error {
	merchants, err := repo.Merchants(ctx)
	if err != nil {
		return err
	}
	for _, m := range merchants {
		if _, err := engine.Register(ctx, m.ID); err != nil {
			return fmt.Errorf("register merchant %s: %w", m.ID, err)
		}
	}
	return nil
}

func loadCatalog(ctx context.Context, source catalogSource, index *catalog.Index) error {
	services, err := source.CatalogSnapshot(ctx)
	if err != nil {
		return err
	}
	if err := index.Load(services); err != nil {
		return err
	}
	metrics.CatalogIndexServices.Set(float64(index.Len()))
	return nil
}

// loadActivityRegistry returns nil when the registry file is missing or
// invalid. Workers still start in that case.
func loadActivityRegistry(log *zap.Logger) *registry.ActivityRegistry {
	path := os.Getenv("ACTIVITY_REGISTRY_PATH")
	if path == "" {
		path = "configs/activity-registry.json"
	}
	reg, err := registry.LoadRegistry(path)
	if err == nil {
		err = reg.Validate()
	}
	if err != nil {
		log.Warn("activity registry unavailable", zap.String("path", path), zap.Error(err))
		return nil
	}
	log.Info("Activity registry loaded", zap.String("version", reg.Version), zap.Int("activities", len(reg.Activities)))
	return reg
}

func writeStatus(w http.ResponseWriter, code int, status string, cause error) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if cause != nil {
		body["error"] = cause.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
