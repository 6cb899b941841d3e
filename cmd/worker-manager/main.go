// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	awsclients "fundmatch-workers/internal/common/aws"
	"fundmatch-workers/internal/common/camunda"
	"fundmatch-workers/internal/common/config"
	"fundmatch-workers/internal/common/database"
	"fundmatch-workers/internal/common/logger"
	"fundmatch-workers/internal/common/observability"

	"fundmatch-workers/internal/discovery"
	"fundmatch-workers/internal/matching"
	"fundmatch-workers/internal/notify"
	"fundmatch-workers/internal/profiles"
	"fundmatch-workers/internal/quota"
	"fundmatch-workers/internal/scoring"

	// Matching Workers (5)
	dc "fundmatch-workers/internal/workers/matching/discover-candidates"
	esl "fundmatch-workers/internal/workers/matching/escalate-super-like"
	lm "fundmatch-workers/internal/workers/matching/list-matches"
	pmc "fundmatch-workers/internal/workers/matching/parse-match-criteria"
	ps "fundmatch-workers/internal/workers/matching/process-swipe"

	// Data Access Workers (1)
	sp "fundmatch-workers/internal/workers/data-access/search-profiles"

	// Infrastructure Workers (1)
	cuq "fundmatch-workers/internal/workers/infrastructure/check-usage-quota"

	// Engagement Workers (1)
	sma "fundmatch-workers/internal/workers/engagement/send-match-alert"
)

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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer func() { _ = zapLog.Sync() }()

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Swap the bootstrap logger for the configured one.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Configuration loaded",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Camunda Client with retry ---
	// NewClientWithConfig probes broker topology, so the retry loop also
	// covers a broker that is still coming up.
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Camunda client initialization")

	if err != nil {
		zapLog.Fatal("camunda client failed after retries", zap.Error(err))
	}
	zapLog.Info("Camunda client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Build Domain Services ---
	// Profile reads go through the Redis cache, tier lookups feed the quota
	// service, and the webhook client doubles as chat-room creator and
	// match notifier for the swipe pipeline.
	profileStore := profiles.NewStore(
		pg.DB, redis.Client,
		config.GetDuration(cfg.Matching.ProfileCacheTTL),
		config.GetDuration(cfg.Matching.TierCacheTTL),
		log,
	)
	quotaService := quota.NewService(redis.Client, profileStore, cfg.Quota.KeyPrefix, log)
	scoreEngine := scoring.NewEngine(nil)
	webhookClient := notify.NewWebhookClient(cfg.Notifications, log)

	matchStore := matching.NewStore(pg.DB, log)
	matchService := matching.NewService(matchStore, profileStore, scoreEngine, quotaService, webhookClient, webhookClient, log)
	discoveryService := discovery.NewService(profileStore, scoreEngine, quotaService, cfg.Matching, log)

	zapLog.Info("Domain services initialized")

	// --- START: Register ALL 8 Workers ---
	var workers []*camunda.Worker
	var alertHandler *sma.Handler

	// --- 1. Matching Workers (5) ---
	// Workers missing from config default to enabled so an env-only
	// deployment still runs the full set.
	if config.IsWorkerEnabled(cfg, pmc.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, pmc.TaskType)
		handler := pmc.NewHandler(
			&pmc.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			log,
		)
		workers = append(workers, startWorker(camundaClient, pmc.TaskType, wcfg, handler, obs, zapLog))
	}

	if config.IsWorkerEnabled(cfg, dc.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, dc.TaskType)
		handler := dc.NewHandler(
			&dc.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			discoveryService, quotaService, log,
		)
		workers = append(workers, startWorker(camundaClient, dc.TaskType, wcfg, handler, obs, zapLog))
	}

	if config.IsWorkerEnabled(cfg, ps.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, ps.TaskType)
		handler := ps.NewHandler(
			&ps.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			matchService, log,
		)
		workers = append(workers, startWorker(camundaClient, ps.TaskType, wcfg, handler, obs, zapLog))
	}

	if config.IsWorkerEnabled(cfg, esl.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, esl.TaskType)
		handler := esl.NewHandler(
			&esl.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			matchService, log,
		)
		workers = append(workers, startWorker(camundaClient, esl.TaskType, wcfg, handler, obs, zapLog))
	}

	if config.IsWorkerEnabled(cfg, lm.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, lm.TaskType)
		handler := lm.NewHandler(
			&lm.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			matchService, log,
		)
		workers = append(workers, startWorker(camundaClient, lm.TaskType, wcfg, handler, obs, zapLog))
	}

	// --- 2. Data Access Workers (1) ---
	if config.IsWorkerEnabled(cfg, sp.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, sp.TaskType)
		handler := sp.NewHandler(
			&sp.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			esClient.Client, log,
		)
		workers = append(workers, startWorker(camundaClient, sp.TaskType, wcfg, handler, obs, zapLog))
	}

	// --- 3. Infrastructure Workers (1) ---
	if config.IsWorkerEnabled(cfg, cuq.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, cuq.TaskType)
		handler := cuq.NewHandler(
			&cuq.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			quotaService, log,
		)
		workers = append(workers, startWorker(camundaClient, cuq.TaskType, wcfg, handler, obs, zapLog))
	}

	// --- 4. Engagement Workers (1) ---
	if config.IsWorkerEnabled(cfg, sma.TaskType) {
		sesClient, err := awsclients.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("failed to create SES client", zap.Error(err))
		}
		snsClient, err := awsclients.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("failed to create SNS client", zap.Error(err))
		}

		handler, err := sma.NewHandler(sma.HandlerOptions{
			AppConfig: cfg,
			Camunda:   camundaClient,
			Logger:    log,
			Email:     sesClient,
			SMS:       snsClient,
		})
		if err != nil {
			zapLog.Fatal("failed to create send-match-alert handler", zap.Error(err))
		}
		if err := handler.Register(); err != nil {
			zapLog.Fatal("failed to register send-match-alert worker", zap.Error(err))
		}
		alertHandler = handler
	}
	registered := len(workers)
	if alertHandler != nil {
		registered++
	}
	zapLog.Info("Workers registered", zap.Int("count", registered))

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			checks := map[string]error{
				"zeebe":         camundaClient.HealthCheck(ctx),
				"postgres":      pg.Ping(ctx),
				"redis":         redis.Ping(ctx),
				"elasticsearch": esClient.Ping(),
			}

			body := map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			}
			status := http.StatusOK
			for name, err := range checks {
				if err != nil {
					status = http.StatusServiceUnavailable
					body["status"] = "not ready"
					body[name] = err.Error()
				}
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(body)
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range workers {
		w.Close()
	}
	if alertHandler != nil {
		alertHandler.Close()
	}
	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Camunda client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client *camunda.Client, taskType string, wcfg config.WorkerConfig, handler camunda.JobHandler, obs *observability.Observability, log *zap.Logger) *camunda.Worker {
	return client.NewWorker(taskType, camunda.WorkerOptions{
		MaxJobsActive: wcfg.MaxJobsActive,
		Timeout:       config.GetDuration(wcfg.Timeout),
		Recorder:      obs,
	}, handler, log)
}
