// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"go.uber.org/zap"

	"montaz-workers/internal/common/aws"
	"montaz-workers/internal/common/camunda"
	"montaz-workers/internal/common/config"
	"montaz-workers/internal/common/database"
	"montaz-workers/internal/common/logger"
	"montaz-workers/internal/common/observability"
	"montaz-workers/internal/common/validation"
	"montaz-workers/internal/staffing"
	"montaz-workers/pkg/registry"

	qs "montaz-workers/internal/workers/data-access/query-staffing"
	cc "montaz-workers/internal/workers/staffing/compute-coverage"
	nu "montaz-workers/internal/workers/staffing/notify-understaffed"
	sc "montaz-workers/internal/workers/staffing/suggest-candidates"
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
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	var obsOpts []observability.Option
	if cfg.Observability.JaegerEndpoint != "" {
		obsOpts = append(obsOpts, observability.WithJaeger(cfg.Observability.JaegerEndpoint))
	}
	obs := observability.New(cfg.App.Name, obsOpts...)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	topology, err := zeebe.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		return zeebe.GetClient().NewTopologyCommand().Send(ctx)
	}, "topology")
	if err != nil {
		zapLog.Warn("zeebe topology unavailable", zap.Error(err))
	} else if t, ok := topology.(*pb.TopologyResponse); ok {
		zapLog.Info("zeebe topology",
			zap.Int("brokers", len(t.Brokers)),
			zap.Int32("partitions", t.PartitionsCount),
			zap.String("gatewayVersion", t.GatewayVersion),
		)
	}

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = openAndPing(ctx, func() (*database.PostgresClient, error) {
			return database.NewPostgres(cfg.Database.Postgres)
		})
		return err
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
		rdb, err = openAndPing(ctx, func() (*database.RedisClient, error) {
			return database.NewRedis(cfg.Database.Redis)
		})
		return err
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Elasticsearch ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	if err := esClient.EnsureIndex(ctx, cfg.Staffing.CandidateIndex, sc.WorkerIndexMapping); err != nil {
		zapLog.Warn("candidate index not ready", zap.String("index", cfg.Staffing.CandidateIndex), zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Shared services ---
	reg, err := registry.Default()
	if err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}
	validator := validation.NewValidator(reg)
	store := staffing.NewStore(pg.DB, rdb.Client, time.Duration(cfg.Staffing.CacheTTL)*time.Second, log)

	var (
		emailSender nu.EmailSender
		smsSender   nu.SMSSender
	)
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		awsCfg, err := aws.LoadConfig(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config failed", zap.Error(err))
		}
		if cfg.Notifications.Email.Enabled {
			emailSender = aws.NewSESClient(awsCfg, cfg.Notifications.Email.FromEmail)
		}
		if cfg.Notifications.SMS.Enabled {
			smsSender = aws.NewSNSClient(awsCfg, cfg.Notifications.SMS.SenderID)
		}
	}

	// --- Workers ---
	var workers []*camunda.CamundaWorker
	register := func(taskType string, handler camunda.JobHandlerFunc) {
		if !config.IsWorkerEnabled(cfg, taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		workers = append(workers, camunda.NewWorker(
			zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handler, obs, zapLog,
		))
	}

	register(cc.TaskType, cc.NewHandler(
		cc.LoadConfig(config.GetWorkerConfig(cfg, cc.TaskType)),
		store, validator, log,
	).Handle)

	register(sc.TaskType, sc.NewHandler(
		sc.LoadConfig(config.GetWorkerConfig(cfg, sc.TaskType), cfg.Staffing),
		esClient.Client, validator, log,
	).Handle)

	register(nu.TaskType, nu.NewHandler(
		nu.LoadConfig(config.GetWorkerConfig(cfg, nu.TaskType), cfg.Notifications),
		store, emailSender, smsSender, validator, log,
	).Handle)

	register(qs.TaskType, qs.NewHandler(
		qs.LoadConfig(config.GetWorkerConfig(cfg, qs.TaskType)),
		store, validator, log,
	).Handle)

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr: cfg.Observability.MetricsAddress,
		Handler: newHealthMux([]dependencyCheck{
			{Name: "zeebe", Check: zeebe.HealthCheck},
			{Name: "postgres", Check: pg.Ping},
			{Name: "redis", Check: rdb.Ping},
			{Name: "elasticsearch", Check: esClient.Ping},
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", server.Addr))
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
		zapLog.Info("stopping worker", zap.String("taskType", w.TaskType()))
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
