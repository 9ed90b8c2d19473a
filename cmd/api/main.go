// Command api serves the ECG Health IQ backend.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/raiahtisham/ecg-health-iq/internal/api"
	"github.com/raiahtisham/ecg-health-iq/internal/api/middleware"
	"github.com/raiahtisham/ecg-health-iq/internal/core/ports"
	"github.com/raiahtisham/ecg-health-iq/internal/core/service"
	"github.com/raiahtisham/ecg-health-iq/internal/infrastructure/config"
	"github.com/raiahtisham/ecg-health-iq/internal/infrastructure/db/mongo"
	"github.com/raiahtisham/ecg-health-iq/internal/infrastructure/db/redis"
	"github.com/raiahtisham/ecg-health-iq/internal/infrastructure/http/handlers"
	"github.com/raiahtisham/ecg-health-iq/internal/infrastructure/inference"
	"github.com/raiahtisham/ecg-health-iq/internal/infrastructure/messaging"
	"github.com/raiahtisham/ecg-health-iq/internal/infrastructure/queue"
	"github.com/raiahtisham/ecg-health-iq/internal/infrastructure/render"
	"github.com/raiahtisham/ecg-health-iq/internal/infrastructure/storage"
	"github.com/raiahtisham/ecg-health-iq/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{})
		boot.Fatal().Err(err).Msg("configuration")
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "ecg-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server exited")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	dbs, err := mongo.Connect(ctx, mongo.Config{
		URI:          cfg.Mongo.URI,
		UserDatabase: cfg.Mongo.UserDB,
		ECGDatabase:  cfg.Mongo.ECGDB,
		Timeout:      cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := dbs.Close(dctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	users := mongo.NewUserRepository(dbs.Users)
	records := mongo.NewECGRepository(dbs.ECG)
	consultations := mongo.NewConsultationRepository(dbs.Users)
	for name, idx := range map[string]interface{ EnsureIndexes(context.Context) error }{
		"users":         users,
		"ecg_records":   records,
		"consultations": consultations,
	} {
		if err := idx.EnsureIndexes(ctx); err != nil {
			return err
		}
		log.Debug().Str("collection", name).Msg("indexes ensured")
	}

	checks := []handlers.Check{{Name: "mongo", Ping: dbs.Ping}}

	var keys ports.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		keys = redis.NewIdempotencyStore(rdb)
		checks = append(checks, redisCheck(rdb))
	} else {
		log.Warn().Msg("REDIS_ADDR not set, idempotency keys are checked per instance")
	}

	var blobs ports.BlobStore
	if cfg.Minio.Endpoint != "" {
		store, err := storage.Connect(ctx, storage.Config{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			Region:    cfg.Minio.Region,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			return err
		}
		blobs = store
		checks = append(checks, handlers.Check{Name: "minio", Ping: store.Ping})
	}

	var notifier ports.Notifier = messaging.NewLogNotifier(logger.Component("notifier"))
	if cfg.RabbitMQ.URL != "" {
		rabbit, err := messaging.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			return err
		}
		defer rabbit.Close()
		notifier = rabbit
	}

	classifier := inference.NewHTTPClassifier(cfg.Classifier.URL, cfg.Classifier.Timeout)
	checks = append(checks, handlers.Check{Name: "classifier", Ping: classifier.Ping})

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Notification.Workers, notifier, logger.Component("dispatcher"))
	dispatcher.Start(workerCtx)
	defer func() {
		cancelWorkers()
		dispatcher.Wait()
	}()

	e := api.NewRouter(api.Dependencies{
		Auth:          service.NewAuthService(users, cfg.JWTSecret, cfg.TokenTTL, log),
		Directory:     service.NewDirectoryService(users, blobs, log),
		ECG:           service.NewECGService(users, records, classifier, render.NewChartRenderer(), blobs, log),
		Consultations: service.NewConsultationService(consultations, records, keys, dispatcher, log),
		JWTSecret:     cfg.JWTSecret,
		RateLimiter:   middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		HealthChecks:  checks,
		Log:           log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down, draining requests")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}

func redisCheck(rdb *goredis.Client) handlers.Check {
	return handlers.Check{
		Name: "redis",
		Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}
}
