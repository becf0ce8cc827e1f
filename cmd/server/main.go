package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"campusgate/internal/app"
	"campusgate/internal/identity"
	"campusgate/internal/platform/blobstore"
	"campusgate/internal/platform/config"
	"campusgate/internal/platform/httpserver"
	"campusgate/internal/platform/kafka"
	"campusgate/internal/platform/logger"
	"campusgate/internal/platform/postgres"
	platformredis "campusgate/internal/platform/redis"
	"campusgate/pkg/platform/audit/worker"
)

// main wires configuration to backends, serves HTTP and, when brokers are
// configured, relays the audit outbox to Kafka until a signal arrives.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	backends, closeBackends, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeBackends()

	tokens := identity.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer)
	application, err := app.New(cfg, log, reg, backends, tokens)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.Server.Addr, application.Router)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting campusgate", "addr", cfg.Server.Addr, "env", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
			log.Warn("could not ensure audit topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		relay := worker.NewWorker(application.Outbox, producer, worker.WithLogger(log))
		g.Go(func() error {
			if err := relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		log.Info("KAFKA_BROKERS not set, audit outbox relay disabled")
	}

	return g.Wait()
}

func openBackends(ctx context.Context, cfg config.Config, log *slog.Logger) (app.Backends, func(), error) {
	var (
		b       app.Backends
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return b, closeAll, err
		}
		closers = append(closers, func() { _ = db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			closeAll()
			return b, func() {}, err
		}
		b.DB = db
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		closeAll()
		return b, func() {}, err
	}
	if redisClient != nil {
		closers = append(closers, func() { _ = redisClient.Close() })
		b.Redis = redisClient
	} else {
		log.Info("REDIS_URL not set, placement report cached in process")
	}

	if cfg.Blob.CloudinaryURL != "" {
		store, err := blobstore.NewCloudinaryStore(cfg.Blob.CloudinaryURL, cfg.Blob.Folder)
		if err != nil {
			closeAll()
			return b, func() {}, err
		}
		b.Blobs = store
	} else {
		if cfg.IsProduction() {
			closeAll()
			return b, func() {}, errors.New("CLOUDINARY_URL is required in production")
		}
		log.Warn("CLOUDINARY_URL not set, evidence kept in memory")
		b.Blobs = blobstore.NewMemoryStore("memory://evidence")
	}
	return b, closeAll, nil
}
