package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"storefront/admin/internal/clients"
	"storefront/admin/internal/config"
	"storefront/admin/internal/db"
	"storefront/admin/internal/events"
	admingrpc "storefront/admin/internal/grpc"
	internalhttp "storefront/admin/internal/http"
	"storefront/admin/internal/inventory"
	"storefront/admin/internal/jobs"
	"storefront/admin/internal/logger"
	"storefront/admin/internal/metrics"
	"storefront/admin/internal/requests"
	"storefront/admin/internal/session"
)

func main() {
	cfg := config.Load()

	logr, err := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cfg.LogOutput,
		File:   cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	kv, closeKV, purger := openSessionKV(ctx, cfg, logr)
	defer closeKV()
	store := session.NewStore(kv, cfg.SessionTTL, logr)

	health := admingrpc.NewHealth()
	go hydrate(ctx, store, cfg.HydrateTimeout, health, logr)
	jobs.StartSessionPurgeJob(ctx, cfg.SessionPurge, purger, logr)

	backend := clients.New(cfg.AdminAPIBaseURL, cfg.AuthAPIBaseURL, cfg.BackendTimeout, m, logr)
	defer backend.Close()
	if cfg.ConsulAddr != "" {
		discovery, err := clients.NewDiscovery(cfg.ConsulAddr, cfg.BackendServiceName)
		if err != nil {
			logr.WithError(err).Fatal("consul client init failed")
		}
		resolveCtx, cancel := context.WithTimeout(ctx, cfg.DiscoveryTimeout)
		if err := jobs.RefreshBackend(resolveCtx, discovery, backend, logr); err != nil {
			logr.WithError(err).Warn("initial backend discovery failed, using configured base url")
		}
		cancel()
		jobs.StartDiscoveryJob(ctx, cfg.DiscoveryInterval, cfg.DiscoveryTimeout, discovery, backend, logr)
	}
	if cfg.BackendProbePath != "" {
		probeCtx, cancel := context.WithTimeout(ctx, cfg.BackendTimeout)
		if err := backend.Probe(probeCtx, cfg.BackendProbePath); err != nil {
			logr.WithError(err).WithField("base_url", backend.AdminBaseURL()).Warn("backend probe failed")
		}
		cancel()
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafka(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			logr.WithError(err).Fatal("kafka init failed")
		}
		publisher = kafka
	}
	emitter := events.NewEmitter(publisher, m, logr)
	defer emitter.Close()

	scopes := requests.NewScopes(ctx)
	defer scopes.Close()
	drafts := inventory.NewRegistry()

	server, err := internalhttp.NewServer(cfg, store, backend, scopes, drafts, emitter, m, logr)
	if err != nil {
		logr.WithError(err).Fatal("server init failed")
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcServer := admingrpc.NewServer(health, logr)

	go func() {
		logr.Infof("admin shell http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.WithError(err).Fatal("http server error")
		}
	}()

	go func() {
		listener, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logr.WithError(err).Fatal("grpc listen error")
		}
		logr.Infof("admin shell grpc listening on %s", cfg.GRPCAddr)
		if err := grpcServer.Serve(listener); err != nil {
			logr.WithError(err).Fatal("grpc server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	health.Shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logr.WithError(err).Warn("shutdown error")
	}
	grpcServer.GracefulStop()
}

// openSessionKV picks the session storage named by SESSION_STORE. The
// returned purger is nil for storages that expire keys on their own.
func openSessionKV(ctx context.Context, cfg config.Config, logr logrus.FieldLogger) (session.KV, func(), jobs.Purger) {
	switch cfg.SessionStore {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			cancel()
			logr.WithError(err).Fatal("redis ping failed")
		}
		cancel()
		return session.NewRedisKV(client), func() {
			if err := client.Close(); err != nil {
				logr.WithError(err).Warn("redis close error")
			}
		}, nil
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logr.WithError(err).Fatal("db connection failed")
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			logr.WithError(err).Fatal("db migration failed")
		}
		kv := session.NewPostgresKV(pool)
		return kv, closePool(pool), kv
	default:
		return session.NewMemoryKV(), func() {}, nil
	}
}

func closePool(pool *pgxpool.Pool) func() {
	return func() { pool.Close() }
}

// hydrate retries until the session storage answers. Guarded routes report
// loading until then.
func hydrate(ctx context.Context, store *session.Store, timeout time.Duration, health *admingrpc.Health, logr logrus.FieldLogger) {
	backoff := 500 * time.Millisecond
	for {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		err := store.Hydrate(attemptCtx)
		cancel()
		if err == nil {
			health.SetServing(true)
			logr.Info("session store ready")
			return
		}
		logr.WithError(err).Warn("session store hydration failed")
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 10*time.Second {
			backoff *= 2
		}
	}
}
