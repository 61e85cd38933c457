package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

type Rehoster interface {
	Rehost(instance string) error
	AdminBaseURL() string
}

type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// RefreshBackend resolves the backend once and points the client at it.
func RefreshBackend(ctx context.Context, resolver Resolver, backend Rehoster, log logrus.FieldLogger) error {
	instance, err := resolver.Resolve(ctx)
	if err != nil {
		return err
	}
	before := backend.AdminBaseURL()
	if err := backend.Rehost(instance); err != nil {
		return err
	}
	if after := backend.AdminBaseURL(); after != before {
		log.WithFields(logrus.Fields{"from": before, "to": after}).Info("backend instance changed")
	}
	return nil
}

// StartDiscoveryJob keeps the backend base URL in line with the service
// catalog. The last known instance is kept when a lookup fails.
func StartDiscoveryJob(ctx context.Context, interval, timeout time.Duration, resolver Resolver, backend Rehoster, log logrus.FieldLogger) {
	if resolver == nil {
		return
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	start(ctx, interval, func() {
		tickCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := RefreshBackend(tickCtx, resolver, backend, log); err != nil {
			log.WithError(err).Warn("backend discovery failed")
		}
	})
}

// StartSessionPurgeJob deletes expired rows from durable session storage.
func StartSessionPurgeJob(ctx context.Context, interval time.Duration, purger Purger, log logrus.FieldLogger) {
	if purger == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	start(ctx, interval, func() {
		tickCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		removed, err := purger.Purge(tickCtx)
		if err != nil {
			log.WithError(err).Warn("session purge failed")
			return
		}
		if removed > 0 {
			log.WithField("removed", removed).Info("expired session keys purged")
		}
	})
}

func start(ctx context.Context, interval time.Duration, tick func()) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tick()
			}
		}
	}()
}
