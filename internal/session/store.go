package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"storefront/admin/internal/auth"
)

const (
	KeyAccessToken = "accessToken"
	KeyUser        = "user"
)

var ErrNotReady = errors.New("session_store_not_ready")

// Session is what one browser session has cached: the backend access token
// and the principal returned with it.
type Session struct {
	ID          string
	AccessToken string
	Principal   *auth.Principal
}

func (s Session) Authenticated() bool {
	return s.AccessToken != "" && s.Principal != nil
}

// Store is the single owner of session reads and writes. It is unusable
// until Hydrate has reached the backing storage once.
type Store struct {
	kv    KV
	ttl   time.Duration
	log   logrus.FieldLogger
	ready atomic.Bool
}

func NewStore(kv KV, ttl time.Duration, log logrus.FieldLogger) *Store {
	return &Store{kv: kv, ttl: ttl, log: log}
}

func (s *Store) Hydrate(ctx context.Context) error {
	if err := s.kv.Ping(ctx); err != nil {
		return fmt.Errorf("session storage unreachable: %w", err)
	}
	s.ready.Store(true)
	return nil
}

func (s *Store) Ready() bool {
	return s.ready.Load()
}

// Load returns the cached session. A user entry that does not decode is
// treated as no session and both keys are removed.
func (s *Store) Load(ctx context.Context, id string) (Session, error) {
	if !s.Ready() {
		return Session{}, ErrNotReady
	}
	out := Session{ID: id}
	if id == "" {
		return out, nil
	}
	token, ok, err := s.kv.Get(ctx, key(id, KeyAccessToken))
	if err != nil || !ok {
		return out, err
	}
	raw, ok, err := s.kv.Get(ctx, key(id, KeyUser))
	if err != nil || !ok {
		return out, err
	}
	var principal auth.Principal
	if err := json.Unmarshal([]byte(raw), &principal); err != nil {
		s.log.WithError(err).WithField("session_id", id).Warn("dropping session with unreadable user")
		if err := s.Clear(ctx, id); err != nil {
			return out, err
		}
		return out, nil
	}
	out.AccessToken = token
	out.Principal = &principal
	return out, nil
}

func (s *Store) Save(ctx context.Context, id, accessToken string, principal auth.Principal) error {
	if !s.Ready() {
		return ErrNotReady
	}
	data, err := json.Marshal(principal)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, key(id, KeyAccessToken), accessToken, s.ttl); err != nil {
		return err
	}
	return s.kv.Set(ctx, key(id, KeyUser), string(data), s.ttl)
}

func (s *Store) Clear(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.kv.Delete(ctx, key(id, KeyAccessToken), key(id, KeyUser))
}

func key(id, name string) string {
	return fmt.Sprintf("session:%s:%s", id, name)
}
