package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"storefront/admin/internal/auth"
	"storefront/admin/internal/db"
)

func TestRedisKVRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	exerciseKV(t, NewRedisKV(client))
}

func TestPostgresKVRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	kv := NewPostgresKV(pool)
	exerciseKV(t, kv)

	if err := kv.Set(ctx, "purge:"+uuid.NewString(), "v", time.Millisecond); err != nil {
		t.Fatalf("set error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	purged, err := kv.Purge(ctx)
	if err != nil {
		t.Fatalf("purge error: %v", err)
	}
	if purged < 1 {
		t.Fatalf("expected at least one purged row, got %d", purged)
	}
}

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()
	store := NewStore(kv, time.Minute, quietLogger())
	if err := store.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate error: %v", err)
	}

	id := uuid.NewString()
	principal := auth.Principal{ID: 9, Email: "staff@shop.test", Role: auth.RoleStaff}
	if err := store.Save(ctx, id, "token-9", principal); err != nil {
		t.Fatalf("save error: %v", err)
	}
	loaded, err := store.Load(ctx, id)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if !loaded.Authenticated() || loaded.Principal.Role != auth.RoleStaff {
		t.Fatalf("unexpected session %+v", loaded)
	}
	if err := store.Clear(ctx, id); err != nil {
		t.Fatalf("clear error: %v", err)
	}
	loaded, err = store.Load(ctx, id)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if loaded.Authenticated() {
		t.Fatalf("expected cleared session")
	}
}
