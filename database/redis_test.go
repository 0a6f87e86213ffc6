package database

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *Cache, *SessionStore) {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(srv.Close)

	client, err := NewRedisClient(context.Background(), "redis://"+srv.Addr())
	if err != nil {
		t.Fatalf("create redis client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return srv, NewCache(client), NewSessionStore(client)
}

func TestCacheRoundTrip(t *testing.T) {
	srv, cache, _ := newTestRedis(t)
	ctx := context.Background()

	var got []string
	found, err := cache.GetFromCache(ctx, "songs:list", &got)
	if err != nil || found {
		t.Fatalf("expected miss, found=%v err=%v", found, err)
	}

	if err := cache.SetToCache(ctx, "songs:list", []string{"a", "b"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	found, err = cache.GetFromCache(ctx, "songs:list", &got)
	if err != nil || !found {
		t.Fatalf("expected hit, found=%v err=%v", found, err)
	}
	if len(got) != 2 || got[1] != "b" {
		t.Fatalf("unexpected cached value %v", got)
	}

	if err := cache.Invalidate(ctx, "songs:list"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if srv.Exists("songs:list") {
		t.Fatalf("expected key to be removed")
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	var cache *Cache
	var dest []string
	if found, err := cache.GetFromCache(context.Background(), "k", &dest); found || err != nil {
		t.Fatalf("nil cache should miss silently")
	}
	if err := cache.SetToCache(context.Background(), "k", "v", time.Second); err != nil {
		t.Fatalf("nil cache set: %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv, _, sessions := newTestRedis(t)
	ctx := context.Background()

	sid, err := sessions.Create(ctx, "admin", time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(sid) != 64 {
		t.Fatalf("unexpected session id %q", sid)
	}
	username, err := sessions.Username(ctx, sid)
	if err != nil || username != "admin" {
		t.Fatalf("unexpected username %q err=%v", username, err)
	}

	srv.FastForward(2 * time.Hour)
	username, err = sessions.Username(ctx, sid)
	if err != nil || username != "" {
		t.Fatalf("expected expired session, got %q err=%v", username, err)
	}

	if username, err := sessions.Username(ctx, ""); err != nil || username != "" {
		t.Fatalf("empty sid should resolve to anonymous")
	}
	if _, err := sessions.Create(ctx, "  ", time.Hour); err == nil {
		t.Fatalf("expected error for empty username")
	}
}
