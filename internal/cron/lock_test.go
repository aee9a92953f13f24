package cron

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/workoutbrothers/storefront-backend/pkg/redis/redistest"
)

func TestRedisLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	client, mem := redistest.NewClient()
	key := client.LockKey("cron-worker:test")

	leader, err := NewRedisLock(client, key, 0)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	follower, _ := NewRedisLock(client, key, 0)

	if won, err := leader.Acquire(ctx); err != nil || !won {
		t.Fatalf("expected leader to acquire, won=%v err=%v", won, err)
	}
	if ttl := mem.TTL(key); ttl != DefaultLockTTL {
		t.Fatalf("expected default ttl, got %s", ttl)
	}
	if won, err := follower.Acquire(ctx); err != nil || won {
		t.Fatalf("expected follower to be refused, won=%v err=%v", won, err)
	}

	if err := follower.Release(ctx); err != nil {
		t.Fatalf("follower release: %v", err)
	}
	if !slices.Contains(mem.Keys(), key) {
		t.Fatalf("a non-holder released the lock")
	}

	if err := leader.Release(ctx); err != nil {
		t.Fatalf("leader release: %v", err)
	}
	if slices.Contains(mem.Keys(), key) {
		t.Fatalf("expected lock key removed")
	}
	if won, _ := follower.Acquire(ctx); !won {
		t.Fatalf("expected follower to acquire after release")
	}
}

func TestRedisLockKeepsTakenOverLock(t *testing.T) {
	ctx := context.Background()
	client, mem := redistest.NewClient()
	key := client.LockKey("cron-worker:test")

	stale, _ := NewRedisLock(client, key, time.Minute)
	if won, _ := stale.Acquire(ctx); !won {
		t.Fatalf("expected first acquire to win")
	}

	// expiry, then another instance takes over
	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del: %v", err)
	}
	other, _ := NewRedisLock(client, key, time.Minute)
	if won, _ := other.Acquire(ctx); !won {
		t.Fatalf("expected takeover to win")
	}

	if err := stale.Release(ctx); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	if !slices.Contains(mem.Keys(), key) {
		t.Fatalf("stale holder removed the new holder's lock")
	}
}

func TestNewRedisLockValidates(t *testing.T) {
	client, _ := redistest.NewClient()
	if _, err := NewRedisLock(nil, "k", 0); err == nil {
		t.Fatalf("expected error for nil store")
	}
	if _, err := NewRedisLock(client, "", 0); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
