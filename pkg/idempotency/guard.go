// Package idempotency claims event ids in redis so redelivered events run their side effects once.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/workoutbrothers/storefront-backend/pkg/redis"
)

// Guard tracks processed events for one consumer.
// Keys look like wb:idempotency:evt:processed:<consumer>:<event_id>.
type Guard struct {
	store    redis.IdempotencyStore
	consumer string
	ttl      time.Duration
}

func NewGuard(store redis.IdempotencyStore, consumer string, ttl time.Duration) (*Guard, error) {
	switch {
	case store == nil:
		return nil, errors.New("idempotency store is required")
	case strings.TrimSpace(consumer) == "":
		return nil, errors.New("consumer name is required")
	case ttl < 0:
		return nil, errors.New("ttl must be non-negative")
	}
	return &Guard{store: store, consumer: consumer, ttl: ttl}, nil
}

// Claim marks eventID as taken. It returns false when an earlier delivery already claimed it.
func (g *Guard) Claim(ctx context.Context, eventID string) (bool, error) {
	key, err := g.key(eventID)
	if err != nil {
		return false, err
	}
	claimed, err := g.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.ttl)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return claimed, nil
}

// Release drops a claim after a failed attempt so the next delivery retries it.
func (g *Guard) Release(ctx context.Context, eventID string) error {
	key, err := g.key(eventID)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, key)
}

func (g *Guard) Consumer() string {
	return g.consumer
}

func (g *Guard) key(eventID string) (string, error) {
	if strings.TrimSpace(eventID) == "" {
		return "", errors.New("event id is required")
	}
	return g.store.IdempotencyKey("evt:processed:"+g.consumer, eventID), nil
}
