// Package redistest provides an in-memory stand-in for the redis command surface.
package redistest

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/workoutbrothers/storefront-backend/pkg/redis"
)

// Memory implements redis.Cmdable with maps. TTLs are recorded, not enforced.
type Memory struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
	// FailWith, when set, is returned by every command.
	FailWith error
}

func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]string),
		ttl:  make(map[string]time.Duration),
	}
}

// NewClient returns a redis.Client backed by a fresh Memory store.
func NewClient() (*redis.Client, *Memory) {
	mem := NewMemory()
	return redis.NewWithCmdable(mem), mem
}

func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.data))
	for k := range m.data {
		out = append(out, k)
	}
	return out
}

func (m *Memory) TTL(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttl[key]
}

func (m *Memory) Ping(context.Context) *goredis.StatusCmd {
	if m.FailWith != nil {
		return goredis.NewStatusResult("", m.FailWith)
	}
	return goredis.NewStatusResult("PONG", nil)
}

func (m *Memory) Get(_ context.Context, key string) *goredis.StringCmd {
	if m.FailWith != nil {
		return goredis.NewStringResult("", m.FailWith)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (m *Memory) SetNX(_ context.Context, key string, value any, expiration time.Duration) *goredis.BoolCmd {
	if m.FailWith != nil {
		return goredis.NewBoolResult(false, m.FailWith)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; exists {
		return goredis.NewBoolResult(false, nil)
	}
	m.data[key] = stringify(value)
	m.ttl[key] = expiration
	return goredis.NewBoolResult(true, nil)
}

func (m *Memory) Incr(_ context.Context, key string) *goredis.IntCmd {
	if m.FailWith != nil {
		return goredis.NewIntResult(0, m.FailWith)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	if v, ok := m.data[key]; ok {
		fmt.Sscan(v, &n)
	}
	n++
	m.data[key] = fmt.Sprint(n)
	return goredis.NewIntResult(n, nil)
}

func (m *Memory) Expire(_ context.Context, key string, expiration time.Duration) *goredis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return goredis.NewBoolResult(false, nil)
	}
	m.ttl[key] = expiration
	return goredis.NewBoolResult(true, nil)
}

func (m *Memory) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	if m.FailWith != nil {
		return goredis.NewIntResult(0, m.FailWith)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			removed++
		}
		delete(m.data, key)
		delete(m.ttl, key)
	}
	return goredis.NewIntResult(removed, nil)
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
