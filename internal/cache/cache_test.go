package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type fakeRedis struct {
	values  map[string]string
	lastTTL time.Duration
	err     error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string]string)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	val, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.values[key] = string(value.([]byte))
	f.lastTTL = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Close() error { return nil }

func testCache(r *fakeRedis) *ListCache {
	return &ListCache{client: r, ttl: time.Minute, log: zap.NewNop()}
}

type payload struct {
	Name string `json:"name"`
}

func TestListCache_RoundTrip(t *testing.T) {
	r := newFakeRedis()
	c := testCache(r)
	ctx := context.Background()

	var miss payload
	if c.Get(ctx, "tester", &miss) {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(ctx, "tester", payload{Name: "tester"})
	if _, ok := r.values[keyPrefix+"tester"]; !ok {
		t.Fatalf("expected prefixed key, stored keys: %v", r.values)
	}
	if r.lastTTL != time.Minute {
		t.Fatalf("expected configured ttl, got %v", r.lastTTL)
	}

	var hit payload
	if !c.Get(ctx, "tester", &hit) {
		t.Fatal("expected a hit after set")
	}
	if hit.Name != "tester" {
		t.Fatalf("unexpected cached payload: %+v", hit)
	}
}

func TestListCache_Invalidate(t *testing.T) {
	r := newFakeRedis()
	c := testCache(r)
	ctx := context.Background()

	c.Set(ctx, "tester", payload{Name: "tester"})
	c.Invalidate(ctx, "tester")

	var out payload
	if c.Get(ctx, "tester", &out) {
		t.Fatal("expected miss after invalidate")
	}
}

func TestListCache_RedisErrorFallsThrough(t *testing.T) {
	r := newFakeRedis()
	r.err = context.DeadlineExceeded
	c := testCache(r)
	ctx := context.Background()

	var out payload
	if c.Get(ctx, "tester", &out) {
		t.Fatal("expected miss when redis fails")
	}
	// Set and Invalidate swallow the error; callers never see it.
	c.Set(ctx, "tester", payload{Name: "tester"})
	c.Invalidate(ctx, "tester")
}

func TestListCache_CorruptPayloadIsMiss(t *testing.T) {
	r := newFakeRedis()
	r.values[keyPrefix+"tester"] = `{"name":`
	c := testCache(r)

	var out payload
	if c.Get(context.Background(), "tester", &out) {
		t.Fatal("expected corrupt payload to read as a miss")
	}
}

func TestListCache_NilReceiver(t *testing.T) {
	var c *ListCache
	ctx := context.Background()

	var out payload
	if c.Get(ctx, "tester", &out) {
		t.Fatal("nil cache must always miss")
	}
	c.Set(ctx, "tester", payload{Name: "tester"})
	c.Invalidate(ctx, "tester")
	if err := c.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}
