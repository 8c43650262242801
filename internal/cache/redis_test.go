package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeCmdable implements the handful of commands the cache uses; any other call panics
// through the nil embedded interface.
type fakeCmdable struct {
	redis.Cmdable
	data    map[string]string
	ttls    map[string]time.Duration
	failGet error
}

func newFakeCmdable() *fakeCmdable {
	return &fakeCmdable{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCmdable) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedis_GetSetDelete(t *testing.T) {
	t.Parallel()

	fake := newFakeCmdable()
	c := New(fake, "postcraft:")
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fake.ttls["postcraft:k"] != time.Minute {
		t.Errorf("Expected prefixed key with TTL, got %v", fake.ttls)
	}

	val, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(val) != "v" {
		t.Fatalf("Expected hit with 'v', got %q ok=%v err=%v", val, ok, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("Expected key to be deleted")
	}
}

func TestRedis_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	c := New(newFakeCmdable(), "")
	ctx := context.Background()

	type item struct {
		Topic string `json:"topic"`
	}
	if err := c.SetJSON(ctx, "topics", []item{{Topic: "AI"}}, time.Minute); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var got []item
	ok, err := c.GetJSON(ctx, "topics", &got)
	if err != nil || !ok {
		t.Fatalf("Expected hit, got ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0].Topic != "AI" {
		t.Errorf("Unexpected value %+v", got)
	}
}

func TestRedis_GetError(t *testing.T) {
	t.Parallel()

	fake := newFakeCmdable()
	fake.failGet = errors.New("connection refused")
	if _, _, err := New(fake, "").Get(context.Background(), "k"); err == nil {
		t.Fatal("Expected error to propagate")
	}
}
