package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	if err := mc.Set(ctx, "k", payload{Name: "brent", Count: 3}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got payload
	if err := mc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "brent" || got.Count != 3 {
		t.Fatalf("unexpected value: %+v", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	var got string
	if err := mc.Get(context.Background(), "absent", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", "v", time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	var got string
	if err := mc.Get(ctx, "k", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expiry miss, got %v", err)
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "a", 1, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := mc.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var got int
	if err := mc.Get(ctx, "a", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}
