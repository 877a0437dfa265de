package ristretto_test

import (
	"context"
	"testing"
	"time"

	"github.com/overseer-hq/overseer/internal/adapter/ristretto"
)

func newCache(t *testing.T) *ristretto.Cache {
	t.Helper()
	c, err := ristretto.New(1 << 20)
	if err != nil {
		t.Fatalf("create cache: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestSetGetDelete(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()
	key := "retrieval:filesystem:pagination"

	if err := c.Set(ctx, key, []byte(`[{"path":"a.go"}]`), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	c.Wait()

	val, found, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatal("expected hit after Set")
	}
	if string(val) != `[{"path":"a.go"}]` {
		t.Fatalf("unexpected value %s", val)
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found, _ := c.Get(ctx, key); found {
		t.Fatal("expected miss after Delete")
	}
}

func TestGetMiss(t *testing.T) {
	c := newCache(t)
	if _, found, err := c.Get(context.Background(), "retrieval:mcp:absent"); err != nil || found {
		t.Fatalf("expected clean miss, found=%v err=%v", found, err)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "retrieval:filesystem:short", []byte("x"), 20*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	c.Wait()
	time.Sleep(60 * time.Millisecond)

	if _, found, _ := c.Get(ctx, "retrieval:filesystem:short"); found {
		t.Fatal("expected miss after TTL expiry")
	}
}
