package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/overseer-hq/overseer/internal/port/cache"
)

// RunComplianceTests runs the standard compliance suite against any Cache
// implementation. Adapter test packages call it with their own instance.
func RunComplianceTests(t *testing.T, c cache.Cache) {
	t.Helper()
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		if err := c.Set(ctx, "retrieval:filesystem:pagination", []byte(`[{"path":"a.go"}]`), time.Minute); err != nil {
			t.Fatal(err)
		}
		val, found, err := c.Get(ctx, "retrieval:filesystem:pagination")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after Set")
		}
		if string(val) != `[{"path":"a.go"}]` {
			t.Fatalf("unexpected value %s", val)
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		_, found, err := c.Get(ctx, "retrieval:mcp:absent")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss for absent key")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = c.Set(ctx, "retrieval:filesystem:stale", []byte("x"), time.Minute)
		if err := c.Delete(ctx, "retrieval:filesystem:stale"); err != nil {
			t.Fatal(err)
		}
		_, found, err := c.Get(ctx, "retrieval:filesystem:stale")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss after Delete")
		}
	})
}
