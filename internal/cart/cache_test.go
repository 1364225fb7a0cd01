package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func newTestCache(t *testing.T) *RedisCache {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCache(client)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	if _, err := cache.Get(ctx, "user-1"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("got %v, want ErrCacheMiss", err)
	}

	c := &Cart{
		ID:     "cart-1",
		UserID: "user-1",
		Lines: []Line{
			{ProductID: "p1", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		},
	}
	c.RecalculateTotal()

	if err := cache.Set(ctx, "user-1", c); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := cache.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != c.ID || len(got.Lines) != 1 || got.Lines[0].Quantity != 2 {
		t.Fatalf("cached cart mismatch: %+v", got)
	}
	if !got.Total.Equal(c.Total) {
		t.Fatalf("cached total %s, want %s", got.Total, c.Total)
	}

	if err := cache.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := cache.Get(ctx, "user-1"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("got %v after delete, want ErrCacheMiss", err)
	}
}
