package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

type cachedThing struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCacheHelper_RoundTrip(t *testing.T) {
	client := newTestClient(t)
	helper := NewCacheHelper(client, "test:")
	ctx := context.Background()

	original := &cachedThing{Name: "badge", Count: 7}
	if err := helper.Set(ctx, "thing", original, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got cachedThing
	if err := helper.Get(ctx, "thing", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "badge" || got.Count != 7 {
		t.Errorf("round trip = %+v, want %+v", got, original)
	}
}

func TestCacheHelper_Miss(t *testing.T) {
	client := newTestClient(t)
	helper := NewCacheHelper(client, "test:")

	var got cachedThing
	err := helper.Get(context.Background(), "absent", &got)
	if !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("Get(absent) error = %v, want ErrCacheNotFound", err)
	}
}

func TestCacheHelper_StringValues(t *testing.T) {
	client := newTestClient(t)
	helper := NewCacheHelper(client, "badge:")
	ctx := context.Background()

	if err := helper.SetString(ctx, "total", "12", time.Minute); err != nil {
		t.Fatalf("SetString() error = %v", err)
	}
	got, err := helper.GetString(ctx, "total")
	if err != nil {
		t.Fatalf("GetString() error = %v", err)
	}
	if got != "12" {
		t.Errorf("GetString() = %q, want %q", got, "12")
	}
}

func TestCacheHelper_Delete(t *testing.T) {
	client := newTestClient(t)
	helper := NewCacheHelper(client, "test:")
	ctx := context.Background()

	if err := helper.SetString(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("SetString() error = %v", err)
	}
	if err := helper.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := helper.GetString(ctx, "k"); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("after delete, error = %v, want ErrCacheNotFound", err)
	}
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	client := newTestClient(t)
	helper := NewCacheHelper(client, "directory:")
	ctx := context.Background()

	for _, k := range []string{"id:1", "id:2", "email:a@b.bh"} {
		if err := helper.SetString(ctx, k, "x", time.Minute); err != nil {
			t.Fatalf("SetString(%s) error = %v", k, err)
		}
	}

	if err := helper.InvalidatePattern(ctx, "id:*"); err != nil {
		t.Fatalf("InvalidatePattern() error = %v", err)
	}

	if _, err := helper.GetString(ctx, "id:1"); !errors.Is(err, ErrCacheNotFound) {
		t.Error("id:1 should be invalidated")
	}
	if _, err := helper.GetString(ctx, "email:a@b.bh"); err != nil {
		t.Errorf("email key should survive, got error %v", err)
	}
}

// With no Redis configured every operation degrades instead of failing hard.
func TestCacheHelper_NilClient(t *testing.T) {
	helper := NewCacheHelper(nil, "")
	ctx := context.Background()

	// Writes silently no-op; reads report the cache as unavailable.
	if err := helper.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Errorf("Set() error = %v, want nil", err)
	}
	var got string
	if err := helper.Get(ctx, "k", &got); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Get() error = %v, want ErrCacheNotAvailable", err)
	}
}

func TestCacheManager_NilClient(t *testing.T) {
	cm := NewCacheManager(nil)
	if cm.Directory == nil || cm.Alerts == nil || cm.Badge == nil {
		t.Fatal("manager must always hand out helpers")
	}
	if err := cm.HealthCheck(context.Background()); err == nil {
		t.Error("health check without a client must fail")
	}
}
