package services

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "photometa-api/internal/errors"
)

func TestCacheServiceReadThrough(t *testing.T) {
	ctx := context.Background()
	backing := &countingCache{LocationCache: NewMemoryStore()}
	cs := NewCacheService(backing, time.Minute, time.Minute)
	defer cs.Close()

	if _, err := cs.GetLocation(ctx, "1"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("GetLocation() on empty cache error = %v, want ErrNotFound", err)
	}

	if err := cs.PutLocation(ctx, "1", "Lisbon, Portugal"); err != nil {
		t.Fatalf("PutLocation() unexpected error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if got, err := cs.GetLocation(ctx, "1"); err != nil || got != "Lisbon, Portugal" {
			t.Fatalf("GetLocation() = %q, %v", got, err)
		}
	}
	if backing.gets != 1 {
		t.Errorf("backing store read %d times, want 1 (the initial miss)", backing.gets)
	}
}

func TestCacheServiceMissesAreNotCached(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	cs := NewCacheService(store, time.Minute, 0)
	defer cs.Close()

	cs.GetLocation(ctx, "5")
	store.PutLocation(ctx, "5", "Written elsewhere")

	if got, err := cs.GetLocation(ctx, "5"); err != nil || got != "Written elsewhere" {
		t.Errorf("GetLocation() = %q, %v; want the backing value", got, err)
	}
}

func TestCacheServiceBackingFailure(t *testing.T) {
	ctx := context.Background()
	backing := &countingCache{LocationCache: NewMemoryStore(), getErr: errors.New("connection refused")}
	cs := NewCacheService(backing, time.Minute, 0)
	defer cs.Close()

	_, err := cs.GetLocation(ctx, "1")
	if !errors.Is(err, apperrors.ErrCacheUnavailable) {
		t.Fatalf("GetLocation() error = %v, want ErrCacheUnavailable", err)
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("backing failure reported as a miss: %v", err)
	}

	provider := &countingGeocoder{resp: pittsburghResponse()}
	if _, ok := NewGeocodingService(provider, cs).Resolve(ctx, 1, 2, "1"); !ok {
		t.Fatal("Resolve() should fall through to the provider")
	}
	if provider.Calls() != 1 {
		t.Errorf("provider called %d times, want 1", provider.Calls())
	}
}

func TestCacheServiceExpiry(t *testing.T) {
	ctx := context.Background()
	backing := &countingCache{LocationCache: NewMemoryStore()}
	cs := NewCacheService(backing, 10*time.Millisecond, 0)
	defer cs.Close()

	cs.PutLocation(ctx, "1", "Oslo, Norway")
	time.Sleep(20 * time.Millisecond)

	if got, err := cs.GetLocation(ctx, "1"); err != nil || got != "Oslo, Norway" {
		t.Fatalf("GetLocation() = %q, %v", got, err)
	}
	if backing.gets != 1 {
		t.Errorf("expired entry should be re-read from the backing store, reads = %d", backing.gets)
	}
}

func TestCacheServiceClear(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(NewMemoryStore(), time.Minute, 0)
	defer cs.Close()

	cs.PutLocation(ctx, "1", "A")
	cs.PutLocation(ctx, "2", "B")
	cs.PutLocation(ctx, "3", "C")

	if err := cs.ClearLocation(ctx, "1"); err != nil {
		t.Fatalf("ClearLocation() unexpected error: %v", err)
	}
	if _, err := cs.GetLocation(ctx, "1"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("cleared entry still served: %v", err)
	}

	n, err := cs.ClearAllLocations(ctx)
	if err != nil || n != 2 {
		t.Fatalf("ClearAllLocations() = %d, %v; want 2", n, err)
	}
	if _, err := cs.GetLocation(ctx, "2"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("entry survived ClearAllLocations: %v", err)
	}
}
