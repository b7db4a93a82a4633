package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "photometa-api/internal/errors"
)

type cacheEntry struct {
	placeName string
	expires   time.Time
}

// CacheService is an in-process read-through layer over a durable
// LocationCache. Hits are kept for the configured TTL; misses are never
// cached, so a location written by another instance is seen on the next
// lookup.
type CacheService struct {
	backing         LocationCache
	cache           map[string]*cacheEntry
	mu              sync.RWMutex
	ttl             time.Duration
	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

func NewCacheService(backing LocationCache, ttl, cleanupInterval time.Duration) *CacheService {
	cs := &CacheService{
		backing:         backing,
		cache:           make(map[string]*cacheEntry),
		ttl:             ttl,
		cleanupInterval: cleanupInterval,
		stop:            make(chan struct{}),
	}

	// Start cleanup goroutine
	if cleanupInterval > 0 {
		go cs.cleanupExpired()
	}

	return cs
}

func (cs *CacheService) get(key string) (string, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, ok := cs.cache[key]
	if !ok || entry.expires.Before(time.Now()) {
		return "", false
	}
	return entry.placeName, true
}

func (cs *CacheService) set(key, placeName string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cache[key] = &cacheEntry{
		placeName: placeName,
		expires:   time.Now().Add(cs.ttl),
	}
}

func (cs *CacheService) GetLocation(ctx context.Context, subjectID string) (string, error) {
	if place, ok := cs.get(subjectID); ok {
		return place, nil
	}

	place, err := cs.backing.GetLocation(ctx, subjectID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrCacheUnavailable, err)
	}
	cs.set(subjectID, place)
	return place, nil
}

func (cs *CacheService) PutLocation(ctx context.Context, subjectID, placeName string) error {
	if err := cs.backing.PutLocation(ctx, subjectID, placeName); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrCacheUnavailable, err)
	}
	cs.set(subjectID, placeName)
	return nil
}

func (cs *CacheService) ClearLocation(ctx context.Context, subjectID string) error {
	cs.mu.Lock()
	delete(cs.cache, subjectID)
	cs.mu.Unlock()

	return cs.backing.ClearLocation(ctx, subjectID)
}

func (cs *CacheService) ClearAllLocations(ctx context.Context) (int, error) {
	cs.mu.Lock()
	cs.cache = make(map[string]*cacheEntry)
	cs.mu.Unlock()

	return cs.backing.ClearAllLocations(ctx)
}

// Close stops the cleanup goroutine.
func (cs *CacheService) Close() {
	cs.stopOnce.Do(func() { close(cs.stop) })
}

// Periodically removes expired entries from the cache.
// This runs in a background goroutine started by NewCacheService.
func (cs *CacheService) cleanupExpired() {
	ticker := time.NewTicker(cs.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cs.stop:
			return
		case <-ticker.C:
			now := time.Now()
			cs.mu.Lock()
			for k, v := range cs.cache {
				if v.expires.Before(now) {
					delete(cs.cache, k)
				}
			}
			cs.mu.Unlock()
		}
	}
}
