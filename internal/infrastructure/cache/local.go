package cache

import (
	"context"
	"sync"
	"time"
)

type item[V any] struct {
	value     V
	expiresAt time.Time
}

// Local is a typed in-process TTL map. A background loop evicts expired
// entries until Close is called.
type Local[V any] struct {
	mu        sync.RWMutex
	items     map[string]item[V]
	ttl       time.Duration
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewLocal creates a Local cache whose entries default to ttl
func NewLocal[V any](ttl time.Duration) *Local[V] {
	l := &Local[V]{
		items:    make(map[string]item[V]),
		ttl:      ttl,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	l.wg.Add(1)
	go l.cleanupLoop()
	return l
}

// Get returns the live value for key
func (l *Local[V]) Get(key string) (V, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	it, ok := l.items[key]
	if !ok || !l.now().Before(it.expiresAt) {
		var zero V
		return zero, false
	}
	return it.value, true
}

// Set stores value with the default ttl
func (l *Local[V]) Set(key string, value V) {
	l.SetWithTTL(key, value, l.ttl)
}

// SetWithTTL stores value with an explicit ttl
func (l *Local[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items[key] = item[V]{value: value, expiresAt: l.now().Add(ttl)}
}

// Delete removes key
func (l *Local[V]) Delete(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.items, key)
}

// Len returns the number of stored entries, expired ones included until evicted
func (l *Local[V]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (l *Local[V]) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopChan)
		l.wg.Wait()
	})
	return nil
}

func (l *Local[V]) cleanupLoop() {
	defer l.wg.Done()

	interval := l.ttl
	if interval <= 0 || interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.evictExpired()
		}
	}
}

func (l *Local[V]) evictExpired() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, it := range l.items {
		if !now.Before(it.expiresAt) {
			delete(l.items, k)
		}
	}
}

// MemoryCache adapts Local to the Cache interface for single-instance deployments
type MemoryCache struct {
	*Local[[]byte]
}

// NewMemoryCache creates an in-process Cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{Local: NewLocal[[]byte](5 * time.Minute)}
}

// Get returns a copy of the value or ErrMiss
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.Local.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value with ttl
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.Local.SetWithTTL(key, append([]byte(nil), value...), ttl)
	return nil
}

// Delete removes key
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.Local.Delete(key)
	return nil
}

var _ Cache = (*MemoryCache)(nil)
