package cache

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Snapshot keys for fleet-wide data kinds. Per-instance kinds are keyed with
// InstanceKey.
const (
	KeyInstances       = "instances"
	KeyEnrollmentCodes = "enrollment-codes"

	KindSystemInfo   = "system-info"
	KindUpdates      = "updates"
	KindHeartbeats   = "heartbeats"
	KindConnectivity = "connectivity"
)

// Store holds the freshest polled snapshot per data kind. Readers treat a
// missing entry as "fetch from the backend"; there is no negative caching.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
	DeleteInstance(instanceID string)
	Clear()
}

// InstanceKey builds the cache key for an instance-scoped data kind.
func InstanceKey(kind, instanceID string) string {
	return fmt.Sprintf("%s/%s", kind, instanceID)
}

// TTLStore implements Store with time-to-live support
type TTLStore struct {
	data *gocache.Cache
}

// New creates a new TTL snapshot store with default cleanup interval
func New(defaultTTL time.Duration) *TTLStore {
	cleanupInterval := defaultTTL * 2
	return &TTLStore{
		data: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a snapshot from the store
func (s *TTLStore) Get(key string) (any, bool) {
	return s.data.Get(key)
}

// Set stores a snapshot with the specified TTL
func (s *TTLStore) Set(key string, value any, ttl time.Duration) {
	s.data.Set(key, value, ttl)
}

// Delete removes a snapshot from the store
func (s *TTLStore) Delete(key string) {
	s.data.Delete(key)
}

// DeleteInstance removes every per-instance snapshot for the given instance.
// Used after mutations so the next read observes post-mutation state.
func (s *TTLStore) DeleteInstance(instanceID string) {
	for _, kind := range []string{KindSystemInfo, KindUpdates, KindHeartbeats, KindConnectivity} {
		s.data.Delete(InstanceKey(kind, instanceID))
	}
}

// Clear removes all snapshots
func (s *TTLStore) Clear() {
	s.data.Flush()
}
