package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetGetDelete(t *testing.T) {
	store := New(time.Minute)

	store.Set(KeyInstances, "snapshot", time.Minute)

	v, ok := store.Get(KeyInstances)
	assert.True(t, ok)
	assert.Equal(t, "snapshot", v)

	store.Delete(KeyInstances)
	_, ok = store.Get(KeyInstances)
	assert.False(t, ok)
}

func TestTTLExpiry(t *testing.T) {
	store := New(time.Minute)

	store.Set("short-lived", 1, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		_, ok := store.Get("short-lived")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestDeleteInstance_EvictsAllKinds(t *testing.T) {
	store := New(time.Minute)

	for _, kind := range []string{KindSystemInfo, KindUpdates, KindHeartbeats, KindConnectivity} {
		store.Set(InstanceKey(kind, "a"), kind, time.Minute)
		store.Set(InstanceKey(kind, "b"), kind, time.Minute)
	}

	store.DeleteInstance("a")

	for _, kind := range []string{KindSystemInfo, KindUpdates, KindHeartbeats, KindConnectivity} {
		_, ok := store.Get(InstanceKey(kind, "a"))
		assert.False(t, ok, "kind %s for a should be evicted", kind)
		_, ok = store.Get(InstanceKey(kind, "b"))
		assert.True(t, ok, "kind %s for b should survive", kind)
	}
}

func TestInstanceKey(t *testing.T) {
	assert.Equal(t, "heartbeats/i1", InstanceKey(KindHeartbeats, "i1"))
}
