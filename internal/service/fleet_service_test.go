package service

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hafleet/dashboard/internal/cache"
	"github.com/hafleet/dashboard/internal/config"
	"github.com/hafleet/dashboard/internal/model"
	"github.com/hafleet/dashboard/internal/repository"
)

// fakeBackend implements repository.FleetBackend with per-method counters so
// tests can assert cache behavior.
type fakeBackend struct {
	instances      []model.Instance
	updates        map[string][]model.AvailableUpdate
	heartbeats     map[string][]model.Heartbeat
	checks         map[string][]model.ConnectivityCheck
	systemInfo     map[string]*model.SystemInfo
	codes          []model.EnrollmentCode
	listCalls      atomic.Int32
	updateCalls    atomic.Int32
	triggerCalls   atomic.Int32
	deleteCalls    atomic.Int32
	failList       bool
	failTrigger    bool
	failingUpdates map[string]bool
}

func (f *fakeBackend) ListInstances(context.Context) ([]model.Instance, error) {
	f.listCalls.Add(1)
	if f.failList {
		return nil, errors.New("backend down")
	}
	return f.instances, nil
}

func (f *fakeBackend) GetInstance(_ context.Context, id string) (*model.Instance, error) {
	for i := range f.instances {
		if f.instances[i].ID == id {
			return &f.instances[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBackend) GetSystemInfo(_ context.Context, id string) (*model.SystemInfo, error) {
	if info, ok := f.systemInfo[id]; ok {
		return info, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBackend) ListUpdates(_ context.Context, id string) ([]model.AvailableUpdate, error) {
	f.updateCalls.Add(1)
	if f.failingUpdates[id] {
		return nil, errors.New("updates unavailable")
	}
	return f.updates[id], nil
}

func (f *fakeBackend) ListHeartbeats(_ context.Context, id string, _ time.Duration) ([]model.Heartbeat, error) {
	return f.heartbeats[id], nil
}

func (f *fakeBackend) ListConnectivityChecks(_ context.Context, id string, _ time.Duration) ([]model.ConnectivityCheck, error) {
	return f.checks[id], nil
}

func (f *fakeBackend) ListEnrollmentCodes(context.Context) ([]model.EnrollmentCode, error) {
	return f.codes, nil
}

func (f *fakeBackend) CreateEnrollmentCode(context.Context) (*model.EnrollmentCode, error) {
	code := model.EnrollmentCode{Code: "NEW-CODE"}
	f.codes = append(f.codes, code)
	return &code, nil
}

func (f *fakeBackend) TriggerUpdate(_ context.Context, _ string) error {
	f.triggerCalls.Add(1)
	if f.failTrigger {
		return errors.New("trigger failed")
	}
	return nil
}

func (f *fakeBackend) DeleteInstance(_ context.Context, id string) error {
	f.deleteCalls.Add(1)
	filtered := f.instances[:0]
	for _, inst := range f.instances {
		if inst.ID != id {
			filtered = append(filtered, inst)
		}
	}
	f.instances = filtered
	return nil
}

func newTestService(backend *fakeBackend) *fleetService {
	cfg := &config.Config{}
	cfg.Cache.TTL = time.Minute
	cfg.Poll.HeartbeatWindow = 24 * time.Hour
	cfg.Poll.ConnectivityWindow = 24 * time.Hour
	cfg.Poll.MaxConcurrent = 4

	svc := NewFleetService(backend, cache.New(time.Minute), cfg, slog.Default()).(*fleetService)
	svc.refreshDelay = 5 * time.Millisecond
	return svc
}

func ts(minutesAgo int, now time.Time) *int64 {
	v := now.Add(-time.Duration(minutesAgo) * time.Minute).UnixMilli()
	return &v
}

func TestListInstances_ClassifiesAndCounts(t *testing.T) {
	now := time.Now()
	backend := &fakeBackend{
		instances: []model.Instance{
			{ID: "fresh", LastSeen: ts(0, now)},
			{ID: "slightly", LastSeen: ts(2, now)},
			{ID: "stale", LastSeen: ts(30, now)},
			{ID: "never"},
		},
		updates: map[string][]model.AvailableUpdate{
			"fresh": {{Component: "core", LatestVersion: "2026.9.0"}},
		},
	}
	svc := newTestService(backend)

	overviews, err := svc.ListInstances(context.Background())
	require.NoError(t, err)
	require.Len(t, overviews, 4)

	byID := map[string]model.InstanceOverview{}
	for _, o := range overviews {
		byID[o.Instance.ID] = o
	}
	assert.Equal(t, model.TierFresh, byID["fresh"].Status.Tier)
	assert.Equal(t, model.TierSlightlyStale, byID["slightly"].Status.Tier)
	assert.Equal(t, model.TierStale, byID["stale"].Status.Tier)
	assert.Equal(t, model.TierUnknown, byID["never"].Status.Tier)
	assert.Equal(t, 1, byID["fresh"].PendingUpdates)
}

func TestOverview_TierCounts(t *testing.T) {
	now := time.Now()
	backend := &fakeBackend{
		instances: []model.Instance{
			{ID: "a", LastSeen: ts(0, now)},
			{ID: "b", LastSeen: ts(0, now)},
			{ID: "c"},
		},
	}
	svc := newTestService(backend)

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, overview.Counts[model.TierFresh])
	assert.Equal(t, 1, overview.Counts[model.TierUnknown])
	assert.Equal(t, 0, overview.Counts[model.TierStale])
	assert.NotZero(t, overview.GeneratedAt)
}

func TestListInstances_ServedFromCache(t *testing.T) {
	backend := &fakeBackend{instances: []model.Instance{{ID: "a"}}}
	svc := newTestService(backend)

	_, err := svc.ListInstances(context.Background())
	require.NoError(t, err)
	_, err = svc.ListInstances(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), backend.listCalls.Load())
}

func TestListInstances_UpdatesFailureDegrades(t *testing.T) {
	backend := &fakeBackend{
		instances:      []model.Instance{{ID: "a"}},
		failingUpdates: map[string]bool{"a": true},
	}
	svc := newTestService(backend)

	overviews, err := svc.ListInstances(context.Background())
	require.NoError(t, err)
	require.Len(t, overviews, 1)
	assert.Zero(t, overviews[0].PendingUpdates)
}

func TestGetInstance_NotFound(t *testing.T) {
	svc := newTestService(&fakeBackend{})

	_, err := svc.GetInstance(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetInstance_Detail(t *testing.T) {
	now := time.Now()
	backend := &fakeBackend{
		instances: []model.Instance{{ID: "a", Name: "Hallway", LastSeen: ts(0, now)}},
		systemInfo: map[string]*model.SystemInfo{
			"a": {InstanceID: "a", Hostname: "hallway-pi"},
		},
		updates: map[string][]model.AvailableUpdate{
			"a": {{Component: "core"}},
		},
		checks: map[string][]model.ConnectivityCheck{
			"a": {{Target: "8.8.8.8", Timestamp: 100, PublicIP: "203.0.113.9"}},
		},
	}
	svc := newTestService(backend)

	detail, err := svc.GetInstance(context.Background(), "a")
	require.NoError(t, err)

	assert.Equal(t, "Hallway", detail.Instance.Name)
	require.NotNil(t, detail.SystemInfo)
	assert.Equal(t, "hallway-pi", detail.SystemInfo.Hostname)
	assert.Equal(t, 1, detail.PendingUpdates)
	require.NotNil(t, detail.Connectivity)
	require.NotNil(t, detail.Connectivity.LatestWithIP)
	assert.Equal(t, "203.0.113.9", detail.Connectivity.LatestWithIP.PublicIP)
}

func TestConnectivity_Summarizes(t *testing.T) {
	backend := &fakeBackend{
		checks: map[string][]model.ConnectivityCheck{
			"a": {
				{Target: "8.8.8.8", Timestamp: 100},
				{Target: "8.8.8.8", Timestamp: 200},
				{Target: "1.1.1.1", Timestamp: 150},
			},
		},
	}
	svc := newTestService(backend)

	summary, err := svc.Connectivity(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, summary.LatestByTarget, 2)
	assert.Equal(t, int64(200), summary.LatestByTarget[0].Timestamp)
}

func TestTriggerUpdate_InvalidatesAndRefreshes(t *testing.T) {
	backend := &fakeBackend{instances: []model.Instance{{ID: "a"}}}
	svc := newTestService(backend)

	// warm the caches
	_, err := svc.ListInstances(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), backend.listCalls.Load())

	require.NoError(t, svc.TriggerUpdate(context.Background(), "a"))
	assert.Equal(t, int32(1), backend.triggerCalls.Load())

	// the delayed re-fetch hits the backend again
	assert.Eventually(t, func() bool {
		return backend.listCalls.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestTriggerUpdate_FailurePropagates(t *testing.T) {
	backend := &fakeBackend{failTrigger: true}
	svc := newTestService(backend)

	err := svc.TriggerUpdate(context.Background(), "a")
	require.Error(t, err)
}

func TestDeleteInstance_EvictsSnapshots(t *testing.T) {
	backend := &fakeBackend{instances: []model.Instance{{ID: "a"}, {ID: "b"}}}
	svc := newTestService(backend)

	_, err := svc.ListInstances(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteInstance(context.Background(), "a"))

	assert.Eventually(t, func() bool {
		overviews, err := svc.ListInstances(context.Background())
		return err == nil && len(overviews) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestEnrollmentCodes_CreateInvalidatesList(t *testing.T) {
	backend := &fakeBackend{codes: []model.EnrollmentCode{{Code: "OLD"}}}
	svc := newTestService(backend)

	codes, err := svc.EnrollmentCodes(context.Background())
	require.NoError(t, err)
	require.Len(t, codes, 1)

	_, err = svc.CreateEnrollmentCode(context.Background())
	require.NoError(t, err)

	codes, err = svc.EnrollmentCodes(context.Background())
	require.NoError(t, err)
	assert.Len(t, codes, 2)
}

func TestListInstances_BackendError(t *testing.T) {
	svc := newTestService(&fakeBackend{failList: true})

	_, err := svc.ListInstances(context.Background())
	require.Error(t, err)
}
