package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/hafleet/dashboard/internal/cache"
	"github.com/hafleet/dashboard/internal/concurrent"
	"github.com/hafleet/dashboard/internal/config"
	"github.com/hafleet/dashboard/internal/model"
	"github.com/hafleet/dashboard/internal/repository"
)

// refreshDelay is how long after a successful mutation the affected snapshots
// are re-fetched. Until then a concurrent poll may still observe pre-mutation
// state; the dashboard accepts that eventual-consistency gap.
const refreshDelay = 2 * time.Second

// FleetService defines the operations the dashboard API exposes over the fleet.
type FleetService interface {
	Overview(ctx context.Context) (*model.FleetOverview, error)
	ListInstances(ctx context.Context) ([]model.InstanceOverview, error)
	GetInstance(ctx context.Context, id string) (*model.InstanceDetail, error)
	Heartbeats(ctx context.Context, id string) ([]model.Heartbeat, error)
	Connectivity(ctx context.Context, id string) (*model.ConnectivitySummary, error)
	LatencySeries(ctx context.Context, id, target string) ([]model.LatencyPoint, error)
	Updates(ctx context.Context, id string) ([]model.AvailableUpdate, error)
	EnrollmentCodes(ctx context.Context) ([]model.EnrollmentCode, error)
	CreateEnrollmentCode(ctx context.Context) (*model.EnrollmentCode, error)
	TriggerUpdate(ctx context.Context, id string) error
	DeleteInstance(ctx context.Context, id string) error
}

// fleetService implements FleetService on top of the backend client and the
// snapshot cache. Reads are served from the cache when the poller has a fresh
// snapshot and fall through to the backend otherwise.
type fleetService struct {
	repo               repository.FleetBackend
	cache              cache.Store
	ttl                time.Duration
	heartbeatWindow    time.Duration
	connectivityWindow time.Duration
	maxConcurrent      int
	refreshDelay       time.Duration
	now                func() time.Time
	logger             *slog.Logger
}

// NewFleetService creates a new fleet service
func NewFleetService(
	repo repository.FleetBackend,
	store cache.Store,
	cfg *config.Config,
	logger *slog.Logger,
) FleetService {
	return &fleetService{
		repo:               repo,
		cache:              store,
		ttl:                cfg.Cache.TTL,
		heartbeatWindow:    cfg.Poll.HeartbeatWindow,
		connectivityWindow: cfg.Poll.ConnectivityWindow,
		maxConcurrent:      cfg.Poll.MaxConcurrent,
		refreshDelay:       refreshDelay,
		now:                time.Now,
		logger:             logger,
	}
}

func (s *fleetService) Overview(ctx context.Context) (*model.FleetOverview, error) {
	overviews, err := s.ListInstances(ctx)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{
		model.TierFresh:         0,
		model.TierSlightlyStale: 0,
		model.TierStale:         0,
		model.TierUnknown:       0,
	}
	for _, overview := range overviews {
		counts[overview.Status.Tier]++
	}

	return &model.FleetOverview{
		GeneratedAt: s.now().UnixMilli(),
		Counts:      counts,
		Instances:   overviews,
	}, nil
}

func (s *fleetService) ListInstances(ctx context.Context) ([]model.InstanceOverview, error) {
	instances, err := s.instances(ctx)
	if err != nil {
		return nil, err
	}

	nowMs := s.now().UnixMilli()

	results := concurrent.MapWithLimit(ctx, instances, s.maxConcurrent,
		func(ctx context.Context, inst model.Instance) (model.InstanceOverview, error) {
			overview := model.InstanceOverview{
				Instance: inst,
				Status:   model.Classify(inst.LastSeen, nowMs),
			}

			// A failed updates fetch degrades to "no pending updates" rather
			// than failing the whole listing.
			updates, err := s.updates(ctx, inst.ID)
			if err != nil {
				s.logger.Warn("failed to fetch updates for instance",
					slog.String("instance_id", inst.ID),
					slog.String("error", err.Error()),
				)
			} else {
				overview.PendingUpdates = len(updates)
			}

			return overview, nil
		})

	return concurrent.Values(results), nil
}

func (s *fleetService) GetInstance(ctx context.Context, id string) (*model.InstanceDetail, error) {
	instance, err := s.repo.GetInstance(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &model.InstanceDetail{
		InstanceOverview: model.InstanceOverview{
			Instance: *instance,
			Status:   model.Classify(instance.LastSeen, s.now().UnixMilli()),
		},
		Updates: []model.AvailableUpdate{},
	}

	if updates, err := s.updates(ctx, id); err != nil {
		s.logger.Warn("failed to fetch updates for instance",
			slog.String("instance_id", id),
			slog.String("error", err.Error()),
		)
	} else {
		detail.Updates = updates
		detail.PendingUpdates = len(updates)
	}

	if info, err := s.systemInfo(ctx, id); err != nil {
		s.logger.Warn("failed to fetch system info for instance",
			slog.String("instance_id", id),
			slog.String("error", err.Error()),
		)
	} else {
		detail.SystemInfo = info
	}

	if summary, err := s.Connectivity(ctx, id); err != nil {
		s.logger.Warn("failed to fetch connectivity for instance",
			slog.String("instance_id", id),
			slog.String("error", err.Error()),
		)
	} else {
		detail.Connectivity = summary
	}

	return detail, nil
}

func (s *fleetService) Heartbeats(ctx context.Context, id string) ([]model.Heartbeat, error) {
	return s.heartbeats(ctx, id)
}

func (s *fleetService) Connectivity(ctx context.Context, id string) (*model.ConnectivitySummary, error) {
	checks, err := s.connectivityChecks(ctx, id)
	if err != nil {
		return nil, err
	}

	summary := model.Summarize(checks)
	return &summary, nil
}

func (s *fleetService) LatencySeries(ctx context.Context, id, target string) ([]model.LatencyPoint, error) {
	checks, err := s.connectivityChecks(ctx, id)
	if err != nil {
		return nil, err
	}

	return model.LatencySeries(checks, target), nil
}

func (s *fleetService) Updates(ctx context.Context, id string) ([]model.AvailableUpdate, error) {
	return s.updates(ctx, id)
}

func (s *fleetService) EnrollmentCodes(ctx context.Context) ([]model.EnrollmentCode, error) {
	if v, ok := s.cache.Get(cache.KeyEnrollmentCodes); ok {
		return v.([]model.EnrollmentCode), nil
	}

	codes, err := s.repo.ListEnrollmentCodes(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cache.KeyEnrollmentCodes, codes, s.ttl)
	return codes, nil
}

func (s *fleetService) CreateEnrollmentCode(ctx context.Context) (*model.EnrollmentCode, error) {
	code, err := s.repo.CreateEnrollmentCode(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.Delete(cache.KeyEnrollmentCodes)
	return code, nil
}

func (s *fleetService) TriggerUpdate(ctx context.Context, id string) error {
	if err := s.repo.TriggerUpdate(ctx, id); err != nil {
		return err
	}

	s.cache.Delete(cache.InstanceKey(cache.KindUpdates, id))

	s.scheduleRefresh(func(ctx context.Context) {
		if _, err := s.updates(ctx, id); err != nil {
			s.logger.Warn("post-update refresh failed",
				slog.String("instance_id", id),
				slog.String("error", err.Error()),
			)
		}
		s.cache.Delete(cache.KeyInstances)
		if _, err := s.instances(ctx); err != nil {
			s.logger.Warn("post-update instance refresh failed",
				slog.String("error", err.Error()),
			)
		}
	})

	return nil
}

func (s *fleetService) DeleteInstance(ctx context.Context, id string) error {
	if err := s.repo.DeleteInstance(ctx, id); err != nil {
		return err
	}

	s.cache.Delete(cache.KeyInstances)
	s.cache.DeleteInstance(id)

	s.scheduleRefresh(func(ctx context.Context) {
		if _, err := s.instances(ctx); err != nil {
			s.logger.Warn("post-delete instance refresh failed",
				slog.String("error", err.Error()),
			)
		}
	})

	return nil
}

// scheduleRefresh runs fn after the mutation settle delay. The refresh runs on
// its own context: the originating HTTP request is long finished by then.
func (s *fleetService) scheduleRefresh(fn func(ctx context.Context)) {
	time.AfterFunc(s.refreshDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		fn(ctx)
	})
}

func (s *fleetService) instances(ctx context.Context) ([]model.Instance, error) {
	if v, ok := s.cache.Get(cache.KeyInstances); ok {
		return v.([]model.Instance), nil
	}

	instances, err := s.repo.ListInstances(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cache.KeyInstances, instances, s.ttl)
	return instances, nil
}

func (s *fleetService) updates(ctx context.Context, id string) ([]model.AvailableUpdate, error) {
	key := cache.InstanceKey(cache.KindUpdates, id)
	if v, ok := s.cache.Get(key); ok {
		return v.([]model.AvailableUpdate), nil
	}

	updates, err := s.repo.ListUpdates(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, updates, s.ttl)
	return updates, nil
}

func (s *fleetService) systemInfo(ctx context.Context, id string) (*model.SystemInfo, error) {
	key := cache.InstanceKey(cache.KindSystemInfo, id)
	if v, ok := s.cache.Get(key); ok {
		return v.(*model.SystemInfo), nil
	}

	info, err := s.repo.GetSystemInfo(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, info, s.ttl)
	return info, nil
}

func (s *fleetService) heartbeats(ctx context.Context, id string) ([]model.Heartbeat, error) {
	key := cache.InstanceKey(cache.KindHeartbeats, id)
	if v, ok := s.cache.Get(key); ok {
		return v.([]model.Heartbeat), nil
	}

	beats, err := s.repo.ListHeartbeats(ctx, id, s.heartbeatWindow)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, beats, s.ttl)
	return beats, nil
}

func (s *fleetService) connectivityChecks(ctx context.Context, id string) ([]model.ConnectivityCheck, error) {
	key := cache.InstanceKey(cache.KindConnectivity, id)
	if v, ok := s.cache.Get(key); ok {
		return v.([]model.ConnectivityCheck), nil
	}

	checks, err := s.repo.ListConnectivityChecks(ctx, id, s.connectivityWindow)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, checks, s.ttl)
	return checks, nil
}
