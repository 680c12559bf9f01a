package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hafleet/dashboard/internal/cache"
	"github.com/hafleet/dashboard/internal/concurrent"
	"github.com/hafleet/dashboard/internal/config"
	"github.com/hafleet/dashboard/internal/metrics"
	"github.com/hafleet/dashboard/internal/model"
	"github.com/hafleet/dashboard/internal/repository"
)

// Poller refreshes per-kind snapshots from the backend on a fixed interval so
// reads are served from warm cache. The surrounding request path falls through
// to the backend on a cache miss, so a slow or failed cycle degrades to
// on-demand fetching rather than stale errors.
type Poller struct {
	cfg    config.PollConfig
	repo   repository.FleetBackend
	cache  cache.Store
	logger *slog.Logger

	// Snapshots outlive one interval so a single failed cycle does not empty
	// the dashboard.
	snapshotTTL time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup

	mu             sync.Mutex
	failureCounter map[string]int // data kind -> consecutive failures
}

// New creates a new background poller
func New(cfg config.PollConfig, repo repository.FleetBackend, store cache.Store, logger *slog.Logger) *Poller {
	return &Poller{
		cfg:            cfg,
		repo:           repo,
		cache:          store,
		logger:         logger,
		snapshotTTL:    cfg.Interval * 3,
		stopCh:         make(chan struct{}),
		failureCounter: make(map[string]int),
	}
}

// Start begins the refresh loop in a background goroutine
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("starting poller",
		slog.Duration("interval", p.cfg.Interval),
	)

	p.wg.Add(1)
	go p.run(ctx)
}

// Stop gracefully stops the poller
func (p *Poller) Stop() {
	p.logger.Info("stopping poller")
	close(p.stopCh)
	p.wg.Wait()
	p.logger.Info("poller stopped")
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.refreshCycle(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refreshCycle(ctx)
		}
	}
}

// refreshCycle fetches every data kind for every instance into the cache.
func (p *Poller) refreshCycle(ctx context.Context) {
	start := time.Now()

	instances, err := p.repo.ListInstances(ctx)
	if err != nil {
		p.recordFailure("instances", err)
		metrics.ObservePollCycle(time.Since(start))
		return
	}
	p.recordSuccess("instances")
	p.cache.Set(cache.KeyInstances, instances, p.snapshotTTL)

	concurrent.MapWithLimit(ctx, instances, p.cfg.MaxConcurrent,
		func(ctx context.Context, inst model.Instance) (struct{}, error) {
			p.refreshInstance(ctx, inst.ID)
			return struct{}{}, nil
		})

	if codes, err := p.repo.ListEnrollmentCodes(ctx); err != nil {
		p.recordFailure("enrollment-codes", err)
	} else {
		p.recordSuccess("enrollment-codes")
		p.cache.Set(cache.KeyEnrollmentCodes, codes, p.snapshotTTL)
	}

	metrics.ObservePollCycle(time.Since(start))

	p.logger.Debug("poll cycle complete",
		slog.Int("instances", len(instances)),
		slog.Duration("took", time.Since(start)),
	)
}

func (p *Poller) refreshInstance(ctx context.Context, id string) {
	if info, err := p.repo.GetSystemInfo(ctx, id); err != nil {
		p.recordFailure(cache.KindSystemInfo, err)
	} else {
		p.recordSuccess(cache.KindSystemInfo)
		p.cache.Set(cache.InstanceKey(cache.KindSystemInfo, id), info, p.snapshotTTL)
	}

	if updates, err := p.repo.ListUpdates(ctx, id); err != nil {
		p.recordFailure(cache.KindUpdates, err)
	} else {
		p.recordSuccess(cache.KindUpdates)
		p.cache.Set(cache.InstanceKey(cache.KindUpdates, id), updates, p.snapshotTTL)
	}

	if beats, err := p.repo.ListHeartbeats(ctx, id, p.cfg.HeartbeatWindow); err != nil {
		p.recordFailure(cache.KindHeartbeats, err)
	} else {
		p.recordSuccess(cache.KindHeartbeats)
		p.cache.Set(cache.InstanceKey(cache.KindHeartbeats, id), beats, p.snapshotTTL)
	}

	if checks, err := p.repo.ListConnectivityChecks(ctx, id, p.cfg.ConnectivityWindow); err != nil {
		p.recordFailure(cache.KindConnectivity, err)
	} else {
		p.recordSuccess(cache.KindConnectivity)
		p.cache.Set(cache.InstanceKey(cache.KindConnectivity, id), checks, p.snapshotTTL)
	}
}

func (p *Poller) recordFailure(kind string, err error) {
	metrics.ObservePollFailure(kind)

	p.mu.Lock()
	p.failureCounter[kind]++
	failures := p.failureCounter[kind]
	p.mu.Unlock()

	p.logger.Warn("poll fetch failed",
		slog.String("kind", kind),
		slog.Int("consecutive_failures", failures),
		slog.String("error", err.Error()),
	)
}

func (p *Poller) recordSuccess(kind string) {
	p.mu.Lock()
	previous := p.failureCounter[kind]
	p.failureCounter[kind] = 0
	p.mu.Unlock()

	if previous > 0 {
		p.logger.Info("poll fetch recovered",
			slog.String("kind", kind),
			slog.Int("previous_failures", previous),
		)
	}
}
