package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/treecover-lookup-service/internal/lookup"
	"github.com/couchcryptid/treecover-lookup-service/internal/observability"
	"golang.org/x/time/rate"
)

// Trigger names what asked for a reload.
type Trigger string

const (
	TriggerInitial  Trigger = "initial"
	TriggerSchedule Trigger = "schedule"
	TriggerNotify   Trigger = "notify"
	TriggerAPI      Trigger = "api"
)

// Loader performs one dataset load.
type Loader interface {
	Load(ctx context.Context) (lookup.Snapshot, error)
}

// Reloader turns reload triggers into dataset loads. Triggers arriving faster
// than the minimum interval are dropped. Each accepted trigger starts a load
// that supersedes any load still in flight.
type Reloader struct {
	loader  Loader
	logger  *slog.Logger
	metrics *observability.Metrics
	limiter *rate.Limiter

	requests chan Trigger
	wg       sync.WaitGroup
}

// NewReloader creates a Reloader. A zero minInterval disables throttling.
func NewReloader(loader Loader, logger *slog.Logger, metrics *observability.Metrics, minInterval time.Duration) *Reloader {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Reloader{
		loader:   loader,
		logger:   logger,
		metrics:  metrics,
		limiter:  rate.NewLimiter(limit, 1),
		requests: make(chan Trigger, 1),
	}
}

// Request asks for a reload without blocking. It returns false when the
// trigger was throttled. A request made while another is still queued is
// merged into it.
func (r *Reloader) Request(trigger Trigger) bool {
	if !r.limiter.Allow() {
		r.metrics.ReloadTriggers.WithLabelValues(string(trigger), "throttled").Inc()
		r.logger.Debug("reload throttled", "trigger", trigger)
		return false
	}
	r.metrics.ReloadTriggers.WithLabelValues(string(trigger), "accepted").Inc()
	select {
	case r.requests <- trigger:
	default:
		r.logger.Debug("reload already queued", "trigger", trigger)
	}
	return true
}

// Run performs the initial load, then serves reload requests until the
// context is cancelled. It waits for in-flight loads before returning.
func (r *Reloader) Run(ctx context.Context) error {
	r.logger.Info("reloader started")
	defer r.wg.Wait()

	r.limiter.Allow() // the initial load counts against the first interval
	r.metrics.ReloadTriggers.WithLabelValues(string(TriggerInitial), "accepted").Inc()
	r.start(ctx, TriggerInitial)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reloader stopping", "reason", ctx.Err())
			return nil
		case trigger := <-r.requests:
			r.start(ctx, trigger)
		}
	}
}

func (r *Reloader) start(ctx context.Context, trigger Trigger) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.load(ctx, trigger)
	}()
}

func (r *Reloader) load(ctx context.Context, trigger Trigger) {
	snap, err := r.loader.Load(ctx)
	switch {
	case errors.Is(err, lookup.ErrStaleLoad):
		r.logger.Debug("reload superseded", "trigger", trigger)
	case err != nil:
		r.logger.Error("reload failed", "trigger", trigger, "error", err)
	default:
		r.logger.Info("reload complete",
			"trigger", trigger,
			"snapshot_id", snap.ID,
			"generation", snap.Generation,
		)
	}
}
