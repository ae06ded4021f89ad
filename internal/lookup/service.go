package lookup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/treecover-lookup-service/internal/domain"
	"github.com/couchcryptid/treecover-lookup-service/internal/observability"
)

// Service-level statuses reported before a snapshot can be classified.
const (
	StatusLoading   domain.Status = "loading"
	StatusLoadError domain.Status = "load-error"
)

// State is the lifecycle state of the served dataset.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "load-error"
)

// ErrStaleLoad is returned by Load when a newer load started before it finished.
var ErrStaleLoad = errors.New("load superseded by a newer generation")

// Source yields the raw dataset payload.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	Describe() string
}

// SnapshotPublisher announces a newly served snapshot.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, snap Snapshot) error
}

// LoadError is a failed load attempt. No partial index is ever served.
type LoadError struct {
	Stage string // fetch or parse
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s dataset: %v", e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Status describes the service's current dataset.
type Status struct {
	State      State     `json:"state"`
	Generation uint64    `json:"generation"`
	Message    string    `json:"message,omitempty"`
	Snapshot   *Snapshot `json:"snapshot,omitempty"`
}

// Result is the resolved view of one province/district pair.
type Result struct {
	domain.Resolution
	Message       string            `json:"message,omitempty"`
	Key           string            `json:"key,omitempty"`
	ProvinceLabel string            `json:"province_label,omitempty"`
	DistrictLabel string            `json:"district_label,omitempty"`
	Record        *domain.RawRecord `json:"record"`
}

// Service owns the dataset lifecycle and the user's selection. Loads are
// tagged with a generation so a superseded load never replaces a newer one.
type Service struct {
	source    Source
	publisher SnapshotPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	names     *normalizeCache

	mu         sync.Mutex
	generation uint64
	state      State
	message    string
	snapshot   *Snapshot
	selection  *domain.SelectionController
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher announces every successful load through p.
func WithPublisher(p SnapshotPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithNormalizeCache bounds the memo used for runtime-typed names.
func WithNormalizeCache(size int) Option {
	return func(s *Service) { s.names = newNormalizeCache(size, s.metrics) }
}

// NewService creates a Service in the loading state. Call Load to serve data.
func NewService(src Source, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		source:    src,
		logger:    logger,
		metrics:   metrics,
		state:     StateLoading,
		selection: domain.NewSelectionController(),
	}
	s.names = newNormalizeCache(0, metrics)
	for _, opt := range opts {
		opt(s)
	}
	s.selection.UseNormalizer(s.names.normalize)
	return s
}

// Load fetches, parses, and indexes the dataset, then swaps it in. While the
// load is pending the service reports loading and serves no selection. A load
// overtaken by a newer one returns ErrStaleLoad and changes nothing.
func (s *Service) Load(ctx context.Context) (Snapshot, error) {
	gen := s.begin()
	started := clock.Now()
	s.logger.Info("dataset load started", "generation", gen, "source", s.source.Describe())

	idx, err := s.fetchAndBuild(ctx)
	s.metrics.LoadDuration.Observe(clock.Since(started).Seconds())

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.metrics.Loads.WithLabelValues("stale").Inc()
		s.logger.Info("discarding stale dataset load", "generation", gen)
		return Snapshot{}, ErrStaleLoad
	}
	if err != nil {
		s.state = StateError
		s.message = err.Error()
		s.mu.Unlock()
		s.metrics.Loads.WithLabelValues("error").Inc()
		s.logger.Error("dataset load failed", "generation", gen, "error", err)
		return Snapshot{}, err
	}

	snap := newSnapshot(gen, s.source.Describe(), started, idx.Stats())
	s.state = StateReady
	s.message = ""
	s.snapshot = &snap
	sel := s.selection.SetIndex(idx)
	s.mu.Unlock()

	s.recordSnapshot(snap)
	s.logger.Info("dataset loaded",
		"generation", gen,
		"snapshot_id", snap.ID,
		"records", snap.Stats.Indexed,
		"provinces", snap.Stats.Provinces,
		"skipped", snap.Stats.SkippedTotal,
		"collisions", snap.Stats.Collisions,
		"key_mismatches", snap.Stats.KeyMismatch,
		"selection", sel.Key(),
	)
	if snap.Stats.KeyMismatch > 0 {
		s.logger.Warn("dataset keys differ from canonical keys; check the producer's normalization",
			"count", snap.Stats.KeyMismatch)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishSnapshot(ctx, snap); err != nil {
			s.metrics.EventsPublished.WithLabelValues("error").Inc()
			s.logger.Warn("publish snapshot event failed", "snapshot_id", snap.ID, "error", err)
		} else {
			s.metrics.EventsPublished.WithLabelValues("success").Inc()
		}
	}
	return snap, nil
}

// begin starts a new generation and clears the served dataset.
func (s *Service) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.state = StateLoading
	s.message = ""
	s.snapshot = nil
	s.selection.Clear()

	s.metrics.Generation.Set(float64(s.generation))
	s.metrics.SnapshotsLoaded.Set(0)
	s.metrics.IndexedRecords.Set(0)
	return s.generation
}

func (s *Service) fetchAndBuild(ctx context.Context) (*domain.Index, error) {
	payload, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, &LoadError{Stage: "fetch", Err: err}
	}
	ds, err := domain.ParseDataset(bytes.NewReader(payload))
	if err != nil {
		return nil, &LoadError{Stage: "parse", Err: err}
	}
	return domain.Build(ds, s.logger), nil
}

func (s *Service) recordSnapshot(snap Snapshot) {
	s.metrics.Loads.WithLabelValues("success").Inc()
	s.metrics.SnapshotsLoaded.Set(1)
	s.metrics.IndexedRecords.Set(float64(snap.Stats.Indexed))
	s.metrics.SkippedEntries.Set(float64(snap.Stats.SkippedTotal))
	s.metrics.KeyCollisions.Set(float64(snap.Stats.Collisions))
	s.metrics.KeyMismatches.Set(float64(snap.Stats.KeyMismatch))
}

// Status returns the current lifecycle state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{State: s.state, Generation: s.generation, Message: s.message}
	if s.snapshot != nil {
		snap := *s.snapshot
		st.Snapshot = &snap
	}
	return st
}

// CheckReadiness returns nil once a snapshot is being served.
func (s *Service) CheckReadiness(_ context.Context) error {
	st := s.Status()
	switch st.State {
	case StateReady:
		return nil
	case StateError:
		return fmt.Errorf("dataset load failed: %s", st.Message)
	default:
		return errors.New("dataset is still loading")
	}
}

// Index returns the served snapshot, or nil while loading or after a failure.
func (s *Service) Index() *domain.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Index()
}

// Provinces lists provinces in Turkish alphabetical order.
func (s *Service) Provinces() []domain.ProvinceEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Provinces()
}

// Districts lists the districts of a province. The province may be given as a
// key or a display name.
func (s *Service) Districts(province string) []domain.DistrictEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Districts(province)
}

// Select applies a user selection and returns the repaired result.
func (s *Service) Select(province, district string) domain.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Select(province, district)
}

// Selection returns the current selection.
func (s *Service) Selection() domain.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Selection()
}

// SelectAndResolve applies a user selection and resolves it under the same
// lock, so the result always belongs to the returned selection.
func (s *Service) SelectAndResolve(province, district string) (domain.Selection, Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.selection.Select(province, district)
	return sel, s.resultLocked()
}

// Result resolves the current selection.
func (s *Service) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resultLocked()
}

func (s *Service) resultLocked() Result {
	if res, ok := s.unavailableLocked(); !ok {
		return res
	}
	sel := s.selection.Selection()
	return s.resolveLocked(sel.ProvinceKey, sel.DistrictKey)
}

// Lookup resolves free-text names against the served snapshot without
// touching the selection.
func (s *Service) Lookup(province, district string) Result {
	pk, dk := s.names.normalize(province), s.names.normalize(district)

	s.mu.Lock()
	defer s.mu.Unlock()

	if res, ok := s.unavailableLocked(); !ok {
		return res
	}
	return s.resolveLocked(pk, dk)
}

// unavailableLocked reports the loading or load-error result when no snapshot
// is served. The bool is true when a snapshot is available.
func (s *Service) unavailableLocked() (Result, bool) {
	switch s.state {
	case StateReady:
		return Result{}, true
	case StateError:
		return Result{
			Resolution: domain.Resolution{Status: StatusLoadError, Years: domain.DefaultYearsTarget},
			Message:    s.message,
		}, false
	default:
		return Result{
			Resolution: domain.Resolution{Status: StatusLoading, Years: domain.DefaultYearsTarget},
		}, false
	}
}

func (s *Service) resolveLocked(provinceKey, districtKey string) Result {
	idx := s.selection.Index()
	key := domain.JoinKey(provinceKey, districtKey)

	var rec *domain.RawRecord
	if r, ok := idx.Lookup(key); ok {
		rec = &r
	}
	res := Result{Resolution: domain.Resolve(rec), Key: key, Record: rec}
	if p, ok := idx.Province(provinceKey); ok {
		res.ProvinceLabel = p.Label
	}
	if d, ok := idx.District(provinceKey, districtKey); ok {
		res.DistrictLabel = d.Label
	}
	s.metrics.Resolutions.WithLabelValues(string(res.Status)).Inc()
	return res
}
