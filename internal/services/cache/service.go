// Package cache holds the most recently built portfolio snapshot with a
// time-to-live, coalesces concurrent refresh triggers into a single
// enrichment run, and persists snapshots for warm restarts.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
)

// ErrStillBuilding is returned when no snapshot became available within
// the caller's deadline. It is a retryable condition: the build keeps
// running in the background and installs its result when done.
var ErrStillBuilding = errors.New("portfolio snapshot is still building")

// SnapshotKey is the KV key under which the latest snapshot is persisted.
const SnapshotKey = "portfolio:snapshot:latest"

// State describes the cache lifecycle.
type State string

const (
	// StateEmpty means no snapshot has ever been installed.
	StateEmpty State = "empty"
	// StateWarm means a snapshot is present and younger than the TTL.
	StateWarm State = "warm"
	// StateStale means a snapshot is present but at or past the TTL.
	StateStale State = "stale"
)

// Builder produces a fresh snapshot. Implemented by the portfolio service.
type Builder interface {
	BuildSnapshot(ctx context.Context) (*models.Snapshot, error)
}

// buildRun is one in-flight enrichment run. Callers joining the run wait
// on done and then read snapshot/err.
type buildRun struct {
	done     chan struct{}
	snapshot *models.Snapshot
	err      error
}

// Service is the portfolio snapshot cache.
type Service struct {
	builder Builder
	kv      interfaces.KeyValueStorage // nil disables persistence
	ttl     time.Duration
	logger  arbor.ILogger

	mu         sync.RWMutex
	snapshot   *models.Snapshot
	generation uint64
	inflight   *buildRun
}

// NewService creates a new snapshot cache. kv may be nil to disable
// persistence across restarts.
func NewService(builder Builder, kv interfaces.KeyValueStorage, ttl time.Duration, logger arbor.ILogger) *Service {
	return &Service{
		builder: builder,
		kv:      kv,
		ttl:     ttl,
		logger:  logger,
	}
}

// Get returns the current snapshot if one is present and younger than the
// TTL. Readers never block a refresh in progress.
func (s *Service) Get() (*models.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil || s.snapshot.Age() >= s.ttl {
		return nil, false
	}
	return s.snapshot, true
}

// GetOrBuild returns a fresh-enough snapshot, building one when the cache
// misses. A miss joins the in-flight run if there is one, otherwise starts
// one. When ctx expires before the run finishes, ErrStillBuilding is
// returned and the run continues in the background.
func (s *Service) GetOrBuild(ctx context.Context) (*models.Snapshot, bool, error) {
	if snapshot, ok := s.Get(); ok {
		return snapshot, true, nil
	}

	run := s.startBuild()

	select {
	case <-run.done:
		return run.snapshot, false, run.err
	case <-ctx.Done():
		return nil, false, ErrStillBuilding
	}
}

// Refresh forces a rebuild. The current snapshot is invalidated first, so
// readers fall through to the build until the new snapshot installs. With
// wait=true the call blocks on the run and surfaces its error; with
// wait=false it returns immediately and errors are only logged. Triggers
// arriving while a run is in flight join that run instead of stacking.
func (s *Service) Refresh(ctx context.Context, wait bool) (*models.Snapshot, error) {
	s.mu.Lock()
	s.snapshot = nil
	s.mu.Unlock()

	run := s.startBuild()

	if !wait {
		return nil, nil
	}

	select {
	case <-run.done:
		return run.snapshot, run.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// startBuild returns the in-flight run, starting one when none exists.
// At most one enrichment run executes at a time.
func (s *Service) startBuild() *buildRun {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight != nil {
		return s.inflight
	}

	s.generation++
	generation := s.generation
	run := &buildRun{done: make(chan struct{})}
	s.inflight = run

	go s.runBuild(generation, run)

	return run
}

// runBuild executes one enrichment run detached from any request context:
// a caller abandoning the wait must not cancel the build. The generation
// stamp guards installation — a result that lost the race to a newer run
// is discarded rather than installed.
func (s *Service) runBuild(generation uint64, run *buildRun) {
	snapshot, err := s.builder.BuildSnapshot(context.Background())

	s.mu.Lock()
	if s.inflight == run {
		s.inflight = nil
	}
	current := s.generation == generation
	if current && err == nil {
		s.snapshot = snapshot
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("Enrichment run failed, cached snapshot unchanged")
	} else if !current {
		s.logger.Warn().
			Str("run_id", snapshot.RunID).
			Msg("Discarding enrichment result from superseded run")
	} else {
		s.persist(snapshot)
	}

	run.snapshot = snapshot
	run.err = err
	close(run.done)
}

// StateInfo is a point-in-time view of the cache for the health endpoint.
type StateInfo struct {
	State      State     `json:"state"`
	Refreshing bool      `json:"refreshing"`
	Holdings   int       `json:"holdings"`
	BuiltAt    time.Time `json:"built_at,omitempty"`
}

// Info reports the cache state. The refreshing flag is orthogonal to the
// lifecycle state.
func (s *Service) Info() StateInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := StateInfo{
		State:      StateEmpty,
		Refreshing: s.inflight != nil,
	}
	if s.snapshot != nil {
		info.Holdings = len(s.snapshot.Holdings)
		info.BuiltAt = s.snapshot.BuiltAt
		if s.snapshot.Age() < s.ttl {
			info.State = StateWarm
		} else {
			info.State = StateStale
		}
	}
	return info
}

// persist stores the snapshot in KV storage for warm restarts.
func (s *Service) persist(snapshot *models.Snapshot) {
	if s.kv == nil {
		return
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to marshal snapshot for persistence")
		return
	}

	description := fmt.Sprintf("Portfolio snapshot from run %s, built at %s",
		snapshot.RunID, snapshot.BuiltAt.Format(time.RFC3339))

	if err := s.kv.Set(context.Background(), SnapshotKey, string(data), description); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist snapshot")
	}
}

// LoadPersisted seeds the cache from the last persisted snapshot, keeping
// its original build time so the TTL applies to it like any other
// snapshot. A missing key is not an error.
func (s *Service) LoadPersisted(ctx context.Context) error {
	if s.kv == nil {
		return nil
	}

	pair, err := s.kv.GetPair(ctx, SnapshotKey)
	if err == interfaces.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load persisted snapshot: %w", err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal([]byte(pair.Value), &snapshot); err != nil {
		return fmt.Errorf("failed to unmarshal persisted snapshot: %w", err)
	}

	s.mu.Lock()
	if s.snapshot == nil {
		s.snapshot = &snapshot
	}
	s.mu.Unlock()

	s.logger.Info().
		Str("run_id", snapshot.RunID).
		Int("holdings", len(snapshot.Holdings)).
		Str("built_at", snapshot.BuiltAt.Format(time.RFC3339)).
		Str("persisted_at", pair.UpdatedAt.Format(time.RFC3339)).
		Msg("Seeded cache from persisted snapshot")

	return nil
}
