package schema

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/klinika-ai/klinika-engine/pkg/apperrors"
	"github.com/klinika-ai/klinika-engine/pkg/graph"
)

// Snapshot bundles one consistent view of the schema knowledge: the
// validated model and the relationship graph built from it. A snapshot is
// immutable; the graph's internal path memo dies with it, so reloads
// invalidate cached paths wholesale.
type Snapshot struct {
	Model    *Model
	Graph    *graph.Graph
	LoadedAt time.Time
}

// Age returns how long ago the snapshot was loaded.
func (s *Snapshot) Age() time.Duration {
	return time.Since(s.LoadedAt)
}

// Manager publishes schema snapshots. Reload builds the new graph fully
// before swapping the pointer, so in-flight requests always see one
// consistent snapshot, never a half-updated one. A failed reload keeps the
// previous snapshot active.
type Manager struct {
	current   atomic.Pointer[Snapshot]
	graphOpts []graph.Option
	logger    *zap.Logger
}

// NewManager creates a snapshot manager. No snapshot is published until the
// first successful Publish or Reload.
func NewManager(logger *zap.Logger, opts ...graph.Option) *Manager {
	return &Manager{
		graphOpts: opts,
		logger:    logger.Named("schema"),
	}
}

// Publish validates the model's graph and atomically swaps it in as the
// active snapshot.
func (m *Manager) Publish(model *Model) (*Snapshot, error) {
	g, err := graph.Build(model, m.graphOpts...)
	if err != nil {
		m.logger.Error("snapshot rejected", zap.Error(err))
		return nil, err
	}

	snap := &Snapshot{Model: model, Graph: g, LoadedAt: time.Now()}
	m.current.Store(snap)

	m.logger.Info("schema snapshot published",
		zap.String("database", model.Database()),
		zap.Int("tables", len(model.Tables())),
		zap.Int("relationships", len(model.Relationships())))
	g.LogConnectivity(m.logger)

	return snap, nil
}

// Reload loads a fresh model via load and publishes it. On any failure the
// last good snapshot, if one exists, remains active and the error is
// returned to the caller.
func (m *Manager) Reload(load func() (*Model, error)) error {
	model, err := load()
	if err != nil {
		m.logger.Error("schema reload failed, keeping previous snapshot", zap.Error(err))
		return err
	}
	if _, err := m.Publish(model); err != nil {
		return err
	}
	return nil
}

// Current returns the active snapshot, or ErrSchemaNotLoaded when nothing
// has been published yet.
func (m *Manager) Current() (*Snapshot, error) {
	snap := m.current.Load()
	if snap == nil {
		return nil, apperrors.ErrSchemaNotLoaded
	}
	return snap, nil
}
