package planner

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/klinika-ai/klinika-engine/pkg/apperrors"
	"github.com/klinika-ai/klinika-engine/pkg/models"
	"github.com/klinika-ai/klinika-engine/pkg/schema"
)

// Request states. A request walks RESOLVING_TABLES -> PATHING ->
// BUILDING_CONTEXT -> READY; any failure is terminal FAILED.
type state string

const (
	stateResolvingTables state = "RESOLVING_TABLES"
	statePathing         state = "PATHING"
	stateBuildingContext state = "BUILDING_CONTEXT"
	stateReady           state = "READY"
	stateFailed          state = "FAILED"
)

// Config bounds planning output.
type Config struct {
	MaxContextChars    int
	MaxColumnsPerTable int
	FallbackHubs       int
	RelatedMaxHops     int
}

func (c Config) withDefaults() Config {
	if c.MaxContextChars <= 0 {
		c.MaxContextChars = DefaultMaxContextChars
	}
	if c.MaxColumnsPerTable <= 0 {
		c.MaxColumnsPerTable = DefaultMaxColumnsPerTable
	}
	if c.FallbackHubs <= 0 {
		c.FallbackHubs = DefaultFallbackHubs
	}
	if c.RelatedMaxHops <= 0 {
		c.RelatedMaxHops = 1
	}
	return c
}

// Planner produces query plans from questions and candidate-table hints.
// It is a stateless pure function over the current schema snapshot plus
// per-request inputs, safe for concurrent use; it never executes SQL and
// never calls the generation service itself.
type Planner struct {
	snapshots *schema.Manager
	cfg       Config
	logger    *zap.Logger
}

// New creates a planner over the snapshot manager.
func New(snapshots *schema.Manager, cfg Config, logger *zap.Logger) *Planner {
	return &Planner{
		snapshots: snapshots,
		cfg:       cfg.withDefaults(),
		logger:    logger.Named("planner"),
	}
}

// PlanQuery resolves the table set, computes the join path, and builds the
// bounded context. A disconnected table set is not fatal: the plan carries
// Disconnected=true and no join path, and the caller renders the stray
// tables un-joined. An empty resolved set fails with ErrNoTablesResolved.
func (p *Planner) PlanQuery(question string, hints []string) (*models.QueryPlan, error) {
	snap, err := p.snapshots.Current()
	if err != nil {
		return nil, err
	}
	return p.PlanOn(snap, question, hints)
}

// PlanOn plans against an explicit snapshot, so a caller that also
// validates or renders can hold one consistent schema view across a
// request even when a reload lands mid-flight.
func (p *Planner) PlanOn(snap *schema.Snapshot, question string, hints []string) (*models.QueryPlan, error) {
	current := stateResolvingTables
	logger := p.logger.With(zap.String("question", question))

	resolver := newTableResolver(snap.Model, snap.Graph, p.cfg.FallbackHubs)
	tables := resolver.resolve(question, hints)
	if len(tables) == 0 {
		logger.Warn("planning failed", zap.String("state", string(stateFailed)))
		return nil, fmt.Errorf("resolving tables for %q: %w", question, apperrors.ErrNoTablesResolved)
	}
	logger.Debug("tables resolved",
		zap.String("state", string(current)),
		zap.Strings("tables", tables),
		zap.Bool("from_hints", len(hints) > 0))

	current = statePathing
	joinPath, connected := snap.Graph.MultiTablePath(tables)
	disconnected := !connected && len(tables) > 1
	if disconnected {
		joinPath = nil
		logger.Debug("table set disconnected, planning without join path",
			zap.String("state", string(current)),
			zap.Strings("tables", tables))
	}

	current = stateBuildingContext
	tablePtrs := make([]*models.Table, 0, len(tables))
	for _, name := range tables {
		tablePtrs = append(tablePtrs, snap.Model.Table(name))
	}
	builder := NewContextBuilder(snap.Graph, p.cfg.MaxColumnsPerTable)
	context := builder.Build(tablePtrs, joinPath, p.cfg.MaxContextChars)

	current = stateReady
	plan := &models.QueryPlan{
		ID:           uuid.New(),
		Question:     question,
		Tables:       tables,
		JoinPath:     joinPath,
		Disconnected: disconnected,
		Context:      context,
		CreatedAt:    time.Now(),
	}
	logger.Info("plan ready",
		zap.String("state", string(current)),
		zap.String("plan_id", plan.ID.String()),
		zap.Int("tables", len(tables)),
		zap.Int("join_edges", len(joinPath)),
		zap.Int("context_chars", len(context)))
	return plan, nil
}

// Snapshot returns the active schema snapshot.
func (p *Planner) Snapshot() (*schema.Snapshot, error) {
	return p.snapshots.Current()
}

// RelatedTables recommends additional tables within maxHops of the given
// table; maxHops <= 0 uses the configured default.
func (p *Planner) RelatedTables(table string, maxHops int) ([]string, error) {
	snap, err := p.snapshots.Current()
	if err != nil {
		return nil, err
	}
	if maxHops <= 0 {
		maxHops = p.cfg.RelatedMaxHops
	}
	return snap.Graph.RelatedTables(table, maxHops), nil
}

// HubTables returns the topN most connected tables of the active snapshot.
func (p *Planner) HubTables(topN int) ([]string, error) {
	snap, err := p.snapshots.Current()
	if err != nil {
		return nil, err
	}
	return snap.Graph.HubTables(topN), nil
}

// SchemaContext renders a context for an explicit table set without
// planning, for callers that already know their tables.
func (p *Planner) SchemaContext(tables []string) (string, error) {
	snap, err := p.snapshots.Current()
	if err != nil {
		return "", err
	}

	var tablePtrs []*models.Table
	for _, name := range tables {
		if t := snap.Model.Table(name); t != nil {
			tablePtrs = append(tablePtrs, t)
		}
	}
	if len(tablePtrs) == 0 {
		return "", fmt.Errorf("schema context: %w", apperrors.ErrNoTablesResolved)
	}

	names := make([]string, len(tablePtrs))
	for i, t := range tablePtrs {
		names[i] = t.Name
	}
	joinPath, _ := snap.Graph.MultiTablePath(names)

	builder := NewContextBuilder(snap.Graph, p.cfg.MaxColumnsPerTable)
	return builder.Build(tablePtrs, joinPath, p.cfg.MaxContextChars), nil
}
