package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/ingest"
	"curator/internal/logging"
	"curator/internal/notifications"
	"curator/internal/pipeline"
	"curator/internal/publishing"
	"curator/internal/review"
	"curator/internal/services"
	"curator/internal/store"
)

// Manager coordinates the catalog services over a single store.
type Manager struct {
	cfg      *config.Config
	store    *store.Store
	logger   *slog.Logger
	notifier notifications.Service

	pipeline   *pipeline.Orchestrator
	review     *review.Service
	publishing *publishing.Manager
	importer   *ingest.Importer

	mu            sync.RWMutex
	activeBatches int
	lastBatch     *BatchSummary
	lastErr       error
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	stages       *pipeline.StageSet
	destinations []publishing.Destination
}

// WithStages replaces the reference pipeline stages.
func WithStages(set pipeline.StageSet) ManagerOption {
	return func(o *managerOptions) {
		o.stages = &set
	}
}

// WithDestinations registers extra publish destinations.
func WithDestinations(destinations ...publishing.Destination) ManagerOption {
	return func(o *managerOptions) {
		o.destinations = append(o.destinations, destinations...)
	}
}

// NewManager constructs a Manager with the notifier derived from cfg.
func NewManager(cfg *config.Config, st *store.Store, logger *slog.Logger, opts ...ManagerOption) *Manager {
	return NewManagerWithNotifier(cfg, st, logger, notifications.NewService(cfg), opts...)
}

// NewManagerWithNotifier constructs a Manager with a custom notifier (used in tests).
func NewManagerWithNotifier(cfg *config.Config, st *store.Store, logger *slog.Logger, notifier notifications.Service, opts ...ManagerOption) *Manager {
	options := &managerOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}

	stages := pipeline.DefaultStages(cfg, st, logger)
	if options.stages != nil {
		stages = *options.stages
	}
	orchestrator := pipeline.New(stages,
		pipeline.WithWorkers(cfg.Pipeline.Workers),
		pipeline.WithLogger(logger),
		pipeline.WithNotifier(notifier),
	)

	publisher := publishing.NewManagerFromConfig(cfg, st, logger, notifier)
	if len(options.destinations) > 0 {
		publishing.WithDestinations(options.destinations...)(publisher)
	}

	return &Manager{
		cfg:        cfg,
		store:      st,
		logger:     logging.NewComponentLogger(logger, "workflow"),
		notifier:   notifier,
		pipeline:   orchestrator,
		review:     review.NewService(st, logger),
		publishing: publisher,
		importer:   ingest.NewImporter(st, logger),
	}
}

// Store returns the backing store.
func (m *Manager) Store() *store.Store { return m.store }

// Pipeline returns the stage orchestrator.
func (m *Manager) Pipeline() *pipeline.Orchestrator { return m.pipeline }

// Review returns the validation queue service.
func (m *Manager) Review() *review.Service { return m.review }

// Publishing returns the publishing manager.
func (m *Manager) Publishing() *publishing.Manager { return m.publishing }

// Importer returns the product importer.
func (m *Manager) Importer() *ingest.Importer { return m.importer }

// Notifier returns the configured notification service.
func (m *Manager) Notifier() notifications.Service { return m.notifier }

// RunBatch processes productIDs and records the outcome for Status.
func (m *Manager) RunBatch(ctx context.Context, productIDs []string) pipeline.BatchResult {
	m.mu.Lock()
	m.activeBatches++
	m.mu.Unlock()

	started := time.Now()
	result := m.pipeline.ProcessMany(ctx, productIDs)

	m.mu.Lock()
	m.activeBatches--
	m.lastBatch = &BatchSummary{
		StartedAt:    started.UTC(),
		ProductCount: len(productIDs),
		SuccessCount: result.SuccessCount,
		FailureCount: result.FailureCount,
		Duration:     result.Duration,
	}
	if result.FailureCount > 0 {
		first := result.Failures[0]
		m.lastErr = services.Wrap(services.ErrTransient, "workflow", "batch",
			"product "+first.ProductID+" failed at "+first.Stage, nil)
	} else {
		m.lastErr = nil
	}
	m.mu.Unlock()
	return result
}

// RunProject processes every product of a project.
func (m *Manager) RunProject(ctx context.Context, projectID string) (pipeline.BatchResult, error) {
	project, err := m.store.GetProject(ctx, projectID)
	if err != nil {
		return pipeline.BatchResult{}, services.Wrap(services.ErrTransient, "workflow", "run project", "load project", err)
	}
	if project == nil {
		return pipeline.BatchResult{}, services.Wrap(services.ErrNotFound, "workflow", "run project", "project "+projectID+" does not exist", nil)
	}
	products, err := m.store.ListProducts(ctx, project.ID)
	if err != nil {
		return pipeline.BatchResult{}, services.Wrap(services.ErrTransient, "workflow", "run project", "list products", err)
	}
	ids := make([]string, 0, len(products))
	for _, product := range products {
		ids = append(ids, product.ID)
	}
	return m.RunBatch(services.WithProjectID(ctx, project.ID), ids), nil
}

// TestNotification sends a test notification using the current configuration.
func (m *Manager) TestNotification(ctx context.Context) (bool, string, error) {
	if m.cfg == nil || m.cfg.Notifications.NtfyTopic == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := m.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Metrics returns catalog-wide counters.
func (m *Manager) Metrics(ctx context.Context) (catalog.GlobalMetrics, error) {
	return m.store.GlobalMetrics(ctx)
}
