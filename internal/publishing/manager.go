package publishing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/logging"
	"curator/internal/notifications"
	"curator/internal/services"
	"curator/internal/store"
)

const tracerName = "curator/publishing"

// Store abstracts the persistence used by the publishing manager.
type Store interface {
	GetProject(ctx context.Context, id string) (*catalog.Project, error)
	CreateTarget(ctx context.Context, projectID, name, kind string, cfg map[string]string) (*catalog.PublishTarget, error)
	GetTarget(ctx context.Context, id string) (*catalog.PublishTarget, error)
	ListTargets(ctx context.Context, projectID string) ([]*catalog.PublishTarget, error)
	GetGoldenRecords(ctx context.Context, productIDs []string) (map[string]*catalog.GoldenRecord, error)
	ListApprovedGoldenRecords(ctx context.Context, projectID string) ([]*catalog.GoldenRecord, error)
	ApprovedProductIDs(ctx context.Context, projectID string) ([]string, error)
	RecordPublish(ctx context.Context, record store.PublishRecord) (*catalog.PublishHistory, error)
	ListHistory(ctx context.Context, targetID string) ([]*catalog.PublishHistory, error)
}

// NewTarget describes a publish target to create.
type NewTarget struct {
	ProjectID string            `json:"projectId"`
	Name      string            `json:"name"`
	Kind      string            `json:"kind"`
	Config    map[string]string `json:"config,omitempty"`
}

// Manager owns publish targets, publishing and flat-file export.
type Manager struct {
	store        Store
	destinations registry
	defaultKind  string
	logger       *slog.Logger
	notifier     notifications.Service
}

// Option configures a Manager.
type Option func(*Manager)

// WithDestinations registers destination drivers, replacing any driver of the same kind.
func WithDestinations(destinations ...Destination) Option {
	return func(m *Manager) {
		for kind, dest := range newRegistry(destinations) {
			m.destinations[kind] = dest
		}
	}
}

// WithDefaultKind sets the kind used when a new target does not name one.
func WithDefaultKind(kind string) Option {
	return func(m *Manager) {
		if kind = strings.ToLower(strings.TrimSpace(kind)); kind != "" {
			m.defaultKind = kind
		}
	}
}

// WithLogger sets the manager logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logging.NewComponentLogger(logger, "publishing")
	}
}

// WithNotifier sets the service alerted after each publish.
func WithNotifier(notifier notifications.Service) Option {
	return func(m *Manager) {
		if notifier != nil {
			m.notifier = notifier
		}
	}
}

// NewManager constructs a Manager. Only the none destination is registered
// unless more are supplied.
func NewManager(st Store, opts ...Option) *Manager {
	m := &Manager{
		store:        st,
		destinations: newRegistry([]Destination{NoneDestination{}}),
		defaultKind:  KindNone,
		logger:       logging.NewComponentLogger(nil, "publishing"),
		notifier:     notifications.NewService(nil),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewManagerFromConfig constructs a Manager with the built-in destinations.
func NewManagerFromConfig(cfg *config.Config, st Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	opts := []Option{
		WithDestinations(DefaultDestinations(cfg)...),
		WithLogger(logger),
		WithNotifier(notifier),
	}
	if cfg != nil {
		opts = append(opts, WithDefaultKind(cfg.Publishing.DefaultKind))
	}
	return NewManager(st, opts...)
}

// Kinds lists the registered destination kinds.
func (m *Manager) Kinds() []string {
	return m.destinations.kinds()
}

// CreateTarget validates and stores a publish target for an existing project.
func (m *Manager) CreateTarget(ctx context.Context, in NewTarget) (*catalog.PublishTarget, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, services.Wrap(services.ErrValidation, "publishing", "create target", "target name is required", nil)
	}
	kind := strings.ToLower(strings.TrimSpace(in.Kind))
	if kind == "" {
		kind = m.defaultKind
	}
	dest, ok := m.destinations.lookup(kind)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "publishing", "create target",
			fmt.Sprintf("unknown target kind %q (available: %s)", kind, strings.Join(m.Kinds(), ", ")), nil)
	}
	if err := dest.Validate(in.Config); err != nil {
		return nil, services.Wrap(services.ErrValidation, "publishing", "create target", "invalid target config", err)
	}

	project, err := m.store.GetProject(ctx, in.ProjectID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "publishing", "create target", "load project", err)
	}
	if project == nil {
		return nil, services.Wrap(services.ErrNotFound, "publishing", "create target", "project "+in.ProjectID+" does not exist", nil)
	}

	target, err := m.store.CreateTarget(ctx, project.ID, name, kind, in.Config)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "publishing", "create target", "persist target", err)
	}
	logging.WithContext(services.WithProjectID(ctx, project.ID), m.logger).Info("publish target created",
		logging.Event("target_created"),
		logging.Target(target.ID),
		logging.String("target_kind", kind),
	)
	return target, nil
}

// GetTarget returns a target or services.ErrTargetNotFound.
func (m *Manager) GetTarget(ctx context.Context, targetID string) (*catalog.PublishTarget, error) {
	target, err := m.store.GetTarget(ctx, targetID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "publishing", "get target", "load target", err)
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %s", services.ErrTargetNotFound, targetID)
	}
	return target, nil
}

// ListTargets returns the project's targets, newest first.
func (m *Manager) ListTargets(ctx context.Context, projectID string) ([]*catalog.PublishTarget, error) {
	targets, err := m.store.ListTargets(ctx, projectID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "publishing", "list targets", "query targets", err)
	}
	if targets == nil {
		targets = []*catalog.PublishTarget{}
	}
	return targets, nil
}

// ListHistory returns the publish history of a target, newest first.
func (m *Manager) ListHistory(ctx context.Context, targetID string) ([]*catalog.PublishHistory, error) {
	if _, err := m.GetTarget(ctx, targetID); err != nil {
		return nil, err
	}
	entries, err := m.store.ListHistory(ctx, targetID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "publishing", "list history", "query history", err)
	}
	if entries == nil {
		entries = []*catalog.PublishHistory{}
	}
	return entries, nil
}

// Publish delivers the golden records of productIDs through the target's
// destination and appends one history entry. Review status is not checked.
// Only errors reported by the destination decide the status; ids without a
// golden record are listed as skipped.
func (m *Manager) Publish(ctx context.Context, targetID string, productIDs []string) (*catalog.PublishHistory, error) {
	target, err := m.GetTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	dest, ok := m.destinations.lookup(target.Kind)
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "publishing", "publish",
			fmt.Sprintf("no destination registered for kind %q", target.Kind), nil)
	}

	ctx = services.WithProjectID(ctx, target.ProjectID)
	ctx, span := otel.Tracer(tracerName).Start(ctx, "publishing.publish")
	defer span.End()
	span.SetAttributes(
		attribute.String(logging.FieldTargetID, target.ID),
		attribute.String("target_kind", target.Kind),
		attribute.Int("product_count", len(productIDs)),
	)
	logger := logging.WithContext(ctx, m.logger).With(logging.Target(target.ID))

	unique := dedupe(productIDs)
	found, err := m.store.GetGoldenRecords(ctx, unique)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "publishing", "publish", "load golden records", err)
	}

	var (
		records []*catalog.GoldenRecord
		skipped []catalog.PublishError
	)
	for _, id := range unique {
		rec, ok := found[id]
		if !ok {
			skipped = append(skipped, catalog.PublishError{ProductID: id, Message: "no golden record", Skipped: true})
			continue
		}
		records = append(records, rec)
	}

	var delivery Delivery
	if len(records) > 0 {
		delivery, err = dest.Deliver(ctx, target, records)
		if err != nil {
			span.RecordError(err)
			logging.WarnWithContext(logger, "destination delivery failed", "publish_failure",
				logging.String("target_kind", target.Kind),
				logging.Error(err),
			)
			delivery = Delivery{Errors: []catalog.PublishError{{Message: err.Error()}}}
		}
	}
	status := publishStatus(len(delivery.Delivered), len(delivery.Errors))
	errs := append(delivery.Errors, skipped...)
	history, err := m.store.RecordPublish(ctx, store.PublishRecord{
		TargetID:     target.ID,
		ProductCount: len(productIDs),
		Status:       status,
		Errors:       errs,
		Delivered:    delivery.Delivered,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, services.Wrap(services.ErrTransient, "publishing", "publish", "record history", err)
	}
	if status != catalog.PublishSuccess {
		span.SetStatus(codes.Error, string(status))
	}

	logger.Info("publish recorded",
		logging.Event("publish_complete"),
		logging.String("status", string(status)),
		logging.Int("product_count", len(productIDs)),
		logging.Int("delivered", len(delivery.Delivered)),
		logging.Int("errors", len(delivery.Errors)),
		logging.Int("skipped", len(skipped)),
	)
	if err := m.notifier.NotifyPublishCompleted(context.WithoutCancel(ctx), target.Name, string(status), len(productIDs)); err != nil {
		logging.WarnWithContext(logger, "publish notification failed", "notification_failure", logging.Error(err))
	}
	return history, nil
}

// PublishApproved publishes every approved product of the target's project.
func (m *Manager) PublishApproved(ctx context.Context, targetID string) (*catalog.PublishHistory, error) {
	target, err := m.GetTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	ids, err := m.store.ApprovedProductIDs(ctx, target.ProjectID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "publishing", "publish approved", "query approved products", err)
	}
	return m.Publish(ctx, target.ID, ids)
}

func publishStatus(delivered, failed int) catalog.PublishStatus {
	switch {
	case failed == 0:
		return catalog.PublishSuccess
	case delivered > 0:
		return catalog.PublishPartial
	default:
		return catalog.PublishFailure
	}
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
