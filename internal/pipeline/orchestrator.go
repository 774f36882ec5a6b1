package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/golden"
	"curator/internal/logging"
	"curator/internal/notifications"
	"curator/internal/services"
	"curator/internal/stage"
	"curator/internal/stageexec"
	"curator/internal/stages"
)

const (
	tracerName     = "curator/pipeline"
	defaultWorkers = 4
)

// Orchestrator runs products through the stage sequence.
type Orchestrator struct {
	stages   []namedStage
	workers  int
	logger   *slog.Logger
	notifier notifications.Service
}

// Option configures optional Orchestrator behavior.
type Option func(*Orchestrator)

// WithWorkers bounds how many products a batch processes concurrently.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logging.NewComponentLogger(logger, "pipeline")
	}
}

// WithNotifier sets the service alerted when a batch finishes.
func WithNotifier(notifier notifications.Service) Option {
	return func(o *Orchestrator) {
		if notifier != nil {
			o.notifier = notifier
		}
	}
}

// New constructs an orchestrator for the given stages.
func New(set StageSet, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		stages:   set.ordered(),
		workers:  defaultWorkers,
		logger:   logging.NewComponentLogger(nil, "pipeline"),
		notifier: notifications.NewService(nil),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Store is the persistence surface needed by the reference stages.
type Store interface {
	stages.Store
	SaveGoldenRecord(ctx context.Context, rec *catalog.GoldenRecord) (bool, error)
}

// DefaultStages wires the reference stage implementations against st.
func DefaultStages(cfg *config.Config, st Store, logger *slog.Logger) StageSet {
	rules := stages.RuleSet{
		Required:      cfg.Pipeline.RequiredAttributes,
		MaxNameLength: cfg.Pipeline.MaxNameLength,
	}
	return StageSet{
		Aggregate:     stages.NewAggregator(st, logger),
		Cleanse:       stages.NewCleanser(st, logger),
		Standardize:   stages.NewStandardizer(st, logger),
		ValidateRules: stages.NewRuleValidator(st, rules, logger),
		Enrich:        stages.NewEnricher(st, logger),
		GoldenRecord:  golden.NewGenerator(st, logger),
	}
}

// NewFromConfig constructs an orchestrator using the reference stages and
// the configured worker count.
func NewFromConfig(cfg *config.Config, st Store, logger *slog.Logger, notifier notifications.Service) *Orchestrator {
	return New(DefaultStages(cfg, st, logger),
		WithWorkers(cfg.Pipeline.Workers),
		WithLogger(logger),
		WithNotifier(notifier),
	)
}

// ProcessOne runs productID through every stage in order. The first failure
// stops the run and is returned as a *stage.Error.
func (o *Orchestrator) ProcessOne(ctx context.Context, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return services.Wrap(services.ErrValidation, "pipeline", "process", "product id is required", nil)
	}

	runCtx := services.WithProductID(context.WithoutCancel(ctx), productID)
	runCtx, span := otel.Tracer(tracerName).Start(runCtx, "pipeline.product")
	defer span.End()
	span.SetAttributes(attribute.String(logging.FieldProductID, productID))

	logger := logging.WithContext(runCtx, o.logger)
	started := time.Now()
	for _, stg := range o.stages {
		err := stageexec.Run(runCtx, stageexec.Options{
			Logger:    o.logger,
			Handler:   stg.handler,
			StageName: stg.name,
			ProductID: productID,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	logger.Info("product processed",
		logging.Event("pipeline_complete"),
		logging.Duration("pipeline_duration", time.Since(started)),
	)
	return nil
}

// ProcessMany processes every id concurrently through a bounded worker pool.
// Duplicate ids run once and their outcome is reported for each occurrence.
func (o *Orchestrator) ProcessMany(ctx context.Context, productIDs []string) BatchResult {
	started := time.Now()

	index := make(map[string]int, len(productIDs))
	unique := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if _, seen := index[id]; seen {
			continue
		}
		index[id] = len(unique)
		unique = append(unique, id)
	}

	o.logger.Info("batch started",
		logging.Event("batch_start"),
		logging.Int("product_count", len(productIDs)),
		logging.Int("unique_count", len(unique)),
		logging.Int("workers", o.workers),
	)

	outcomes := make([]error, len(unique))
	var group errgroup.Group
	group.SetLimit(o.workers)
	for i, id := range unique {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = services.Wrap(services.ErrTransient, "pipeline", "process batch",
					"batch cancelled before product started", err)
				return nil
			}
			outcomes[i] = o.ProcessOne(ctx, id)
			return nil
		})
	}
	_ = group.Wait()

	result := BatchResult{
		Failures: []Failure{},
		Results:  make([]ProductResult, 0, len(productIDs)),
	}
	for _, id := range productIDs {
		err := outcomes[index[id]]
		entry := ProductResult{ProductID: id, Success: err == nil, Err: err}
		if err != nil {
			entry.Error = err.Error()
			var stageErr *stage.Error
			if errors.As(err, &stageErr) {
				entry.Stage = stageErr.Stage
			}
			result.FailureCount++
			result.Failures = append(result.Failures, Failure{ProductID: id, Stage: entry.Stage, Error: entry.Error})
		} else {
			result.SuccessCount++
		}
		result.Results = append(result.Results, entry)
	}
	result.Duration = time.Since(started)

	o.logger.Info("batch completed",
		logging.Event("batch_complete"),
		logging.Int("succeeded", result.SuccessCount),
		logging.Int("failed", result.FailureCount),
		logging.Duration("batch_duration", result.Duration),
	)
	if len(productIDs) > 0 {
		if err := o.notifier.NotifyBatchCompleted(context.WithoutCancel(ctx), result.SuccessCount, result.FailureCount, result.Duration); err != nil {
			logging.WarnWithContext(o.logger, "batch notification failed", "notification_failure", logging.Error(err))
		}
	}
	return result
}

// HealthCheck collects the health of every configured stage in pipeline order.
func (o *Orchestrator) HealthCheck(ctx context.Context) []stage.Health {
	out := make([]stage.Health, 0, len(o.stages))
	for _, stg := range o.stages {
		if stg.handler == nil {
			out = append(out, stage.Unhealthy(stg.name, "handler not configured"))
			continue
		}
		health := stg.handler.HealthCheck(ctx)
		health.Name = stg.name
		out = append(out, health)
	}
	return out
}
