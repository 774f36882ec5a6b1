// Package stageexec runs a single pipeline stage with the lifecycle logging,
// tracing and error classification shared by every stage.
package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"curator/internal/logging"
	"curator/internal/services"
	"curator/internal/stage"
)

const tracerName = "curator/stageexec"

// Options controls a single stage execution.
type Options struct {
	Logger    *slog.Logger
	Handler   stage.Handler
	StageName string
	ProductID string
}

// Run executes a stage for one product. Any failure is returned as a
// *stage.Error naming the stage and product.
func Run(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return &stage.Error{
			Stage:     opts.StageName,
			ProductID: opts.ProductID,
			Err:       services.Wrap(services.ErrConfiguration, "stageexec", "run", "stage handler unavailable", nil),
		}
	}

	stageCtx := services.WithStage(services.WithProductID(ctx, opts.ProductID), opts.StageName)
	stageCtx, span := otel.Tracer(tracerName).Start(stageCtx, "stage."+opts.StageName)
	defer span.End()
	span.SetAttributes(
		attribute.String(logging.FieldStage, opts.StageName),
		attribute.String(logging.FieldProductID, opts.ProductID),
	)

	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	stageLogger.Debug("stage started", logging.Event("stage_start"))

	started := time.Now()
	err := opts.Handler.Execute(stageCtx, opts.ProductID)
	elapsed := time.Since(started)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logging.WarnWithContext(stageLogger, "stage failed", "stage_failure",
			logging.String("error_kind", services.Kind(err)),
			logging.Duration("stage_duration", elapsed),
			logging.Hint(failureHint(err)),
			logging.Error(err),
		)
		var stageErr *stage.Error
		if errors.As(err, &stageErr) {
			return err
		}
		return &stage.Error{Stage: opts.StageName, ProductID: opts.ProductID, Err: err}
	}

	stageLogger.Debug("stage completed",
		logging.Event("stage_complete"),
		logging.Duration("stage_duration", elapsed),
	)
	return nil
}

func failureHint(err error) string {
	switch services.Kind(err) {
	case "validation":
		return "fix the product source attributes and re-run the pipeline"
	case "not_found":
		return "check the product id exists"
	default:
		return fmt.Sprintf("inspect the %s error and re-run the product", services.Kind(err))
	}
}
