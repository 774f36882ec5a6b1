package stageexec

import (
	"context"
	"errors"
	"testing"

	"curator/internal/logging"
	"curator/internal/services"
	"curator/internal/stage"
)

type recordingHandler struct {
	err       error
	productID string
	stageName string
}

func (h *recordingHandler) Execute(ctx context.Context, productID string) error {
	h.productID = productID
	h.stageName, _ = services.StageFromContext(ctx)
	return h.err
}

func (h *recordingHandler) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("recording")
}

func TestRunPassesContextAndSucceeds(t *testing.T) {
	handler := &recordingHandler{}
	err := Run(context.Background(), Options{
		Logger:    logging.NewNop(),
		Handler:   handler,
		StageName: stage.Cleanse,
		ProductID: "p1",
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if handler.productID != "p1" || handler.stageName != stage.Cleanse {
		t.Fatalf("handler saw product=%q stage=%q", handler.productID, handler.stageName)
	}
}

func TestRunWrapsFailureInStageError(t *testing.T) {
	cause := stage.Invalid(stage.Enrich, "no slug source", nil)
	err := Run(context.Background(), Options{
		Handler:   &recordingHandler{err: cause},
		StageName: stage.Enrich,
		ProductID: "p2",
	})

	var stageErr *stage.Error
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected *stage.Error, got %T", err)
	}
	if stageErr.Stage != stage.Enrich || stageErr.ProductID != "p2" {
		t.Fatalf("unexpected stage error %+v", stageErr)
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation cause to be preserved, got %v", err)
	}
}

func TestRunWithoutHandlerFails(t *testing.T) {
	err := Run(context.Background(), Options{StageName: stage.Aggregate, ProductID: "p3"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
