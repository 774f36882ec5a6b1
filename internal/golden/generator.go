// Package golden produces the canonical golden record for a product as the
// terminal pipeline stage.
package golden

import (
	"context"
	"log/slog"

	"curator/internal/catalog"
	"curator/internal/logging"
	"curator/internal/services"
	"curator/internal/stage"
)

// Store is the persistence surface the generator needs.
type Store interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	SaveGoldenRecord(ctx context.Context, rec *catalog.GoldenRecord) (bool, error)
	Ping(ctx context.Context) error
}

// Generator writes the golden record from the product's final working
// attributes and opens a review queue item for it. Re-runs overwrite the
// record but never reset an existing review decision.
type Generator struct {
	store  Store
	logger *slog.Logger
}

// NewGenerator constructs the golden_record stage.
func NewGenerator(store Store, logger *slog.Logger) *Generator {
	return &Generator{store: store, logger: logging.NewComponentLogger(logger, stage.GoldenRecord)}
}

// Execute generates the golden record for productID.
func (g *Generator) Execute(ctx context.Context, productID string) error {
	product, err := g.store.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return stage.MissingProduct(stage.GoldenRecord, productID)
	}

	attrs := product.Working
	if attrs == nil {
		attrs = product.Source
	}
	attrs = attrs.Clone()
	if attrs[catalog.AttrSKU] == "" {
		attrs[catalog.AttrSKU] = product.SKU
	}

	rec := &catalog.GoldenRecord{
		ProductID:  product.ID,
		ProjectID:  product.ProjectID,
		Attributes: attrs,
	}
	created, err := g.store.SaveGoldenRecord(ctx, rec)
	if err != nil {
		return services.Wrap(services.ErrTransient, stage.GoldenRecord, "save", "persist golden record", err)
	}

	logger := logging.WithContext(services.WithProjectID(ctx, product.ProjectID), g.logger)
	if created {
		logger.Info("golden record queued for review",
			logging.Event("golden_record_queued"),
			logging.String("sku", rec.SKU()),
		)
	} else {
		logger.Debug("golden record refreshed",
			logging.Event("golden_record_refreshed"),
			logging.String("sku", rec.SKU()),
		)
	}
	return nil
}

// HealthCheck reports whether the datastore is reachable.
func (g *Generator) HealthCheck(ctx context.Context) stage.Health {
	if g.store == nil {
		return stage.Unhealthy(stage.GoldenRecord, "store not configured")
	}
	if err := g.store.Ping(ctx); err != nil {
		return stage.Unhealthy(stage.GoldenRecord, err.Error())
	}
	return stage.Healthy(stage.GoldenRecord)
}
