package stages

import (
	"context"
	"log/slog"

	"curator/internal/catalog"
	"curator/internal/logging"
	"curator/internal/stage"
)

// Store is the persistence surface the reference stages need.
type Store interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	ListProductsBySKU(ctx context.Context, projectID, sku string) ([]*catalog.Product, error)
	SaveWorking(ctx context.Context, productID string, working catalog.Attributes, stage string) error
	Ping(ctx context.Context) error
}

type base struct {
	name   string
	store  Store
	logger *slog.Logger
}

func newBase(name string, store Store, logger *slog.Logger) base {
	return base{name: name, store: store, logger: logging.NewComponentLogger(logger, name)}
}

func (b base) HealthCheck(ctx context.Context) stage.Health {
	if b.store == nil {
		return stage.Unhealthy(b.name, "store not configured")
	}
	if err := b.store.Ping(ctx); err != nil {
		return stage.Unhealthy(b.name, err.Error())
	}
	return stage.Healthy(b.name)
}

func (b base) load(ctx context.Context, productID string) (*catalog.Product, error) {
	product, err := b.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, stage.MissingProduct(b.name, productID)
	}
	return product, nil
}

// working returns the attributes the stage should transform: the previous
// stage's output, or the source attributes when nothing ran yet.
func working(product *catalog.Product) catalog.Attributes {
	if product.Working != nil {
		return product.Working.Clone()
	}
	return product.Source.Clone()
}

func (b base) save(ctx context.Context, productID string, attrs catalog.Attributes) error {
	if err := b.store.SaveWorking(ctx, productID, attrs, b.name); err != nil {
		return err
	}
	logging.WithContext(ctx, b.logger).Debug("working attributes saved",
		logging.Int("attribute_count", len(attrs)),
	)
	return nil
}
