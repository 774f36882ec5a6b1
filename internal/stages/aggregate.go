package stages

import (
	"context"
	"log/slog"
	"strings"

	"curator/internal/catalog"
	"curator/internal/stage"
)

// Aggregator merges the source attributes of every product in the project
// that shares the product's SKU. The product's own values win; siblings fill
// gaps oldest first.
type Aggregator struct {
	base
}

// NewAggregator constructs the aggregate stage.
func NewAggregator(store Store, logger *slog.Logger) *Aggregator {
	return &Aggregator{base: newBase(stage.Aggregate, store, logger)}
}

// Execute rebuilds the working attributes from source data.
func (a *Aggregator) Execute(ctx context.Context, productID string) error {
	product, err := a.load(ctx, productID)
	if err != nil {
		return err
	}

	merged := product.Source.Clone()
	if merged[catalog.AttrSKU] == "" {
		merged[catalog.AttrSKU] = product.SKU
	}

	siblings, err := a.store.ListProductsBySKU(ctx, product.ProjectID, product.SKU)
	if err != nil {
		return err
	}
	for _, sibling := range siblings {
		if sibling.ID == product.ID {
			continue
		}
		for key, value := range sibling.Source {
			if strings.TrimSpace(merged[key]) == "" && strings.TrimSpace(value) != "" {
				merged[key] = value
			}
		}
	}
	return a.save(ctx, productID, merged)
}
