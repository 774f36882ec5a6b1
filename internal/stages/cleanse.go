package stages

import (
	"context"
	"log/slog"
	"strings"

	"curator/internal/catalog"
	"curator/internal/stage"
)

// Cleanser trims and collapses whitespace in keys and values and drops empty values.
type Cleanser struct {
	base
}

// NewCleanser constructs the cleanse stage.
func NewCleanser(store Store, logger *slog.Logger) *Cleanser {
	return &Cleanser{base: newBase(stage.Cleanse, store, logger)}
}

// Execute cleans the working attributes.
func (c *Cleanser) Execute(ctx context.Context, productID string) error {
	product, err := c.load(ctx, productID)
	if err != nil {
		return err
	}
	return c.save(ctx, productID, CleanAttributes(working(product)))
}

// CleanAttributes returns a copy of attrs with whitespace collapsed and empty entries removed.
func CleanAttributes(attrs catalog.Attributes) catalog.Attributes {
	out := make(catalog.Attributes, len(attrs))
	for key, value := range attrs {
		key = collapseSpaces(key)
		value = collapseSpaces(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func collapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
