package stages

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"curator/internal/catalog"
	"curator/internal/stage"
)

// Derived attribute keys written by the enrich stage.
const (
	AttrSlug           = "slug"
	AttrAttributeCount = "attribute_count"
)

// Enricher derives a URL slug and an attribute count.
type Enricher struct {
	base
}

// NewEnricher constructs the enrich stage.
func NewEnricher(store Store, logger *slog.Logger) *Enricher {
	return &Enricher{base: newBase(stage.Enrich, store, logger)}
}

// Execute adds derived attributes to the working set.
func (e *Enricher) Execute(ctx context.Context, productID string) error {
	product, err := e.load(ctx, productID)
	if err != nil {
		return err
	}
	enriched, err := Enrich(working(product))
	if err != nil {
		return err
	}
	return e.save(ctx, productID, enriched)
}

// Enrich returns attrs with slug and attribute_count set. The count excludes
// the derived attributes so repeated runs produce the same result.
func Enrich(attrs catalog.Attributes) (catalog.Attributes, error) {
	out := attrs.Clone()
	delete(out, AttrSlug)
	delete(out, AttrAttributeCount)

	slug := Slugify(strings.TrimSpace(out[catalog.AttrBrand] + " " + out[catalog.AttrName]))
	if slug == "" {
		slug = Slugify(out[catalog.AttrSKU])
	}
	if slug == "" {
		return nil, stage.Invalid(stage.Enrich, "no brand, name or sku to derive a slug from", nil)
	}

	count := len(out)
	out[AttrSlug] = slug
	out[AttrAttributeCount] = strconv.Itoa(count)
	return out, nil
}

// Slugify lower-cases value and joins alphanumeric runs with single hyphens.
func Slugify(value string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(value) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
