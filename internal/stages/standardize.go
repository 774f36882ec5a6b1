package stages

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"curator/internal/catalog"
	"curator/internal/stage"
)

// Standardizer normalizes attribute keys to snake_case, upper-cases the SKU
// and title-cases brand and name.
type Standardizer struct {
	base
	lang language.Tag
}

// NewStandardizer constructs the standardize stage.
func NewStandardizer(store Store, logger *slog.Logger) *Standardizer {
	return &Standardizer{
		base: newBase(stage.Standardize, store, logger),
		lang: language.Und,
	}
}

// Execute standardizes the working attributes.
func (s *Standardizer) Execute(ctx context.Context, productID string) error {
	product, err := s.load(ctx, productID)
	if err != nil {
		return err
	}
	return s.save(ctx, productID, s.Standardize(working(product)))
}

// Standardize returns the standardized form of attrs. When two keys collapse
// to the same snake_case name the lexically first source key wins.
func (s *Standardizer) Standardize(attrs catalog.Attributes) catalog.Attributes {
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make(catalog.Attributes, len(attrs))
	for _, key := range keys {
		normalized := SnakeCase(key)
		if normalized == "" {
			continue
		}
		if _, exists := out[normalized]; exists {
			continue
		}
		out[normalized] = attrs[key]
	}

	if sku, ok := out[catalog.AttrSKU]; ok {
		out[catalog.AttrSKU] = strings.ToUpper(sku)
	}
	// Casers carry state, so each call gets its own.
	title := cases.Title(s.lang)
	for _, key := range []string{catalog.AttrBrand, catalog.AttrName} {
		if value, ok := out[key]; ok {
			out[key] = title.String(value)
		}
	}
	return out
}

// SnakeCase converts "Product Name", "productName" and "product-name" to "product_name".
func SnakeCase(value string) string {
	var b strings.Builder
	runes := []rune(strings.TrimSpace(value))
	pendingSep := false
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if unicode.IsUpper(r) && i > 0 && b.Len() > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					pendingSep = true
				}
			}
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingSep = true
		}
	}
	return b.String()
}
