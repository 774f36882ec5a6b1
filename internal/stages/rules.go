package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"curator/internal/catalog"
	"curator/internal/stage"
)

// RuleSet configures the business rules stage.
type RuleSet struct {
	Required      []string
	MaxNameLength int
}

// RuleValidator rejects products whose standardized attributes break the
// configured business rules. It does not modify attributes.
type RuleValidator struct {
	base
	rules RuleSet
}

// NewRuleValidator constructs the validate_rules stage.
func NewRuleValidator(store Store, rules RuleSet, logger *slog.Logger) *RuleValidator {
	return &RuleValidator{base: newBase(stage.ValidateRules, store, logger), rules: rules}
}

// Execute checks the working attributes and records the stage on success.
func (r *RuleValidator) Execute(ctx context.Context, productID string) error {
	product, err := r.load(ctx, productID)
	if err != nil {
		return err
	}
	attrs := working(product)
	if violations := r.Check(attrs); len(violations) > 0 {
		return stage.Invalid(stage.ValidateRules, strings.Join(violations, "; "), nil)
	}
	return r.save(ctx, productID, attrs)
}

// Check returns every rule violation found in attrs.
func (r *RuleValidator) Check(attrs catalog.Attributes) []string {
	var violations []string
	for _, key := range r.rules.Required {
		if strings.TrimSpace(attrs[key]) == "" {
			violations = append(violations, fmt.Sprintf("missing required attribute %q", key))
		}
	}
	if limit := r.rules.MaxNameLength; limit > 0 {
		if n := utf8.RuneCountInString(attrs[catalog.AttrName]); n > limit {
			violations = append(violations, fmt.Sprintf("name is %d characters, limit is %d", n, limit))
		}
	}
	return violations
}
