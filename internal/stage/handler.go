package stage

import "context"

// Handler describes the contract the pipeline orchestrator needs from each stage.
//
// Execute reads the product's persisted state, applies the transformation and
// persists the result. Implementations must be idempotent: the orchestrator
// never retries, but operators re-run products freely.
type Handler interface {
	Execute(ctx context.Context, productID string) error
	HealthCheck(ctx context.Context) Health
}

// Canonical stage names in pipeline order.
const (
	Aggregate     = "aggregate"
	Cleanse       = "cleanse"
	Standardize   = "standardize"
	ValidateRules = "validate_rules"
	Enrich        = "enrich"
	GoldenRecord  = "golden_record"
)

// Order lists the stage names in the sequence every product runs through.
func Order() []string {
	return []string{Aggregate, Cleanse, Standardize, ValidateRules, Enrich, GoldenRecord}
}
