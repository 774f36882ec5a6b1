// Package stages provides the reference transformation stages run by the
// pipeline orchestrator: aggregate, cleanse, standardize, validate_rules and
// enrich.
//
// Every stage reads the product's persisted working attributes, transforms
// them and writes them back together with its own name as the product's last
// completed stage. Aggregate rebuilds the working set from source attributes,
// so a full pipeline re-run always starts from the same input.
package stages
