// Package workflow wires the catalog components into one Manager shared by
// the HTTP API and the CLI.
//
// The Manager owns the pipeline orchestrator, the review service, the
// publishing manager and the product importer, all backed by the same store.
// It records the outcome of the most recent batch and aggregates stage health
// and catalog metrics for status surfaces.
package workflow
