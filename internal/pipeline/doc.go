// Package pipeline drives products through the ordered transformation stages.
//
// ProcessOne runs aggregate, cleanse, standardize, validate_rules, enrich and
// golden_record strictly in sequence and stops at the first failing stage.
// Completed stages are not rolled back and nothing is retried. ProcessMany
// fans a batch out over a bounded worker pool; one product failing never
// affects its siblings, and every input id gets a result.
//
// Stages run on a context detached from caller cancellation, so a product
// that has started always runs to completion or failure. Cancelling the batch
// context only keeps products that have not started yet from starting.
package pipeline
