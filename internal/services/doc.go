// Package services defines shared utilities consumed by the pipeline stages,
// the review queue and the publishing manager.
//
// Key responsibilities:
//   - Context helpers that stamp project IDs, product IDs, stage names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (not found, validation, external) without string matching.
//
// Use these helpers when wiring new components so operational behaviour (error
// handling, observability) stays uniform across the pipeline.
package services
