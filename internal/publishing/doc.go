// Package publishing manages publish targets, delivers golden records to
// their destinations and appends the immutable publish history.
//
// Publish does not check review status; callers that want the approval gate
// use PublishApproved, which selects the project's approved products first.
// An unknown target fails with services.ErrTargetNotFound before any history
// is written.
//
// Destinations are pluggable drivers keyed by target kind:
//
//   - none: audit only, every resolved record counts as delivered
//   - file: one JSON lines file per publish in a directory
//   - webhook: HTTP POST of the records with optional per-product results
//   - s3: one JSON object per record in an S3 compatible bucket
//
// ExportCSV and ExportXLSX render the approved golden records of a project
// with the fixed SKU, Brand, Name columns.
package publishing
