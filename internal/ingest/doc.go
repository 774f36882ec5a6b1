// Package ingest adds raw products to a project, one at a time or from a CSV
// or XLSX file whose first non-empty row is the header.
//
// Header cells become attribute keys as written; the pipeline's standardize
// stage normalizes them later. The SKU column is matched case-insensitively.
// Rows that cannot be stored are reported and skipped without aborting the
// rest of the file.
package ingest
