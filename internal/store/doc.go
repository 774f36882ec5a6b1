// Package store persists Curator's catalog in SQLite.
//
// A single Store owns the projects, products, golden_records,
// validation_queue, publish_targets and publish_history tables. It applies
// the WAL/busy-timeout pragmas on open, verifies the embedded schema version,
// and retries writes that collide with another connection holding the lock.
//
// Lookups return (nil, nil) when a row does not exist so callers can decide
// whether absence is an error. Listings are ordered newest first unless the
// method documents otherwise. publish_history is append-only; triggers abort
// any UPDATE or DELETE against it.
package store
