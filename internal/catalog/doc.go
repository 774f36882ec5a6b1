// Package catalog holds the master-data records that flow through Curator:
// projects, raw products, golden records, review queue items, publish targets
// and the publish history audit trail.
//
// The status vocabularies defined here are wire-level strings; they are
// persisted verbatim by the store and exposed verbatim by the HTTP API.
package catalog
