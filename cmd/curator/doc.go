// Command curator is the command-line entry point for the product catalog.
//
// Catalog commands open the SQLite datastore directly, so they work whether
// or not a server is running. `curator serve` runs the HTTP API in the
// foreground until interrupted.
package main
