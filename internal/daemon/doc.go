// Package daemon runs the long-lived Curator server.
//
// It owns the single-instance flock under the data directory and the HTTP
// listener serving the catalog API. Catalog logic stays in the workflow
// manager and its services; the daemon only handles startup, shutdown and
// lifecycle status.
package daemon
