// Package daemonrun assembles the server process: logger, tracing, preflight
// checks, catalog store, workflow manager and daemon lifecycle.
package daemonrun
