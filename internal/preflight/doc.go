// Package preflight provides readiness checks for the filesystem paths and
// external endpoints Curator depends on.
//
// The daemon runs RunAll before binding the API and refuses to start when a
// directory check fails. "curator status" shows the same results alongside
// stage health.
package preflight
