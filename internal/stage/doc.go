// Package stage defines the contract between the pipeline orchestrator and
// the individual transformation stages.
package stage
