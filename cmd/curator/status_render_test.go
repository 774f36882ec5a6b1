package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"curator/internal/preflight"
	"curator/internal/stage"
	"curator/internal/workflow"
)

func TestFormatCheckNoColor(t *testing.T) {
	got := formatCheck("Curator server", stateError, "Not running", false)
	want := fmt.Sprintf("  %-*s %s", labelWidth, "Curator server:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("formatCheck mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestFormatCheckWithColor(t *testing.T) {
	got := formatCheck("Curator server", stateOK, "Running", true)
	if !strings.HasPrefix(got, stateStyles[stateOK].color) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green line, got %q", got)
	}
}

func TestStatusLinesFlagsFailures(t *testing.T) {
	report := statusReport{
		Workflow: workflow.StatusSummary{
			DatabasePath: "/tmp/curator.db",
			StageHealth: []stage.Health{
				stage.Healthy("aggregate"),
				stage.Unhealthy("enrich", "no enricher"),
			},
		},
		Preflight: []preflight.Result{
			{Name: "Data directory", Passed: true, Detail: "/tmp", Required: true},
			{Name: "ntfy", Passed: false, Detail: "timeout"},
		},
	}
	joined := strings.Join(statusLines(report, false), "\n")
	requireContains(t, joined, "[INFO] Not running")
	requireContains(t, joined, "[ERROR] no enricher")
	requireContains(t, joined, "[WARN] timeout")
	requireContains(t, joined, "[OK] /tmp")
	requireContains(t, joined, "\n\n== Stages ==")
	if strings.HasPrefix(joined, "\n") {
		t.Fatalf("status output should not start with a blank line: %q", joined)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
