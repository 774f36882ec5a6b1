package main

import (
	"os"
	"path/filepath"
	"testing"

	"curator/internal/catalog"
	"curator/internal/pipeline"
)

func TestCatalogWorkflowEndToEnd(t *testing.T) {
	env := setupCLITestEnv(t)

	var project catalog.Project
	runJSON(t, env, &project, "project", "create", "Spring catalog", "--description", "seasonal")
	if project.ID == "" || project.Description != "seasonal" {
		t.Fatalf("unexpected project %+v", project)
	}

	importPath := filepath.Join(t.TempDir(), "products.csv")
	csv := "sku,brand,name\na-1,acme,rocket skates\n,acme,nameless\nb-2,acme,giant magnet\n"
	if err := os.WriteFile(importPath, []byte(csv), 0o644); err != nil {
		t.Fatalf("write import file: %v", err)
	}
	out, _, err := runCLI(t, []string{"product", "import", project.ID, importPath}, env.configPath)
	if err != nil {
		t.Fatalf("product import: %v", err)
	}
	requireContains(t, out, "Imported 2 products")
	requireContains(t, out, "row 3 skipped")

	var batch pipeline.BatchResult
	runJSON(t, env, &batch, "pipeline", "run", "--project", project.ID)
	if batch.SuccessCount != 2 || batch.FailureCount != 0 {
		t.Fatalf("unexpected batch %+v", batch)
	}

	var items []catalog.QueueItem
	runJSON(t, env, &items, "review", "list", project.ID, "--status", "pending")
	if len(items) != 2 {
		t.Fatalf("pending items = %d, want 2", len(items))
	}

	out, _, err = runCLI(t, []string{"review", "approve", items[0].ID, items[1].ID}, env.configPath)
	if err != nil {
		t.Fatalf("review approve: %v", err)
	}
	requireContains(t, out, "Approved 2 items")

	var stats catalog.QueueStats
	runJSON(t, env, &stats, "review", "stats", project.ID)
	if stats.Approved != 2 || stats.Total != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	out, _, err = runCLI(t, []string{"export", "csv", project.ID}, env.configPath)
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	if want := "SKU,Brand,Name\nA-1,Acme,Rocket Skates\nB-2,Acme,Giant Magnet\n"; out != want {
		t.Fatalf("export = %q, want %q", out, want)
	}

	var target catalog.PublishTarget
	runJSON(t, env, &target, "target", "create", project.ID, "Dry run", "--kind", "none")

	var history catalog.PublishHistory
	runJSON(t, env, &history, "publish", "approved", target.ID)
	if history.Status != catalog.PublishSuccess || history.ProductCount != 2 {
		t.Fatalf("unexpected publish %+v", history)
	}

	out, _, err = runCLI(t, []string{"publish", "history", target.ID}, env.configPath)
	if err != nil {
		t.Fatalf("publish history: %v", err)
	}
	requireContains(t, out, history.ID)
	requireContains(t, out, "success")
}

func TestReviewSetRejectsUnknownStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"review", "set", "some-item", "maybe"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestPublishUnknownTargetFails(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"publish", "run", "missing-target", "p1"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown target")
	}
	requireContains(t, err.Error(), "missing-target")
}

func TestPipelineRunRequiresInput(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"pipeline", "run"}, env.configPath)
	if err == nil {
		t.Fatal("expected error without ids or --project")
	}
	requireContains(t, err.Error(), "--project")
}

func TestProjectListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"project", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("project list: %v", err)
	}
	requireContains(t, out, "No projects")
}

func TestStatusReportsDatabase(t *testing.T) {
	env := setupCLITestEnv(t)
	var report statusReport
	runJSON(t, env, &report, "status")
	if filepath.Dir(report.Workflow.DatabasePath) != env.dataDir {
		t.Fatalf("database path = %q", report.Workflow.DatabasePath)
	}
	if len(report.Workflow.StageHealth) != 6 {
		t.Fatalf("stage health entries = %d, want 6", len(report.Workflow.StageHealth))
	}
	if report.ServerPID != 0 {
		t.Fatalf("expected no server pid, got %d", report.ServerPID)
	}
}

func TestParseAttributes(t *testing.T) {
	attrs, err := parseAttributes([]string{"sku=A-1", " brand =Acme", "note=a=b"})
	if err != nil {
		t.Fatalf("parseAttributes: %v", err)
	}
	if attrs["sku"] != "A-1" || attrs["brand"] != "Acme" || attrs["note"] != "a=b" {
		t.Fatalf("unexpected attrs %v", attrs)
	}
	if _, err := parseAttributes([]string{"novalue"}); err == nil {
		t.Fatal("expected error for missing '='")
	}
}
