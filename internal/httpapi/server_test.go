package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"curator/internal/catalog"
	"curator/internal/httpapi"
	"curator/internal/logging"
	"curator/internal/pipeline"
	"curator/internal/testsupport"
	"curator/internal/workflow"
)

type apiFixture struct {
	t      *testing.T
	mgr    *workflow.Manager
	server *httptest.Server
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManager(cfg, st, logging.NewNop())
	server := httptest.NewServer(httpapi.NewRouter(mgr, httpapi.Options{Logger: logging.NewNop()}))
	t.Cleanup(server.Close)
	return &apiFixture{t: t, mgr: mgr, server: server}
}

func (f *apiFixture) do(method, path string, body any, out any) *http.Response {
	f.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			f.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	if err != nil {
		f.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.server.Client().Do(req)
	if err != nil {
		f.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			f.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp
}

func TestProjectLifecycle(t *testing.T) {
	f := newAPIFixture(t)

	var created catalog.Project
	resp := f.do(http.MethodPost, "/api/projects", map[string]string{"name": "Spring catalog"}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	if created.ID == "" || created.Status != catalog.ProjectActive {
		t.Fatalf("unexpected project %+v", created)
	}

	var listed struct {
		Projects []catalog.Project `json:"projects"`
	}
	f.do(http.MethodGet, "/api/projects", nil, &listed)
	if len(listed.Projects) != 1 || listed.Projects[0].ID != created.ID {
		t.Fatalf("unexpected listing %+v", listed.Projects)
	}

	var archived catalog.Project
	resp = f.do(http.MethodPost, "/api/projects/"+created.ID+"/archive", nil, &archived)
	if resp.StatusCode != http.StatusOK || archived.Status != catalog.ProjectArchived {
		t.Fatalf("archive = %d %+v", resp.StatusCode, archived)
	}

	resp = f.do(http.MethodPost, "/api/projects/"+created.ID+"/products",
		map[string]any{"sku": "A-1", "attributes": map[string]string{"brand": "acme"}}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("add to archived project status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateProjectRequiresName(t *testing.T) {
	f := newAPIFixture(t)
	resp := f.do(http.MethodPost, "/api/projects", map[string]string{"name": "  "}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestUnknownProjectIsNotFound(t *testing.T) {
	f := newAPIFixture(t)
	for _, path := range []string{
		"/api/projects/missing",
		"/api/projects/missing/products",
		"/api/projects/missing/export.csv",
	} {
		if resp := f.do(http.MethodGet, path, nil, nil); resp.StatusCode != http.StatusNotFound {
			t.Fatalf("GET %s = %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestPipelineRunAndReview(t *testing.T) {
	f := newAPIFixture(t)
	project := testsupport.NewProject(t, f.mgr.Store(), "review")

	var product catalog.Product
	resp := f.do(http.MethodPost, "/api/projects/"+project.ID+"/products",
		map[string]any{"attributes": map[string]string{"sku": "a-1", "brand": "acme", "name": "rocket skates"}}, &product)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add product status = %d", resp.StatusCode)
	}

	var batch pipeline.BatchResult
	resp = f.do(http.MethodPost, "/api/pipeline/run", map[string]any{"productIds": []string{product.ID}}, &batch)
	if resp.StatusCode != http.StatusOK || batch.SuccessCount != 1 {
		t.Fatalf("run = %d %+v", resp.StatusCode, batch)
	}

	var queue struct {
		Items []catalog.QueueItem `json:"items"`
	}
	f.do(http.MethodGet, "/api/projects/"+project.ID+"/queue?status=pending", nil, &queue)
	if len(queue.Items) != 1 {
		t.Fatalf("pending items = %d, want 1", len(queue.Items))
	}
	itemID := queue.Items[0].ID

	if resp := f.do(http.MethodPatch, "/api/queue/"+itemID, map[string]string{"status": "bogus"}, nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bogus status = %d, want 400", resp.StatusCode)
	}
	if resp := f.do(http.MethodPatch, "/api/queue/missing", map[string]string{"status": "approved"}, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing item = %d, want 404", resp.StatusCode)
	}

	var item catalog.QueueItem
	resp = f.do(http.MethodPatch, "/api/queue/"+itemID, map[string]string{"status": "approved", "notes": "looks good"}, &item)
	if resp.StatusCode != http.StatusOK || item.Status != catalog.ReviewApproved || item.Notes != "looks good" {
		t.Fatalf("set status = %d %+v", resp.StatusCode, item)
	}

	var stats catalog.QueueStats
	f.do(http.MethodGet, "/api/projects/"+project.ID+"/queue/stats", nil, &stats)
	if stats.Total != 1 || stats.Approved != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	req, _ := http.NewRequest(http.MethodGet, f.server.URL+"/api/projects/"+project.ID+"/export.csv", nil)
	csvResp, err := f.server.Client().Do(req)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer csvResp.Body.Close()
	var body bytes.Buffer
	_, _ = body.ReadFrom(csvResp.Body)
	if got, want := body.String(), "SKU,Brand,Name\nA-1,Acme,Rocket Skates\n"; got != want {
		t.Fatalf("export = %q, want %q", got, want)
	}
}

func TestRunPipelineRequiresIDs(t *testing.T) {
	f := newAPIFixture(t)
	if resp := f.do(http.MethodPost, "/api/pipeline/run", map[string]any{"productIds": []string{}}, nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestPublishUnknownTargetIsNotFound(t *testing.T) {
	f := newAPIFixture(t)
	resp := f.do(http.MethodPost, "/api/targets/nope/publish", map[string]any{"productIds": []string{"p1"}}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestPublishThroughTarget(t *testing.T) {
	f := newAPIFixture(t)
	project := testsupport.NewProject(t, f.mgr.Store(), "publish")
	product := testsupport.NewProduct(t, f.mgr.Store(), project.ID, catalog.Attributes{"sku": "A-1"})
	testsupport.NewGoldenRecord(t, f.mgr.Store(), product, catalog.Attributes{"sku": "A-1", "brand": "Acme", "name": "Widget"})

	var target catalog.PublishTarget
	resp := f.do(http.MethodPost, "/api/projects/"+project.ID+"/targets", map[string]string{"name": "Dry run", "kind": "none"}, &target)
	if resp.StatusCode != http.StatusCreated || target.ID == "" {
		t.Fatalf("create target = %d %+v", resp.StatusCode, target)
	}

	var history catalog.PublishHistory
	resp = f.do(http.MethodPost, "/api/targets/"+target.ID+"/publish", map[string]any{"productIds": []string{product.ID, "missing"}}, &history)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("publish status = %d", resp.StatusCode)
	}
	if history.Status != catalog.PublishSuccess || history.ProductCount != 2 || len(history.Errors) != 1 || !history.Errors[0].Skipped {
		t.Fatalf("unexpected history %+v", history)
	}

	var listed struct {
		History []catalog.PublishHistory `json:"history"`
	}
	f.do(http.MethodGet, "/api/targets/"+target.ID+"/history", nil, &listed)
	if len(listed.History) != 1 || listed.History[0].ID != history.ID {
		t.Fatalf("unexpected history listing %+v", listed.History)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newAPIFixture(t)
	req, _ := http.NewRequest(http.MethodGet, f.server.URL+"/api/projects", nil)
	req.Header.Set("X-Request-ID", "req-123")
	resp, err := f.server.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "req-123" {
		t.Fatalf("X-Request-ID = %q", got)
	}

	resp = f.do(http.MethodGet, "/api/projects", nil, nil)
	if strings.TrimSpace(resp.Header.Get("X-Request-ID")) == "" {
		t.Fatal("expected generated request id")
	}
}

func TestStatusIncludesPreflight(t *testing.T) {
	f := newAPIFixture(t)
	var status struct {
		DatabasePath string `json:"databasePath"`
		Preflight    []struct {
			Name string `json:"name"`
		} `json:"preflight"`
	}
	resp := f.do(http.MethodGet, "/api/status", nil, &status)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if status.DatabasePath == "" || len(status.Preflight) < 2 {
		t.Fatalf("unexpected status %+v", status)
	}
}
