package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"curator/internal/catalog"
	"curator/internal/logging"
	"curator/internal/services"
	"curator/internal/stage"
	"curator/internal/testsupport"
)

type fakeStage struct {
	name   string
	failOn map[string]error
	hook   func(ctx context.Context, productID string)

	mu    sync.Mutex
	calls map[string]int
}

func newFakeStage(name string) *fakeStage {
	return &fakeStage{name: name, failOn: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeStage) Execute(ctx context.Context, productID string) error {
	f.mu.Lock()
	f.calls[productID]++
	f.mu.Unlock()
	if f.hook != nil {
		f.hook(ctx, productID)
	}
	return f.failOn[productID]
}

func (f *fakeStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(f.name)
}

func (f *fakeStage) count(productID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[productID]
}

type fakeSet struct {
	aggregate, cleanse, standardize, rules, enrich, golden *fakeStage
}

func newFakeSet() *fakeSet {
	return &fakeSet{
		aggregate:   newFakeStage(stage.Aggregate),
		cleanse:     newFakeStage(stage.Cleanse),
		standardize: newFakeStage(stage.Standardize),
		rules:       newFakeStage(stage.ValidateRules),
		enrich:      newFakeStage(stage.Enrich),
		golden:      newFakeStage(stage.GoldenRecord),
	}
}

func (f *fakeSet) stageSet() StageSet {
	return StageSet{
		Aggregate:     f.aggregate,
		Cleanse:       f.cleanse,
		Standardize:   f.standardize,
		ValidateRules: f.rules,
		Enrich:        f.enrich,
		GoldenRecord:  f.golden,
	}
}

func TestProcessOneRunsStagesInOrder(t *testing.T) {
	set := newFakeSet()
	var (
		mu    sync.Mutex
		order []string
	)
	for _, s := range []*fakeStage{set.aggregate, set.cleanse, set.standardize, set.rules, set.enrich, set.golden} {
		name := s.name
		s.hook = func(context.Context, string) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	orch := New(set.stageSet(), WithLogger(logging.NewNop()))
	if err := orch.ProcessOne(context.Background(), "p1"); err != nil {
		t.Fatalf("ProcessOne failed: %v", err)
	}
	want := stage.Order()
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Fatalf("stage order = %v, want %v", order, want)
	}
}

func TestProcessOneStopsAtFirstFailure(t *testing.T) {
	set := newFakeSet()
	cause := errors.New("enrichment source unavailable")
	set.enrich.failOn["p2"] = cause

	orch := New(set.stageSet())
	err := orch.ProcessOne(context.Background(), "p2")

	var stageErr *stage.Error
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected *stage.Error, got %T (%v)", err, err)
	}
	if stageErr.Stage != stage.Enrich || stageErr.ProductID != "p2" || !errors.Is(err, cause) {
		t.Fatalf("unexpected stage error %+v", stageErr)
	}
	if set.golden.count("p2") != 0 {
		t.Fatal("golden record stage must not run after a failure")
	}
	if set.standardize.count("p2") != 1 {
		t.Fatal("stages before the failure should have run once")
	}
}

func TestProcessOneRequiresProductID(t *testing.T) {
	orch := New(newFakeSet().stageSet())
	if err := orch.ProcessOne(context.Background(), "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProcessManyIsolatesFailures(t *testing.T) {
	set := newFakeSet()
	set.enrich.failOn["p2"] = errors.New("boom")

	orch := New(set.stageSet(), WithWorkers(2))
	result := orch.ProcessMany(context.Background(), []string{"p1", "p2", "p3"})

	if result.SuccessCount != 2 || result.FailureCount != 1 {
		t.Fatalf("unexpected counts %+v", result)
	}
	if len(result.Failures) != 1 || result.Failures[0].ProductID != "p2" || result.Failures[0].Stage != stage.Enrich {
		t.Fatalf("unexpected failures %+v", result.Failures)
	}
	for _, id := range []string{"p1", "p3"} {
		if set.golden.count(id) != 1 {
			t.Fatalf("expected golden record stage to run for %s", id)
		}
	}
	if set.golden.count("p2") != 0 {
		t.Fatal("expected no golden record for p2")
	}
	if len(result.Results) != 3 || result.Results[1].ProductID != "p2" || result.Results[1].Success {
		t.Fatalf("expected results in input order, got %+v", result.Results)
	}
}

func TestProcessManyCountsEveryInput(t *testing.T) {
	cases := [][]string{
		nil,
		{"a"},
		{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
		{"a", "a", "b", "fail", "fail", "c"},
	}
	for _, ids := range cases {
		set := newFakeSet()
		set.cleanse.failOn["fail"] = errors.New("bad data")
		result := New(set.stageSet(), WithWorkers(3)).ProcessMany(context.Background(), ids)

		if result.SuccessCount+result.FailureCount != len(ids) {
			t.Fatalf("ids=%v: counts %d+%d != %d", ids, result.SuccessCount, result.FailureCount, len(ids))
		}
		if len(result.Results) != len(ids) {
			t.Fatalf("ids=%v: expected %d results, got %d", ids, len(ids), len(result.Results))
		}
		for i, id := range ids {
			if result.Results[i].ProductID != id {
				t.Fatalf("ids=%v: result %d is %q", ids, i, result.Results[i].ProductID)
			}
		}
	}

	set := newFakeSet()
	New(set.stageSet()).ProcessMany(context.Background(), []string{"dup", "dup", "dup"})
	if set.aggregate.count("dup") != 1 {
		t.Fatalf("expected duplicate ids to run once, ran %d times", set.aggregate.count("dup"))
	}
}

func TestProcessManyRespectsWorkerLimit(t *testing.T) {
	set := newFakeSet()
	var active, peak atomic.Int32
	set.aggregate.hook = func(context.Context, string) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		active.Add(-1)
	}

	ids := make([]string, 12)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%d", i)
	}
	result := New(set.stageSet(), WithWorkers(3)).ProcessMany(context.Background(), ids)
	if result.SuccessCount != len(ids) {
		t.Fatalf("unexpected result %+v", result)
	}
	if peak.Load() > 3 {
		t.Fatalf("expected at most 3 concurrent products, saw %d", peak.Load())
	}
}

func TestProcessManyCancelledBeforeStart(t *testing.T) {
	set := newFakeSet()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := New(set.stageSet()).ProcessMany(ctx, []string{"p1", "p2"})
	if result.FailureCount != 2 || result.SuccessCount != 0 {
		t.Fatalf("expected every product to fail, got %+v", result)
	}
	if set.aggregate.count("p1") != 0 {
		t.Fatal("expected no stage to run once the batch is cancelled")
	}
	if !errors.Is(result.Results[0].Err, context.Canceled) {
		t.Fatalf("expected cancellation cause, got %v", result.Results[0].Err)
	}
}

func TestProcessOneIgnoresCancellationMidRun(t *testing.T) {
	set := newFakeSet()
	ctx, cancel := context.WithCancel(context.Background())
	set.cleanse.hook = func(context.Context, string) { cancel() }
	var sawCancelled atomic.Bool
	set.golden.hook = func(stageCtx context.Context, _ string) {
		sawCancelled.Store(stageCtx.Err() != nil)
	}

	if err := New(set.stageSet()).ProcessOne(ctx, "p1"); err != nil {
		t.Fatalf("ProcessOne failed: %v", err)
	}
	if set.golden.count("p1") != 1 || sawCancelled.Load() {
		t.Fatal("expected the run to finish on a detached context")
	}
}

func TestHealthCheckReportsMissingHandlers(t *testing.T) {
	set := newFakeSet().stageSet()
	set.Enrich = nil
	health := New(set).HealthCheck(context.Background())
	if len(health) != 6 {
		t.Fatalf("expected six health entries, got %d", len(health))
	}
	if health[4].Name != stage.Enrich || health[4].Ready {
		t.Fatalf("expected enrich to be unhealthy, got %+v", health[4])
	}
}

func TestDefaultStagesProduceReviewableGoldenRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	project := testsupport.NewProject(t, st, "catalog")

	good := testsupport.NewProduct(t, st, project.ID, catalog.Attributes{"sku": "a-1", "Brand": "acme", "Name": " rocket  skates "})
	bad := testsupport.NewProduct(t, st, project.ID, catalog.Attributes{"sku": "b-2", "Name": "no brand"})

	orch := NewFromConfig(cfg, st, logging.NewNop(), nil)
	result := orch.ProcessMany(ctx, []string{good.ID, bad.ID})
	if result.SuccessCount != 1 || result.FailureCount != 1 {
		t.Fatalf("unexpected batch result %+v", result)
	}
	if result.Failures[0].ProductID != bad.ID || result.Failures[0].Stage != stage.ValidateRules {
		t.Fatalf("unexpected failure %+v", result.Failures[0])
	}

	rec, err := st.GetGoldenRecord(ctx, good.ID)
	if err != nil || rec == nil {
		t.Fatalf("GetGoldenRecord = %v, %v", rec, err)
	}
	if rec.SKU() != "A-1" || rec.Brand() != "Acme" || rec.Name() != "Rocket Skates" {
		t.Fatalf("unexpected golden record %+v", rec.Attributes)
	}
	if rec.Attributes["slug"] != "acme-rocket-skates" {
		t.Fatalf("expected enrichment slug, got %+v", rec.Attributes)
	}

	item, err := st.GetQueueItemByProduct(ctx, good.ID)
	if err != nil || item == nil || item.Status != catalog.ReviewPending {
		t.Fatalf("expected pending queue item, got %+v (%v)", item, err)
	}
	if missing, _ := st.GetGoldenRecord(ctx, bad.ID); missing != nil {
		t.Fatal("expected no golden record for the failing product")
	}

	for _, health := range orch.HealthCheck(ctx) {
		if !health.Ready {
			t.Fatalf("expected healthy stage, got %+v", health)
		}
	}
}

func TestNewAppliesWorkerOption(t *testing.T) {
	set := newFakeSet().stageSet()
	if got := New(set).workers; got != defaultWorkers {
		t.Fatalf("default workers = %d, want %d", got, defaultWorkers)
	}
	if got := New(set, WithWorkers(0)).workers; got != defaultWorkers {
		t.Fatalf("non-positive worker count should be ignored, got %d", got)
	}
	if got := New(set, WithWorkers(7)).workers; got != 7 {
		t.Fatalf("workers = %d, want 7", got)
	}

	ordered := set.ordered()
	for i, name := range stage.Order() {
		if ordered[i].name != name {
			t.Fatalf("stage %d = %s, want %s", i, ordered[i].name, name)
		}
	}
}
