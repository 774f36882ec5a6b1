package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"curator/internal/catalog"
	"curator/internal/logging"
	"curator/internal/pipeline"
	"curator/internal/services"
	"curator/internal/store"
	"curator/internal/testsupport"
)

type fixture struct {
	st      *store.Store
	svc     *Service
	project *catalog.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	return &fixture{
		st:      st,
		svc:     NewService(st, logging.NewNop()),
		project: testsupport.NewProject(t, st, "review"),
	}
}

func (f *fixture) newItem(t *testing.T, sku string) *catalog.QueueItem {
	t.Helper()
	product := testsupport.NewProduct(t, f.st, f.project.ID, catalog.Attributes{"sku": sku})
	return testsupport.NewGoldenRecord(t, f.st, product, catalog.Attributes{"sku": sku, "brand": "Acme", "name": sku})
}

func TestSetStatusIsReversible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.newItem(t, "A-1")

	path := []catalog.ReviewStatus{
		catalog.ReviewInReview,
		catalog.ReviewApproved,
		catalog.ReviewFlagged,
		catalog.ReviewRejected,
		catalog.ReviewApproved,
		catalog.ReviewPending,
	}
	for _, status := range path {
		updated, err := f.svc.SetStatus(ctx, item.ID, status, nil)
		if err != nil {
			t.Fatalf("SetStatus(%s): %v", status, err)
		}
		if updated.Status != status {
			t.Fatalf("expected status %s, got %s", status, updated.Status)
		}
		if updated.ReviewedAt == nil {
			t.Fatalf("expected reviewedAt to be stamped for %s", status)
		}
	}
}

func TestSetStatusNotesOnlyChangeWhenProvided(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.newItem(t, "A-1")

	notes := "colour looks wrong"
	if _, err := f.svc.SetStatus(ctx, item.ID, catalog.ReviewFlagged, &notes); err != nil {
		t.Fatalf("SetStatus with notes: %v", err)
	}
	first, err := f.st.GetQueueItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetQueueItem: %v", err)
	}

	f.st.SetClock(func() time.Time { return first.ReviewedAt.Add(time.Minute) })
	updated, err := f.svc.SetStatus(ctx, item.ID, catalog.ReviewApproved, nil)
	if err != nil {
		t.Fatalf("SetStatus without notes: %v", err)
	}
	if updated.Notes != notes {
		t.Fatalf("expected notes to be preserved, got %q", updated.Notes)
	}
	if !updated.ReviewedAt.After(*first.ReviewedAt) {
		t.Fatalf("expected reviewedAt to advance, got %v then %v", first.ReviewedAt, updated.ReviewedAt)
	}

	empty := ""
	cleared, err := f.svc.SetStatus(ctx, item.ID, catalog.ReviewApproved, &empty)
	if err != nil {
		t.Fatalf("SetStatus clearing notes: %v", err)
	}
	if cleared.Notes != "" {
		t.Fatalf("expected notes to be cleared, got %q", cleared.Notes)
	}
}

func TestSetStatusErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.newItem(t, "A-1")

	if _, err := f.svc.SetStatus(ctx, "missing", catalog.ReviewApproved, nil); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.svc.SetStatusString(ctx, item.ID, "shipped", nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	updated, err := f.svc.SetStatusString(ctx, item.ID, " In_Review ", nil)
	if err != nil {
		t.Fatalf("SetStatusString: %v", err)
	}
	if updated.Status != catalog.ReviewInReview {
		t.Fatalf("expected in_review, got %s", updated.Status)
	}
}

func TestBulkApproveSkipsMissingIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.newItem(t, "A-1")
	b := f.newItem(t, "B-2")
	untouched := f.newItem(t, "C-3")

	updated, err := f.svc.BulkApprove(ctx, []string{a.ID, "ghost", b.ID, a.ID, ""})
	if err != nil {
		t.Fatalf("BulkApprove: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 updated rows, got %d", updated)
	}

	approved := catalog.ReviewApproved
	items, err := f.svc.ListItems(ctx, f.project.ID, &approved)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	got := map[string]bool{}
	for _, item := range items {
		got[item.ID] = true
	}
	if !got[a.ID] || !got[b.ID] || got[untouched.ID] || len(items) != 2 {
		t.Fatalf("unexpected approved set %+v", got)
	}

	all, err := f.svc.ListItems(ctx, f.project.ID, nil)
	if err != nil {
		t.Fatalf("ListItems all: %v", err)
	}
	for _, item := range all {
		if item.ID == "ghost" {
			t.Fatal("unknown id must not appear in the queue")
		}
	}
}

func TestStatsSumMatchesListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	statuses := []catalog.ReviewStatus{
		catalog.ReviewPending,
		catalog.ReviewInReview,
		catalog.ReviewApproved,
		catalog.ReviewApproved,
		catalog.ReviewRejected,
		catalog.ReviewFlagged,
	}
	for i, status := range statuses {
		item := f.newItem(t, string(rune('A'+i))+"-1")
		if status == catalog.ReviewPending {
			continue
		}
		if _, err := f.svc.SetStatus(ctx, item.ID, status, nil); err != nil {
			t.Fatalf("SetStatus: %v", err)
		}
	}

	stats, err := f.svc.GetStats(ctx, f.project.ID)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	sum := stats.Pending + stats.InReview + stats.Approved + stats.Rejected + stats.Flagged
	items, err := f.svc.ListItems(ctx, f.project.ID, nil)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if sum != stats.Total || stats.Total != len(items) || stats.Total != len(statuses) {
		t.Fatalf("stats %+v do not match %d items", stats, len(items))
	}
	if stats.Approved != 2 {
		t.Fatalf("expected 2 approved, got %d", stats.Approved)
	}

	empty, err := f.svc.GetStats(ctx, "no-such-project")
	if err != nil || empty.Total != 0 {
		t.Fatalf("expected zero stats for unknown project, got %+v (%v)", empty, err)
	}
}

func TestListItemsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var ids []string
	for i, sku := range []string{"A-1", "B-2", "C-3"} {
		f.st.SetClock(func() time.Time { return base.Add(time.Duration(i) * time.Minute) })
		ids = append(ids, f.newItem(t, sku).ID)
	}

	items, err := f.svc.ListItems(ctx, f.project.ID, nil)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 3 || items[0].ID != ids[2] || items[2].ID != ids[0] {
		t.Fatalf("expected newest first, got %+v", items)
	}

	bogus := catalog.ReviewStatus("archived")
	if _, err := f.svc.ListItems(ctx, f.project.ID, &bogus); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unknown filter, got %v", err)
	}
}

func TestReprocessingKeepsApproval(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	project := testsupport.NewProject(t, st, "rerun")
	product := testsupport.NewProduct(t, st, project.ID, catalog.Attributes{"sku": "r-1", "brand": "acme", "name": "widget"})
	orch := pipeline.NewFromConfig(cfg, st, logging.NewNop(), nil)
	svc := NewService(st, logging.NewNop())

	if err := orch.ProcessOne(ctx, product.ID); err != nil {
		t.Fatalf("first run: %v", err)
	}
	item, err := st.GetQueueItemByProduct(ctx, product.ID)
	if err != nil || item == nil {
		t.Fatalf("queue item missing: %v", err)
	}
	if _, err := svc.SetStatus(ctx, item.ID, catalog.ReviewApproved, nil); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if err := orch.ProcessOne(ctx, product.ID); err != nil {
		t.Fatalf("second run: %v", err)
	}
	after, err := st.GetQueueItemByProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("reload queue item: %v", err)
	}
	if after.ID != item.ID || after.Status != catalog.ReviewApproved {
		t.Fatalf("expected the approved item to survive reprocessing, got %+v", after)
	}
	stats, err := svc.GetStats(ctx, project.ID)
	if err != nil || stats.Total != 1 {
		t.Fatalf("expected a single queue item, got %+v (%v)", stats, err)
	}
}

type recordingStore struct {
	Store
	bulkCalls [][]string
}

func (r *recordingStore) BulkUpdateQueueStatus(_ context.Context, ids []string, _ catalog.ReviewStatus) (int64, error) {
	r.bulkCalls = append(r.bulkCalls, ids)
	return int64(len(ids)), nil
}

func TestBulkApproveNormalizesIDsBeforeStore(t *testing.T) {
	rec := &recordingStore{}
	svc := NewService(rec, nil)

	if n, err := svc.BulkApprove(context.Background(), []string{" ", ""}); err != nil || n != 0 {
		t.Fatalf("blank ids = %d, %v", n, err)
	}
	if len(rec.bulkCalls) != 0 {
		t.Fatalf("blank ids must not reach the store, got %v", rec.bulkCalls)
	}

	if _, err := svc.BulkApprove(context.Background(), []string{" a ", "b", "a"}); err != nil {
		t.Fatalf("BulkApprove: %v", err)
	}
	if len(rec.bulkCalls) != 1 || len(rec.bulkCalls[0]) != 2 || rec.bulkCalls[0][0] != "a" || rec.bulkCalls[0][1] != "b" {
		t.Fatalf("unexpected store call %v", rec.bulkCalls)
	}
}
