package testsupport

import (
	"context"
	"database/sql"
	"testing"

	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewProject creates an active project for tests.
func NewProject(t testing.TB, st *store.Store, name string) *catalog.Project {
	t.Helper()

	project, err := st.CreateProject(context.Background(), name, "")
	if err != nil {
		t.Fatalf("store.CreateProject: %v", err)
	}
	return project
}

// NewProduct creates a product in projectID with the given source attributes.
func NewProduct(t testing.TB, st *store.Store, projectID string, source catalog.Attributes) *catalog.Product {
	t.Helper()

	product, err := st.CreateProduct(context.Background(), projectID, "", source)
	if err != nil {
		t.Fatalf("store.CreateProduct: %v", err)
	}
	return product
}

// NewGoldenRecord stores a golden record for product built from attrs and
// returns its validation queue item.
func NewGoldenRecord(t testing.TB, st *store.Store, product *catalog.Product, attrs catalog.Attributes) *catalog.QueueItem {
	t.Helper()

	ctx := context.Background()
	rec := &catalog.GoldenRecord{ProductID: product.ID, ProjectID: product.ProjectID, Attributes: attrs}
	if _, err := st.SaveGoldenRecord(ctx, rec); err != nil {
		t.Fatalf("store.SaveGoldenRecord: %v", err)
	}
	item, err := st.GetQueueItemByProduct(ctx, product.ID)
	if err != nil || item == nil {
		t.Fatalf("store.GetQueueItemByProduct: item=%v err=%v", item, err)
	}
	return item
}

// MustOpenRawDB opens a second connection to the test datastore for assertions
// that bypass the Store API.
func MustOpenRawDB(t testing.TB, cfg *config.Config) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}
