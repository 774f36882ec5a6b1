package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type busyError struct{ code int }

func (e busyError) Error() string { return "sqlite error" }
func (e busyError) Code() int     { return e.code }

func TestChunkIDsRespectsInClauseLimit(t *testing.T) {
	ids := make([]string, maxInClause*2+3)
	for i := range ids {
		ids[i] = "id"
	}
	chunks := chunkIDs(ids)
	if len(chunks) != 3 || len(chunks[0]) != maxInClause || len(chunks[2]) != 3 {
		t.Fatalf("unexpected chunk sizes %d", len(chunks))
	}
	if chunkIDs(nil) != nil {
		t.Fatal("expected no chunks for no ids")
	}
	if got := makePlaceholders(3); got != "?,?,?" {
		t.Fatalf("makePlaceholders(3) = %q", got)
	}
	if got := makePlaceholders(0); got != "" {
		t.Fatalf("makePlaceholders(0) = %q", got)
	}
}

func TestFormatTimeSortsAsText(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	earlier := formatTime(base)
	later := formatTime(base.Add(1500 * time.Microsecond))
	if len(earlier) != len(later) || !(earlier < later) {
		t.Fatalf("expected fixed-width ascending text, got %q and %q", earlier, later)
	}

	parsed, err := parseTimeString(later)
	if err != nil || !parsed.Equal(base.Add(1500*time.Microsecond)) {
		t.Fatalf("parseTimeString(%q) = %v, %v", later, parsed, err)
	}
	if legacy, err := parseTimeString("2026-03-01 09:00:00"); err != nil || !legacy.Equal(base) {
		t.Fatalf("expected sqlite datetime fallback, got %v, %v", legacy, err)
	}
	if parseNullableTime(sql.NullString{}) != nil {
		t.Fatal("null column should parse to nil")
	}
}

func TestAttributesRoundTripThroughColumn(t *testing.T) {
	raw, err := encodeAttributes(nil)
	if err != nil || raw != "{}" {
		t.Fatalf("encodeAttributes(nil) = %q, %v", raw, err)
	}
	attrs, err := decodeAttributes(sql.NullString{String: `{"sku":"A-1"}`, Valid: true})
	if err != nil || attrs["sku"] != "A-1" {
		t.Fatalf("decodeAttributes = %v, %v", attrs, err)
	}
	if _, err := decodeAttributes(sql.NullString{String: "{", Valid: true}); err == nil {
		t.Fatal("expected malformed attributes to fail")
	}
}

func TestRetryOnBusyRetriesOnlyBusyErrors(t *testing.T) {
	calls := 0
	err := retryOnBusy(context.Background(), func() error {
		calls++
		if calls < 3 {
			return busyError{code: sqliteBusyCode}
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third attempt, got calls=%d err=%v", calls, err)
	}

	calls = 0
	constraint := errors.New("UNIQUE constraint failed")
	if err := retryOnBusy(context.Background(), func() error { calls++; return constraint }); !errors.Is(err, constraint) || calls != 1 {
		t.Fatalf("non-busy errors must not retry, calls=%d err=%v", calls, err)
	}

	calls = 0
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = retryOnBusy(ctx, func() error { calls++; return errors.New("database is locked") })
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Fatalf("expected cancellation after first busy attempt, calls=%d err=%v", calls, err)
	}
}

func TestOpenPathWritesSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curator.db")
	st, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	defer st.Close()

	var version int
	if err := st.db.QueryRow(`SELECT version FROM schema_version`).Scan(&version); err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if version != schemaVersion {
		t.Fatalf("schema version = %d, want %d", version, schemaVersion)
	}
	if !strings.HasSuffix(st.Path(), "curator.db") {
		t.Fatalf("unexpected path %q", st.Path())
	}
}
