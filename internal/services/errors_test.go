package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(ErrExternal, "publishing", "deliver", "webhook rejected batch", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrExternal) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"publishing", "deliver", "webhook rejected batch"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestTargetNotFoundIsNotFound(t *testing.T) {
	err := fmt.Errorf("publish: %w", ErrTargetNotFound)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected target-not-found to classify as not found: %v", err)
	}
	if kind := Kind(err); kind != "not_found" {
		t.Fatalf("unexpected kind %q", kind)
	}
}

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{Wrap(ErrValidation, "review", "set status", "bad status", nil), "validation"},
		{Wrap(ErrConfiguration, "publishing", "", "missing bucket", nil), "configuration"},
		{Wrap(ErrTransient, "store", "", "", errors.New("locked")), "internal"},
		{Wrap(nil, "", "", "", nil), "internal"},
	}
	for _, tc := range cases {
		if got := Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
