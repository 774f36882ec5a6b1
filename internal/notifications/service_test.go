package notifications

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"curator/internal/config"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, <-chan capturedRequest) {
	t.Helper()
	requests := make(chan capturedRequest, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests <- capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, requests
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := NewService(&cfg)
	if err := svc.NotifyBatchCompleted(context.Background(), 1, 0, time.Second); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("expected nil config to yield noop notifier, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	server, requests := newNtfyServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := NewService(&cfg)
	ctx := context.Background()

	tests := []struct {
		name         string
		send         func() error
		wantTitle    string
		wantBody     string
		wantTags     string
		wantPriority string
	}{
		{
			name:      "batch success",
			send:      func() error { return svc.NotifyBatchCompleted(ctx, 3, 0, 1500*time.Millisecond) },
			wantTitle: "Curator - Batch Complete",
			wantBody:  "Pipeline batch complete: 3 products processed in 1.5s",
			wantTags:  "curator,pipeline,completed",
		},
		{
			name:      "batch with failures",
			send:      func() error { return svc.NotifyBatchCompleted(ctx, 2, 1, time.Second) },
			wantTitle: "Curator - Batch Complete (with errors)",
			wantBody:  "Pipeline batch complete: 2 succeeded, 1 failed in 1s",
			wantTags:  "curator,pipeline,warning",
		},
		{
			name:         "publish failure",
			send:         func() error { return svc.NotifyPublishCompleted(ctx, "Shop feed", "failure", 4) },
			wantTitle:    "Curator - Publish Failed",
			wantBody:     "Published 4 products to Shop feed (failure)",
			wantTags:     "curator,publish,failure",
			wantPriority: "high",
		},
		{
			name:         "error",
			send:         func() error { return svc.NotifyError(ctx, errors.New("disk full"), "export") },
			wantTitle:    "Curator - Error",
			wantBody:     "Error with export: disk full",
			wantTags:     "curator,error,alert",
			wantPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.send(); err != nil {
				t.Fatalf("send failed: %v", err)
			}
			got := <-requests
			if got.title != tc.wantTitle || got.body != tc.wantBody || got.tags != tc.wantTags || got.priority != tc.wantPriority {
				t.Fatalf("unexpected request %+v", got)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server, _ := newNtfyServer(t, http.StatusBadGateway)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := NewService(&cfg).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected 502 error, got %v", err)
	}
}
