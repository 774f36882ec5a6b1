package daemonrun_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"curator/internal/daemonrun"
	"curator/internal/testsupport"
)

func TestRunServesUntilCancelled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- daemonrun.Run(ctx, cfg, daemonrun.Options{Ready: func(addr string) { ready <- addr }})
	}()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("Run returned early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not become ready")
	}

	if pid := daemonrun.ReadPID(cfg); pid == 0 {
		t.Fatal("expected pid file while running")
	}

	resp, err := http.Get("http://" + addr + "/api/projects")
	if err != nil {
		t.Fatalf("GET /api/projects: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
	if pid := daemonrun.ReadPID(cfg); pid != 0 {
		t.Fatalf("pid file left behind: %d", pid)
	}
}

func TestRunFailsOnInvalidBind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = "not-an-address"
	err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{})
	if err == nil {
		t.Fatal("expected start failure for an invalid bind address")
	}
}
