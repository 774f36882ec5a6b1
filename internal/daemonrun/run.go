package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"curator/internal/config"
	"curator/internal/daemon"
	"curator/internal/logging"
	"curator/internal/preflight"
	"curator/internal/store"
	"curator/internal/telemetry"
	"curator/internal/workflow"
)

// Options configures server process runtime behavior.
type Options struct {
	LogLevel string
	// Ready, when set, receives the bound API address once the server is listening.
	Ready func(address string)
}

// Run starts the curator server and blocks until ctx is cancelled or the
// process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	logger, err := logging.NewServerLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	shutdownTracing, err := telemetry.Init(cfg, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("tracing shutdown failed", logging.Error(err))
		}
	}()

	if err := runPreflight(signalCtx, cfg, logger); err != nil {
		return err
	}

	pidPath := filepath.Join(cfg.Paths.DataDir, "curator.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	st, err := store.Open(cfg)
	if err != nil {
		logging.ErrorWithContext(logger, "open catalog store", "store_open_failed",
			logging.Error(err),
			logging.Hint("check data_dir permissions and free disk space"),
		)
		return err
	}

	manager := workflow.NewManager(cfg, st, logger)
	d, err := daemon.New(cfg, logger, manager)
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}
	if opts.Ready != nil {
		opts.Ready(d.Address())
	}

	<-signalCtx.Done()
	logger.Info("curator server shutting down")
	return nil
}

// runPreflight logs every check and refuses to start when a required one fails.
func runPreflight(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	results := preflight.RunAll(ctx, cfg)
	for _, result := range results {
		attrs := []logging.Attr{
			logging.String("check", result.Name),
			logging.Bool("passed", result.Passed),
			logging.String("detail", result.Detail),
		}
		if result.Passed {
			logger.Debug("preflight check", logging.Args(attrs...)...)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed", attrs...)
	}
	if failed := preflight.Failed(results); len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, result := range failed {
			names = append(names, result.Name+": "+result.Detail)
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(names, "; "))
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

// ReadPID returns the pid recorded by a running server, or 0 when none is recorded.
func ReadPID(cfg *config.Config) int {
	if cfg == nil {
		return 0
	}
	data, err := os.ReadFile(filepath.Join(cfg.Paths.DataDir, "curator.pid"))
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}
