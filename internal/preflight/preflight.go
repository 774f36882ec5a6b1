package preflight

import (
	"context"
	"strings"

	"curator/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Detail   string `json:"detail"`
	Required bool   `json:"required"`
}

// RunAll executes all applicable preflight checks for the given config.
// Directory checks are required; endpoint checks only run when configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		required(CheckDirectoryAccess("Data directory", cfg.Paths.DataDir)),
		required(CheckDirectoryAccess("Export directory", cfg.Paths.ExportDir)),
	}

	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		results = append(results, CheckEndpoint(ctx, "ntfy", topic))
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Required && !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

func required(r Result) Result {
	r.Required = true
	return r
}
