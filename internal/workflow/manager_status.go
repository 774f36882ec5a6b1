package workflow

import (
	"context"
	"time"

	"curator/internal/catalog"
	"curator/internal/logging"
	"curator/internal/stage"
)

// BatchSummary describes the most recent pipeline batch.
type BatchSummary struct {
	StartedAt    time.Time     `json:"startedAt"`
	ProductCount int           `json:"productCount"`
	SuccessCount int           `json:"successCount"`
	FailureCount int           `json:"failureCount"`
	Duration     time.Duration `json:"durationNs"`
}

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	ActiveBatches int                   `json:"activeBatches"`
	LastError     string                `json:"lastError,omitempty"`
	LastBatch     *BatchSummary         `json:"lastBatch,omitempty"`
	StageHealth   []stage.Health        `json:"stageHealth"`
	Metrics       catalog.GlobalMetrics `json:"metrics"`
	DatabasePath  string                `json:"databasePath"`
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	active := m.activeBatches
	lastErr := m.lastErr
	var lastBatch *BatchSummary
	if m.lastBatch != nil {
		copy := *m.lastBatch
		lastBatch = &copy
	}
	m.mu.RUnlock()

	metrics, err := m.store.GlobalMetrics(ctx)
	if err != nil {
		m.logger.Warn("failed to read catalog metrics", logging.Error(err))
	}

	summary := StatusSummary{
		ActiveBatches: active,
		LastBatch:     lastBatch,
		StageHealth:   m.pipeline.HealthCheck(ctx),
		Metrics:       metrics,
		DatabasePath:  m.store.Path(),
	}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	return summary
}
