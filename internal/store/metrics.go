package store

import (
	"context"
	"fmt"

	"curator/internal/catalog"
)

// GlobalMetrics summarizes the whole catalog.
func (s *Store) GlobalMetrics(ctx context.Context) (catalog.GlobalMetrics, error) {
	var metrics catalog.GlobalMetrics
	err := s.db.QueryRowContext(ensureContext(ctx), `
SELECT
    (SELECT COUNT(*) FROM projects),
    (SELECT COUNT(*) FROM projects WHERE status = ?),
    (SELECT COUNT(*) FROM products),
    (SELECT COUNT(*) FROM golden_records WHERE published_at IS NOT NULL)`,
		string(catalog.ProjectActive),
	).Scan(&metrics.TotalProjects, &metrics.ActiveProjects, &metrics.TotalProducts, &metrics.PublishedProducts)
	if err != nil {
		return metrics, fmt.Errorf("global metrics: %w", err)
	}
	return metrics, nil
}
