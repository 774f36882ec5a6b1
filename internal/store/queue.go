package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"curator/internal/catalog"
)

const queueColumns = "id, project_id, product_id, status, notes, reviewed_at, created_at"

// GetQueueItem fetches a validation queue item by id.
func (s *Store) GetQueueItem(ctx context.Context, id string) (*catalog.QueueItem, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+queueColumns+` FROM validation_queue WHERE id = ?`, id)
	item, err := scanQueueItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get queue item: %w", err)
	}
	return item, nil
}

// GetQueueItemByProduct fetches the queue item gating a product's golden record.
func (s *Store) GetQueueItemByProduct(ctx context.Context, productID string) (*catalog.QueueItem, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+queueColumns+` FROM validation_queue WHERE product_id = ?`, productID)
	item, err := scanQueueItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get queue item by product: %w", err)
	}
	return item, nil
}

// ListQueueItems returns the queue items of a project, newest first. A nil
// status returns every item.
func (s *Store) ListQueueItems(ctx context.Context, projectID string, status *catalog.ReviewStatus) ([]*catalog.QueueItem, error) {
	query := `SELECT ` + queueColumns + ` FROM validation_queue WHERE project_id = ?`
	args := []any{projectID}
	if status != nil {
		query += ` AND status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []*catalog.QueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateQueueStatus sets the status of one item and stamps reviewed_at. Notes
// are replaced only when non-nil. It reports whether the item exists.
func (s *Store) UpdateQueueStatus(ctx context.Context, id string, status catalog.ReviewStatus, notes *string) (bool, error) {
	var notesArg any
	if notes != nil {
		notesArg = *notes
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE validation_queue SET status = ?, reviewed_at = ?, notes = COALESCE(?, notes) WHERE id = ?`,
		string(status), formatTime(s.now()), notesArg, id)
	if err != nil {
		return false, fmt.Errorf("update queue status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// BulkUpdateQueueStatus sets status on every listed item that exists and
// returns the number of rows updated. Unknown ids are ignored.
func (s *Store) BulkUpdateQueueStatus(ctx context.Context, ids []string, status catalog.ReviewStatus) (int64, error) {
	reviewedAt := formatTime(s.now())
	var total int64
	for _, chunk := range chunkIDs(ids) {
		res, err := s.execWithRetry(ctx,
			`UPDATE validation_queue SET status = ?, reviewed_at = ? WHERE id IN (`+makePlaceholders(len(chunk))+`)`,
			stringArgs(chunk, string(status), reviewedAt)...)
		if err != nil {
			return total, fmt.Errorf("bulk update queue status: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += affected
	}
	return total, nil
}

// QueueStats counts the queue items of a project per status.
func (s *Store) QueueStats(ctx context.Context, projectID string) (catalog.QueueStats, error) {
	var stats catalog.QueueStats
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT status, COUNT(*) FROM validation_queue WHERE project_id = ? GROUP BY status`, projectID)
	if err != nil {
		return stats, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return stats, err
		}
		stats.Add(catalog.ReviewStatus(status), count)
	}
	return stats, rows.Err()
}

// ApprovedProductIDs returns the product ids whose queue item is approved, oldest first.
func (s *Store) ApprovedProductIDs(ctx context.Context, projectID string) ([]string, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT product_id FROM validation_queue WHERE project_id = ? AND status = ? ORDER BY created_at, rowid`,
		projectID, string(catalog.ReviewApproved))
	if err != nil {
		return nil, fmt.Errorf("approved product ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanQueueItem(scanner interface{ Scan(dest ...any) error }) (*catalog.QueueItem, error) {
	var (
		item        catalog.QueueItem
		status      string
		notes       sql.NullString
		reviewedRaw sql.NullString
		createdRaw  string
	)
	if err := scanner.Scan(&item.ID, &item.ProjectID, &item.ProductID, &status, &notes, &reviewedRaw, &createdRaw); err != nil {
		return nil, err
	}
	item.Status = catalog.ReviewStatus(status)
	item.Notes = notes.String
	item.ReviewedAt = parseNullableTime(reviewedRaw)
	if created, err := parseTimeString(createdRaw); err == nil {
		item.CreatedAt = created
	}
	return &item, nil
}
