package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"curator/internal/catalog"
)

const historyColumns = "id, target_id, product_count, status, errors_json, created_at"

// PublishRecord is the outcome of one publish call to persist atomically.
type PublishRecord struct {
	TargetID     string
	ProductCount int
	Status       catalog.PublishStatus
	Errors       []catalog.PublishError
	// Delivered lists products the destination accepted. They get published_at
	// and, when non-empty, the target gets last_publish_at.
	Delivered []string
}

// RecordPublish appends a history row and stamps delivery timestamps in one transaction.
func (s *Store) RecordPublish(ctx context.Context, record PublishRecord) (*catalog.PublishHistory, error) {
	ctx = ensureContext(ctx)
	errs := record.Errors
	if errs == nil {
		errs = []catalog.PublishError{}
	}
	encoded, err := json.Marshal(errs)
	if err != nil {
		return nil, fmt.Errorf("encode publish errors: %w", err)
	}
	now := s.now()
	history := &catalog.PublishHistory{
		ID:           uuid.NewString(),
		TargetID:     record.TargetID,
		ProductCount: record.ProductCount,
		Status:       record.Status,
		Errors:       errs,
		CreatedAt:    now,
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO publish_history (id, target_id, product_count, status, errors_json, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			history.ID, history.TargetID, history.ProductCount, string(history.Status), string(encoded), formatTime(now),
		); err != nil {
			return fmt.Errorf("insert publish history: %w", err)
		}
		if len(record.Delivered) == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE publish_targets SET last_publish_at = ? WHERE id = ?`,
			formatTime(now), record.TargetID,
		); err != nil {
			return fmt.Errorf("stamp target last publish: %w", err)
		}
		return markPublishedTx(ctx, tx, record.Delivered, now)
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

// ListHistory returns the publish history of a target, newest first.
func (s *Store) ListHistory(ctx context.Context, targetID string) ([]*catalog.PublishHistory, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+historyColumns+` FROM publish_history WHERE target_id = ? ORDER BY created_at DESC, rowid DESC`,
		targetID)
	if err != nil {
		return nil, fmt.Errorf("list publish history: %w", err)
	}
	defer rows.Close()

	var entries []*catalog.PublishHistory
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanHistory(scanner interface{ Scan(dest ...any) error }) (*catalog.PublishHistory, error) {
	var (
		entry      catalog.PublishHistory
		status     string
		errorsRaw  string
		createdRaw string
	)
	if err := scanner.Scan(&entry.ID, &entry.TargetID, &entry.ProductCount, &status, &errorsRaw, &createdRaw); err != nil {
		return nil, err
	}
	entry.Status = catalog.PublishStatus(status)
	entry.Errors = []catalog.PublishError{}
	if errorsRaw != "" {
		if err := json.Unmarshal([]byte(errorsRaw), &entry.Errors); err != nil {
			return nil, fmt.Errorf("decode publish errors: %w", err)
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = created
	}
	return &entry, nil
}
