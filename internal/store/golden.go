package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"curator/internal/catalog"
)

const goldenColumns = "product_id, project_id, attributes_json, published_at, created_at, updated_at"

// SaveGoldenRecord upserts the golden record for rec.ProductID and makes sure a
// validation queue item exists for it. An existing record is overwritten but
// keeps its created_at and published_at; an existing queue item keeps its
// status. It reports whether a new queue item was created.
func (s *Store) SaveGoldenRecord(ctx context.Context, rec *catalog.GoldenRecord) (bool, error) {
	if rec == nil || rec.ProductID == "" {
		return false, errors.New("golden record requires a product id")
	}
	encoded, err := encodeAttributes(rec.Attributes)
	if err != nil {
		return false, err
	}
	ctx = ensureContext(ctx)
	now := formatTime(s.now())

	var created bool
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO golden_records (product_id, project_id, attributes_json, sku, brand, name, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(product_id) DO UPDATE SET
    project_id = excluded.project_id,
    attributes_json = excluded.attributes_json,
    sku = excluded.sku,
    brand = excluded.brand,
    name = excluded.name,
    updated_at = excluded.updated_at`,
			rec.ProductID, rec.ProjectID, encoded,
			nullableString(rec.SKU()), nullableString(rec.Brand()), nullableString(rec.Name()),
			now, now,
		); err != nil {
			return fmt.Errorf("upsert golden record: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
INSERT INTO validation_queue (id, project_id, product_id, status, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(product_id) DO NOTHING`,
			uuid.NewString(), rec.ProjectID, rec.ProductID, string(catalog.ReviewPending), now,
		)
		if err != nil {
			return fmt.Errorf("ensure queue item: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = affected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// GetGoldenRecord fetches the golden record for a product.
func (s *Store) GetGoldenRecord(ctx context.Context, productID string) (*catalog.GoldenRecord, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+goldenColumns+` FROM golden_records WHERE product_id = ?`, productID)
	rec, err := scanGolden(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get golden record: %w", err)
	}
	return rec, nil
}

// GetGoldenRecords fetches the golden records for the given products keyed by
// product id. Missing products are absent from the map.
func (s *Store) GetGoldenRecords(ctx context.Context, productIDs []string) (map[string]*catalog.GoldenRecord, error) {
	ctx = ensureContext(ctx)
	out := make(map[string]*catalog.GoldenRecord, len(productIDs))
	for _, chunk := range chunkIDs(productIDs) {
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+goldenColumns+` FROM golden_records WHERE product_id IN (`+makePlaceholders(len(chunk))+`)`,
			stringArgs(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("get golden records: %w", err)
		}
		for rows.Next() {
			rec, err := scanGolden(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			out[rec.ProductID] = rec
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListApprovedGoldenRecords returns the golden records of a project whose
// queue item is approved, ordered by SKU.
func (s *Store) ListApprovedGoldenRecords(ctx context.Context, projectID string) ([]*catalog.GoldenRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `
SELECT g.product_id, g.project_id, g.attributes_json, g.published_at, g.created_at, g.updated_at
FROM golden_records g
JOIN validation_queue q ON q.product_id = g.product_id
WHERE g.project_id = ? AND q.status = ?
ORDER BY g.sku, g.product_id`,
		projectID, string(catalog.ReviewApproved))
	if err != nil {
		return nil, fmt.Errorf("list approved golden records: %w", err)
	}
	defer rows.Close()

	var records []*catalog.GoldenRecord
	for rows.Next() {
		rec, err := scanGolden(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func markPublishedTx(ctx context.Context, tx *sql.Tx, productIDs []string, at time.Time) error {
	for _, chunk := range chunkIDs(productIDs) {
		if _, err := tx.ExecContext(ctx,
			`UPDATE golden_records SET published_at = ? WHERE product_id IN (`+makePlaceholders(len(chunk))+`)`,
			stringArgs(chunk, formatTime(at))...,
		); err != nil {
			return fmt.Errorf("mark golden records published: %w", err)
		}
	}
	return nil
}

func scanGolden(scanner interface{ Scan(dest ...any) error }) (*catalog.GoldenRecord, error) {
	var (
		rec          catalog.GoldenRecord
		attrsRaw     sql.NullString
		publishedRaw sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(&rec.ProductID, &rec.ProjectID, &attrsRaw, &publishedRaw, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	attrs, err := decodeAttributes(attrsRaw)
	if err != nil {
		return nil, err
	}
	if attrs == nil {
		attrs = catalog.Attributes{}
	}
	rec.Attributes = attrs
	rec.PublishedAt = parseNullableTime(publishedRaw)
	if created, err := parseTimeString(createdRaw); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		rec.UpdatedAt = updated
	}
	return &rec, nil
}
