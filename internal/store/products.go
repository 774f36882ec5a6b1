package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"curator/internal/catalog"
)

const productColumns = "id, project_id, sku, source_json, working_json, last_stage, created_at, updated_at"

// CreateProduct inserts a raw product. The SKU is taken from the source
// attributes when not supplied explicitly.
func (s *Store) CreateProduct(ctx context.Context, projectID, sku string, source catalog.Attributes) (*catalog.Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		sku = strings.TrimSpace(source[catalog.AttrSKU])
	}
	if sku == "" {
		return nil, errors.New("product sku is required")
	}
	encoded, err := encodeAttributes(source)
	if err != nil {
		return nil, err
	}
	now := s.now()
	product := &catalog.Product{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		SKU:       sku,
		Source:    source.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.execWithoutResultRetry(ctx,
		`INSERT INTO products (id, project_id, sku, source_json, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		product.ID, projectID, sku, encoded, formatTime(now), formatTime(now),
	); err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return product, nil
}

// GetProduct fetches a product by id.
func (s *Store) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// ListProducts returns the products of a project, newest first.
func (s *Store) ListProducts(ctx context.Context, projectID string) ([]*catalog.Product, error) {
	return s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE project_id = ? ORDER BY created_at DESC, rowid DESC`,
		projectID)
}

// ListProductsBySKU returns every product in the project sharing sku, oldest first.
func (s *Store) ListProductsBySKU(ctx context.Context, projectID, sku string) ([]*catalog.Product, error) {
	return s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE project_id = ? AND sku = ? ORDER BY created_at, rowid`,
		projectID, sku)
}

// SaveWorking replaces the working attributes of a product and records the
// stage that produced them.
func (s *Store) SaveWorking(ctx context.Context, productID string, working catalog.Attributes, stage string) error {
	encoded, err := encodeAttributes(working)
	if err != nil {
		return err
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE products SET working_json = ?, last_stage = ?, updated_at = ? WHERE id = ?`,
		encoded, nullableString(stage), formatTime(s.now()), productID)
	if err != nil {
		return fmt.Errorf("save working attributes: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("save working attributes: product %s: %w", productID, sql.ErrNoRows)
	}
	return nil
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]*catalog.Product, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []*catalog.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func scanProduct(scanner interface{ Scan(dest ...any) error }) (*catalog.Product, error) {
	var (
		product    catalog.Product
		sourceRaw  sql.NullString
		workingRaw sql.NullString
		lastStage  sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&product.ID,
		&product.ProjectID,
		&product.SKU,
		&sourceRaw,
		&workingRaw,
		&lastStage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	var err error
	if product.Source, err = decodeAttributes(sourceRaw); err != nil {
		return nil, err
	}
	if product.Working, err = decodeAttributes(workingRaw); err != nil {
		return nil, err
	}
	product.LastStage = lastStage.String
	if created, err := parseTimeString(createdRaw); err == nil {
		product.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		product.UpdatedAt = updated
	}
	return &product, nil
}
