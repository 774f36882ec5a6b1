package publishing

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"curator/internal/catalog"
	"curator/internal/services"
)

// ExportHeader is the fixed column set of every export.
var ExportHeader = []string{"SKU", "Brand", "Name"}

const exportSheet = "Products"

// ExportCSV renders the approved golden records of a project as CSV. The
// header row is always present.
func (m *Manager) ExportCSV(ctx context.Context, projectID string) (string, error) {
	records, err := m.exportRecords(ctx, projectID)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(ExportHeader); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := writer.Write(exportRow(rec)); err != nil {
			return "", fmt.Errorf("write row %s: %w", rec.ProductID, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}

// ExportXLSX writes the same rows as ExportCSV as a single-sheet workbook.
func (m *Manager) ExportXLSX(ctx context.Context, projectID string, w io.Writer) error {
	records, err := m.exportRecords(ctx, projectID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return fmt.Errorf("open sheet writer: %w", err)
	}
	if err := sw.SetRow("A1", toCells(ExportHeader)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toCells(exportRow(rec))); err != nil {
			return fmt.Errorf("write row %s: %w", rec.ProductID, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (m *Manager) exportRecords(ctx context.Context, projectID string) ([]*catalog.GoldenRecord, error) {
	records, err := m.store.ListApprovedGoldenRecords(ctx, projectID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "publishing", "export", "query approved records", err)
	}
	return records, nil
}

func exportRow(rec *catalog.GoldenRecord) []string {
	return []string{rec.SKU(), rec.Brand(), rec.Name()}
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
