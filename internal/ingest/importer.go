package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"curator/internal/catalog"
	"curator/internal/logging"
	"curator/internal/services"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Store is the persistence needed to add products.
type Store interface {
	GetProject(ctx context.Context, id string) (*catalog.Project, error)
	CreateProduct(ctx context.Context, projectID, sku string, source catalog.Attributes) (*catalog.Product, error)
}

// RowError reports a data row that was not imported. Row is the 1-based line
// (CSV) or sheet row (XLSX) where the record starts.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// Result summarizes an import.
type Result struct {
	Imported []*catalog.Product `json:"imported"`
	Skipped  []RowError         `json:"skipped"`
}

// Importer creates products in a project.
type Importer struct {
	store  Store
	logger *slog.Logger
}

// NewImporter constructs an Importer.
func NewImporter(store Store, logger *slog.Logger) *Importer {
	return &Importer{store: store, logger: logging.NewComponentLogger(logger, "ingest")}
}

// AddProduct stores one product. An empty sku falls back to the "sku"
// attribute.
func (i *Importer) AddProduct(ctx context.Context, projectID, sku string, attrs catalog.Attributes) (*catalog.Product, error) {
	if err := i.checkProject(ctx, projectID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(sku) == "" {
		sku = skuOf(attrs)
	}
	if strings.TrimSpace(sku) == "" {
		return nil, services.Wrap(services.ErrValidation, "ingest", "add product", "sku is required", nil)
	}
	product, err := i.store.CreateProduct(ctx, projectID, strings.TrimSpace(sku), attrs)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "ingest", "add product", "persist product", err)
	}
	return product, nil
}

// Import reads a CSV or XLSX file, chosen by the extension of filename.
func (i *Importer) Import(ctx context.Context, projectID, filename string, r io.Reader) (*Result, error) {
	if err := i.checkProject(ctx, projectID); err != nil {
		return nil, err
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	var rows []dataRow
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		rows, err = parseCSV(payload)
	case ".xlsx":
		rows, err = parseExcel(payload)
	default:
		return nil, services.Wrap(services.ErrValidation, "ingest", "import", filename, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext))
	}
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "import", filename, err)
	}

	header, data := splitHeader(rows)
	if header == nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "import", filename, errors.New("no header row found"))
	}

	result := &Result{Imported: []*catalog.Product{}, Skipped: []RowError{}}
	for _, row := range data {
		attrs := rowAttributes(header, row.cells)
		product, err := i.AddProduct(ctx, projectID, "", attrs)
		if err != nil {
			result.Skipped = append(result.Skipped, RowError{Row: row.line, Error: err.Error()})
			continue
		}
		result.Imported = append(result.Imported, product)
	}

	logging.WithContext(services.WithProjectID(ctx, projectID), i.logger).Info("products imported",
		logging.Event("products_imported"),
		logging.String("file", filepath.Base(filename)),
		logging.Int("imported", len(result.Imported)),
		logging.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

func (i *Importer) checkProject(ctx context.Context, projectID string) error {
	project, err := i.store.GetProject(ctx, projectID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "ingest", "load project", projectID, err)
	}
	if project == nil {
		return services.Wrap(services.ErrNotFound, "ingest", "load project", "project "+projectID+" does not exist", nil)
	}
	if project.Status == catalog.ProjectArchived {
		return services.Wrap(services.ErrValidation, "ingest", "load project", "project "+project.Name+" is archived", nil)
	}
	return nil
}

func parseCSV(payload []byte) ([]dataRow, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1
	var rows []dataRow
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := csvReader.FieldPos(0)
		rows = append(rows, dataRow{line: line, cells: record})
	}
}

func parseExcel(payload []byte) ([]dataRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	out := make([]dataRow, 0, len(rows))
	for idx, row := range rows {
		out = append(out, dataRow{line: idx + 1, cells: row})
	}
	return out, nil
}

type dataRow struct {
	line  int
	cells []string
}

// splitHeader returns the first non-empty row as the header and the remaining
// non-empty rows.
func splitHeader(rows []dataRow) ([]string, []dataRow) {
	var header []string
	var data []dataRow
	for _, row := range rows {
		if isBlank(row.cells) {
			continue
		}
		if header == nil {
			header = row.cells
			continue
		}
		data = append(data, row)
	}
	return header, data
}

func rowAttributes(header, row []string) catalog.Attributes {
	attrs := make(catalog.Attributes, len(header))
	for col, key := range header {
		key = strings.TrimSpace(key)
		if key == "" || col >= len(row) {
			continue
		}
		if value := strings.TrimSpace(row[col]); value != "" {
			attrs[key] = value
		}
	}
	return attrs
}

// skuOf prefers the exact sku key, then the first case-insensitive match in
// key order.
func skuOf(attrs catalog.Attributes) string {
	if value, ok := attrs[catalog.AttrSKU]; ok {
		return value
	}
	for _, key := range slices.Sorted(maps.Keys(attrs)) {
		if strings.EqualFold(strings.TrimSpace(key), catalog.AttrSKU) {
			return attrs[key]
		}
	}
	return ""
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
