package publishing

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/stages"
)

// KindFile writes one JSON lines file per publish.
const KindFile = "file"

// FileDestination writes records to "<dir>/<target-slug>-<timestamp>.jsonl".
// The directory comes from the target's "dir" setting and falls back to the
// configured export directory.
type FileDestination struct {
	defaultDir string
	now        func() time.Time
}

// NewFileDestination constructs a file destination rooted at defaultDir.
func NewFileDestination(defaultDir string) *FileDestination {
	return &FileDestination{defaultDir: defaultDir, now: time.Now}
}

func (d *FileDestination) Kind() string { return KindFile }

func (d *FileDestination) Validate(cfg map[string]string) error {
	if d.dir(cfg) == "" {
		return fmt.Errorf("file target requires a dir setting")
	}
	return nil
}

func (d *FileDestination) Deliver(ctx context.Context, target *catalog.PublishTarget, records []*catalog.GoldenRecord) (Delivery, error) {
	dir := d.dir(target.Config)
	if dir == "" {
		return Delivery{}, fmt.Errorf("file target %s has no directory", target.Name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Delivery{}, fmt.Errorf("create publish dir: %w", err)
	}

	name := stages.Slugify(target.Name)
	if name == "" {
		name = target.ID
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.jsonl", name, d.now().UTC().Format("20060102T150405.000000000Z")))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return Delivery{}, fmt.Errorf("create publish file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			file.Close()
			os.Remove(path)
			return Delivery{}, err
		}
		if err := encoder.Encode(newRecord(rec)); err != nil {
			file.Close()
			os.Remove(path)
			return Delivery{}, fmt.Errorf("encode record %s: %w", rec.ProductID, err)
		}
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		return Delivery{}, fmt.Errorf("flush publish file: %w", err)
	}
	if err := file.Close(); err != nil {
		return Delivery{}, fmt.Errorf("close publish file: %w", err)
	}
	return Delivery{Delivered: deliveredIDs(records)}, nil
}

func (d *FileDestination) dir(cfg map[string]string) string {
	dir := strings.TrimSpace(cfg["dir"])
	if dir == "" {
		return d.defaultDir
	}
	expanded, err := config.ExpandPath(dir)
	if err != nil {
		return dir
	}
	return expanded
}
