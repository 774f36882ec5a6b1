package publishing

import (
	"context"
	"sort"
	"strings"
	"time"

	"curator/internal/catalog"
	"curator/internal/config"
)

// Destination delivers golden records for one target kind.
type Destination interface {
	Kind() string
	// Validate checks a target configuration before the target is stored.
	Validate(cfg map[string]string) error
	// Deliver sends records and reports per-product outcomes. A returned error
	// means the destination failed as a whole and nothing was delivered.
	Deliver(ctx context.Context, target *catalog.PublishTarget, records []*catalog.GoldenRecord) (Delivery, error)
}

// Delivery is the per-product outcome of a Deliver call.
type Delivery struct {
	Delivered []string
	Errors    []catalog.PublishError
}

// Record is the payload shape written by the file, webhook and s3 destinations.
type Record struct {
	ProductID  string             `json:"productId"`
	ProjectID  string             `json:"projectId"`
	Attributes catalog.Attributes `json:"attributes"`
}

func newRecord(rec *catalog.GoldenRecord) Record {
	return Record{ProductID: rec.ProductID, ProjectID: rec.ProjectID, Attributes: rec.Attributes}
}

func deliveredIDs(records []*catalog.GoldenRecord) []string {
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ProductID)
	}
	return ids
}

// DefaultDestinations returns the built-in destination drivers configured from cfg.
func DefaultDestinations(cfg *config.Config) []Destination {
	timeout := 30 * time.Second
	exportDir := ""
	if cfg != nil {
		if cfg.Publishing.RequestTimeout > 0 {
			timeout = time.Duration(cfg.Publishing.RequestTimeout) * time.Second
		}
		exportDir = cfg.Paths.ExportDir
	}
	return []Destination{
		NoneDestination{},
		NewFileDestination(exportDir),
		NewWebhookDestination(timeout),
		NewS3Destination(timeout),
	}
}

type registry map[string]Destination

func newRegistry(destinations []Destination) registry {
	reg := make(registry, len(destinations))
	for _, dest := range destinations {
		if dest == nil {
			continue
		}
		reg[strings.ToLower(dest.Kind())] = dest
	}
	return reg
}

func (r registry) lookup(kind string) (Destination, bool) {
	dest, ok := r[strings.ToLower(strings.TrimSpace(kind))]
	return dest, ok
}

func (r registry) kinds() []string {
	kinds := make([]string, 0, len(r))
	for kind := range r {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
