package review

import (
	"context"
	"log/slog"
	"strings"

	"curator/internal/catalog"
	"curator/internal/logging"
	"curator/internal/services"
)

// Store abstracts the queue persistence used by the review service.
type Store interface {
	GetQueueItem(ctx context.Context, id string) (*catalog.QueueItem, error)
	ListQueueItems(ctx context.Context, projectID string, status *catalog.ReviewStatus) ([]*catalog.QueueItem, error)
	UpdateQueueStatus(ctx context.Context, id string, status catalog.ReviewStatus, notes *string) (bool, error)
	BulkUpdateQueueStatus(ctx context.Context, ids []string, status catalog.ReviewStatus) (int64, error)
	QueueStats(ctx context.Context, projectID string) (catalog.QueueStats, error)
}

// Service exposes reviewer operations over the validation queue.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService constructs a Service around the provided store.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logging.NewComponentLogger(logger, "review")}
}

// ListItems returns the project's queue items newest first, optionally
// restricted to one status.
func (s *Service) ListItems(ctx context.Context, projectID string, status *catalog.ReviewStatus) ([]*catalog.QueueItem, error) {
	if status != nil && !status.Valid() {
		return nil, invalidStatus(string(*status))
	}
	items, err := s.store.ListQueueItems(ctx, projectID, status)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "review", "list items", "query queue", err)
	}
	if items == nil {
		items = []*catalog.QueueItem{}
	}
	return items, nil
}

// SetStatus transitions one item. Notes are replaced only when non-nil.
func (s *Service) SetStatus(ctx context.Context, itemID string, status catalog.ReviewStatus, notes *string) (*catalog.QueueItem, error) {
	if !status.Valid() {
		return nil, invalidStatus(string(status))
	}
	itemID = strings.TrimSpace(itemID)
	updated, err := s.store.UpdateQueueStatus(ctx, itemID, status, notes)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "review", "set status", "update queue item", err)
	}
	if !updated {
		return nil, services.Wrap(services.ErrNotFound, "review", "set status", "queue item "+itemID+" does not exist", nil)
	}

	logging.WithContext(ctx, s.logger).Info("review status changed",
		logging.Event("review_status"),
		logging.String("item_id", itemID),
		logging.String("status", string(status)),
		logging.Bool("notes_updated", notes != nil),
	)

	item, err := s.store.GetQueueItem(ctx, itemID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "review", "set status", "reload queue item", err)
	}
	if item == nil {
		return nil, services.Wrap(services.ErrNotFound, "review", "set status", "queue item "+itemID+" does not exist", nil)
	}
	return item, nil
}

// SetStatusString parses status before delegating to SetStatus.
func (s *Service) SetStatusString(ctx context.Context, itemID, status string, notes *string) (*catalog.QueueItem, error) {
	parsed, ok := catalog.ParseReviewStatus(status)
	if !ok {
		return nil, invalidStatus(status)
	}
	return s.SetStatus(ctx, itemID, parsed, notes)
}

// BulkApprove approves every existing id and returns how many rows changed.
func (s *Service) BulkApprove(ctx context.Context, itemIDs []string) (int64, error) {
	ids := make([]string, 0, len(itemIDs))
	seen := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	updated, err := s.store.BulkUpdateQueueStatus(ctx, ids, catalog.ReviewApproved)
	if err != nil {
		return updated, services.Wrap(services.ErrTransient, "review", "bulk approve", "update queue items", err)
	}
	logging.WithContext(ctx, s.logger).Info("bulk approve applied",
		logging.Event("review_bulk_approve"),
		logging.Int("requested", len(ids)),
		logging.Int64("updated", updated),
	)
	return updated, nil
}

// GetStats returns per-status counts for a project.
func (s *Service) GetStats(ctx context.Context, projectID string) (catalog.QueueStats, error) {
	stats, err := s.store.QueueStats(ctx, projectID)
	if err != nil {
		return catalog.QueueStats{}, services.Wrap(services.ErrTransient, "review", "stats", "count queue items", err)
	}
	return stats, nil
}

func invalidStatus(value string) error {
	return services.Wrap(services.ErrValidation, "review", "status",
		"unknown review status "+strings.TrimSpace(value), nil)
}
