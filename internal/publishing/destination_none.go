package publishing

import (
	"context"

	"curator/internal/catalog"
)

// KindNone records publish history without sending records anywhere.
const KindNone = "none"

// NoneDestination treats every resolved record as delivered.
type NoneDestination struct{}

func (NoneDestination) Kind() string { return KindNone }

func (NoneDestination) Validate(map[string]string) error { return nil }

func (NoneDestination) Deliver(_ context.Context, _ *catalog.PublishTarget, records []*catalog.GoldenRecord) (Delivery, error) {
	return Delivery{Delivered: deliveredIDs(records)}, nil
}
