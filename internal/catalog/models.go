package catalog

import (
	"strings"
	"time"
)

// ProjectStatus tracks whether a project still accepts work.
type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
)

// Project groups products, review items and publish targets.
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Attributes is a flat attribute map carried by products and golden records.
type Attributes map[string]string

// Clone returns an independent copy of the attribute map.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Well-known attribute keys used by the export format.
const (
	AttrSKU   = "sku"
	AttrBrand = "brand"
	AttrName  = "name"
)

// Product is the raw input unit. Source attributes are written by ingestion
// and never modified by the pipeline; Working holds stage side effects.
type Product struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"projectId"`
	SKU       string     `json:"sku"`
	Source    Attributes `json:"source"`
	Working   Attributes `json:"working,omitempty"`
	LastStage string     `json:"lastStage,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// GoldenRecord is the canonical merged representation of a product. Exactly
// one exists per product; re-runs overwrite it.
type GoldenRecord struct {
	ProductID   string     `json:"productId"`
	ProjectID   string     `json:"projectId"`
	Attributes  Attributes `json:"attributes"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// SKU returns the exported SKU column.
func (g GoldenRecord) SKU() string { return g.Attributes[AttrSKU] }

// Brand returns the exported Brand column.
func (g GoldenRecord) Brand() string { return g.Attributes[AttrBrand] }

// Name returns the exported Name column.
func (g GoldenRecord) Name() string { return g.Attributes[AttrName] }

// ReviewStatus is the state of a validation queue item.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewInReview ReviewStatus = "in_review"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
	ReviewFlagged  ReviewStatus = "flagged"
)

var allReviewStatuses = []ReviewStatus{
	ReviewPending,
	ReviewInReview,
	ReviewApproved,
	ReviewRejected,
	ReviewFlagged,
}

var reviewStatusSet = func() map[ReviewStatus]struct{} {
	set := make(map[ReviewStatus]struct{}, len(allReviewStatuses))
	for _, status := range allReviewStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllReviewStatuses returns the ordered list of review statuses.
func AllReviewStatuses() []ReviewStatus {
	cp := make([]ReviewStatus, len(allReviewStatuses))
	copy(cp, allReviewStatuses)
	return cp
}

// ParseReviewStatus converts a string into a known ReviewStatus.
func ParseReviewStatus(value string) (ReviewStatus, bool) {
	normalized := ReviewStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := reviewStatusSet[normalized]
	return normalized, ok
}

// Valid reports whether s belongs to the review vocabulary.
func (s ReviewStatus) Valid() bool {
	_, ok := reviewStatusSet[s]
	return ok
}

// QueueItem gates one golden record behind human review. Items are never
// deleted; every status is reachable from every other status.
type QueueItem struct {
	ID         string       `json:"id"`
	ProjectID  string       `json:"projectId"`
	ProductID  string       `json:"productId"`
	Status     ReviewStatus `json:"status"`
	Notes      string       `json:"notes,omitempty"`
	ReviewedAt *time.Time   `json:"reviewedAt,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// QueueStats summarizes queue items per status for one project. The per-status
// counts always sum to Total.
type QueueStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	InReview int `json:"in_review"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Flagged  int `json:"flagged"`
}

// Add increments the counter for status and the total.
func (s *QueueStats) Add(status ReviewStatus, n int) {
	switch status {
	case ReviewPending:
		s.Pending += n
	case ReviewInReview:
		s.InReview += n
	case ReviewApproved:
		s.Approved += n
	case ReviewRejected:
		s.Rejected += n
	case ReviewFlagged:
		s.Flagged += n
	default:
		return
	}
	s.Total += n
}

// PublishTarget is a named external destination for approved records.
// Config is opaque to the core and interpreted by the destination driver
// registered for Kind.
type PublishTarget struct {
	ID            string            `json:"id"`
	ProjectID     string            `json:"projectId"`
	Name          string            `json:"name"`
	Kind          string            `json:"kind"`
	Config        map[string]string `json:"config,omitempty"`
	LastPublishAt *time.Time        `json:"lastPublishAt,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// PublishStatus is the outcome recorded in the publish history.
type PublishStatus string

const (
	PublishSuccess PublishStatus = "success"
	PublishPartial PublishStatus = "partial"
	PublishFailure PublishStatus = "failure"
)

// PublishError describes one product the publish did not deliver. Skipped
// entries were never handed to the destination and do not affect the status.
type PublishError struct {
	ProductID string `json:"productId,omitempty"`
	Message   string `json:"message"`
	Skipped   bool   `json:"skipped,omitempty"`
}

// PublishHistory is an append-only audit entry for one publish call.
type PublishHistory struct {
	ID           string         `json:"id"`
	TargetID     string         `json:"targetId"`
	ProductCount int            `json:"productCount"`
	Status       PublishStatus  `json:"status"`
	Errors       []PublishError `json:"errors"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// GlobalMetrics summarizes the catalog for the status surfaces.
type GlobalMetrics struct {
	TotalProjects     int `json:"totalProjects"`
	ActiveProjects    int `json:"activeProjects"`
	TotalProducts     int `json:"totalProducts"`
	PublishedProducts int `json:"publishedProducts"`
}
