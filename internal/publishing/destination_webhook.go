package publishing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"curator/internal/catalog"
)

// KindWebhook posts records to an HTTP endpoint.
const KindWebhook = "webhook"

const webhookHeaderPrefix = "header."

// WebhookDestination POSTs a JSON payload of records to the target's "url".
// Settings named "header.<Name>" become request headers. A 2xx response may
// carry {"results":[{"productId":..., "error":...}]}; products reported with
// an error are recorded as failed and the rest as delivered.
type WebhookDestination struct {
	client *http.Client
}

// NewWebhookDestination constructs a webhook destination with the request timeout.
func NewWebhookDestination(timeout time.Duration) *WebhookDestination {
	return &WebhookDestination{client: &http.Client{Timeout: timeout}}
}

type webhookPayload struct {
	TargetID   string   `json:"targetId"`
	TargetName string   `json:"targetName"`
	ProjectID  string   `json:"projectId"`
	Records    []Record `json:"records"`
}

type webhookResponse struct {
	Results []struct {
		ProductID string `json:"productId"`
		Error     string `json:"error"`
	} `json:"results"`
}

func (d *WebhookDestination) Kind() string { return KindWebhook }

func (d *WebhookDestination) Validate(cfg map[string]string) error {
	raw := strings.TrimSpace(cfg["url"])
	if raw == "" {
		return fmt.Errorf("webhook target requires a url setting")
	}
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("webhook url %q must be an absolute http(s) URL", raw)
	}
	return nil
}

func (d *WebhookDestination) Deliver(ctx context.Context, target *catalog.PublishTarget, records []*catalog.GoldenRecord) (Delivery, error) {
	if err := d.Validate(target.Config); err != nil {
		return Delivery{}, err
	}

	payload := webhookPayload{
		TargetID:   target.ID,
		TargetName: target.Name,
		ProjectID:  target.ProjectID,
		Records:    make([]Record, 0, len(records)),
	}
	for _, rec := range records {
		payload.Records = append(payload.Records, newRecord(rec))
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Delivery{}, fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSpace(target.Config["url"]), bytes.NewReader(body))
	if err != nil {
		return Delivery{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, value := range target.Config {
		if name, ok := strings.CutPrefix(key, webhookHeaderPrefix); ok && name != "" {
			req.Header.Set(name, value)
		}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return Delivery{}, fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Delivery{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Delivery{}, fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	failed := map[string]string{}
	if len(bytes.TrimSpace(respBody)) > 0 {
		var parsed webhookResponse
		if err := json.Unmarshal(respBody, &parsed); err == nil {
			for _, result := range parsed.Results {
				if msg := strings.TrimSpace(result.Error); msg != "" && result.ProductID != "" {
					failed[result.ProductID] = msg
				}
			}
		}
	}

	var delivery Delivery
	for _, rec := range records {
		if msg, ok := failed[rec.ProductID]; ok {
			delivery.Errors = append(delivery.Errors, catalog.PublishError{ProductID: rec.ProductID, Message: msg})
			continue
		}
		delivery.Delivered = append(delivery.Delivered, rec.ProductID)
	}
	return delivery, nil
}
