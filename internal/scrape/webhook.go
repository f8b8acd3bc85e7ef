package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	infrahttp "github.com/jonesrussell/cooper/infrastructure/http"
	"github.com/jonesrussell/cooper/internal/domain"
)

// WebhookBackend drives a generic webhook pair: POST {url} starts a job and
// GET {url}/status/{id} reports it, with items inline once completed.
type WebhookBackend struct {
	url    string
	client *http.Client
}

// NewWebhookBackend creates a backend for webhookURL. client may be nil.
func NewWebhookBackend(webhookURL string, client *http.Client) *WebhookBackend {
	if client == nil {
		client = infrahttp.NewClient(nil)
	}
	return &WebhookBackend{url: strings.TrimRight(webhookURL, "/"), client: client}
}

func (b *WebhookBackend) Name() string { return "webhook" }

// jobID accepts both "job_id": "abc" and "job_id": 123.
type jobID string

func (id *jobID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = jobID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("job_id must be a string or number: %w", err)
	}
	*id = jobID(n.String())
	return nil
}

// Submit posts cfg to the webhook.
func (b *WebhookBackend) Submit(ctx context.Context, cfg domain.ScrapeJobConfig) (domain.JobHandle, error) {
	var resp struct {
		JobID jobID `json:"job_id"`
	}
	if err := infrahttp.PostJSON(ctx, b.client, b.url, cfg, &resp); err != nil {
		return "", fmt.Errorf("post webhook: %w", err)
	}
	return domain.JobHandle(resp.JobID), nil
}

// Status reads {status, items}. Only "completed" succeeds; "failed" and
// "error" fail; anything else is still running.
func (b *WebhookBackend) Status(ctx context.Context, handle domain.JobHandle) (Status, error) {
	var resp struct {
		Status string          `json:"status"`
		Items  json.RawMessage `json:"items"`
	}
	endpoint := b.url + "/status/" + url.PathEscape(string(handle))
	if err := infrahttp.GetJSON(ctx, b.client, endpoint, &resp); err != nil {
		return Status{}, fmt.Errorf("get webhook status: %w", err)
	}

	st := Status{Raw: resp.Status, State: StateRunning}
	switch strings.ToLower(resp.Status) {
	case "completed":
		st.State = StateSucceeded
		st.Items = resp.Items
	case "failed", "error":
		st.State = StateFailed
	}
	return st, nil
}

// Items returns the dataset delivered with the completed status.
func (b *WebhookBackend) Items(_ context.Context, _ domain.JobHandle, status Status) (json.RawMessage, error) {
	if len(status.Items) == 0 || bytes.Equal(bytes.TrimSpace(status.Items), []byte("null")) {
		return json.RawMessage("[]"), nil
	}
	return status.Items, nil
}
