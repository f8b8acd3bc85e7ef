package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	infrahttp "github.com/jonesrussell/cooper/infrastructure/http"
	"github.com/jonesrussell/cooper/internal/domain"
)

// DefaultApifyBaseURL is the public Apify API host.
const DefaultApifyBaseURL = "https://api.apify.com"

// ApifyConfig addresses one Apify actor task.
type ApifyConfig struct {
	BaseURL string
	Token   string
	TaskID  string
}

// ApifyBackend runs scrape jobs as Apify actor-task runs.
type ApifyBackend struct {
	baseURL string
	token   string
	taskID  string
	client  *http.Client
}

// NewApifyBackend creates a backend for cfg. client may be nil.
func NewApifyBackend(cfg ApifyConfig, client *http.Client) *ApifyBackend {
	if client == nil {
		client = infrahttp.NewClient(nil)
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultApifyBaseURL
	}
	return &ApifyBackend{
		baseURL: base,
		token:   cfg.Token,
		taskID:  cfg.TaskID,
		client:  client,
	}
}

func (b *ApifyBackend) Name() string { return "apify" }

type apifyRun struct {
	Data struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
}

// Submit starts a run of the actor task with cfg as its input.
func (b *ApifyBackend) Submit(ctx context.Context, cfg domain.ScrapeJobConfig) (domain.JobHandle, error) {
	endpoint := b.endpoint("/v2/actor-tasks/" + url.PathEscape(b.taskID) + "/runs")

	var run apifyRun
	if err := infrahttp.PostJSON(ctx, b.client, endpoint, cfg, &run); err != nil {
		return "", fmt.Errorf("start actor task run: %w", err)
	}
	return domain.JobHandle(run.Data.ID), nil
}

// Status reads the run's status.
func (b *ApifyBackend) Status(ctx context.Context, handle domain.JobHandle) (Status, error) {
	endpoint := b.endpoint("/v2/actor-runs/" + url.PathEscape(string(handle)))

	var run apifyRun
	if err := infrahttp.GetJSON(ctx, b.client, endpoint, &run); err != nil {
		return Status{}, fmt.Errorf("get actor run: %w", err)
	}

	return Status{State: apifyState(run.Data.Status), Raw: run.Data.Status}, nil
}

// Items fetches the run's default dataset.
func (b *ApifyBackend) Items(ctx context.Context, handle domain.JobHandle, _ Status) (json.RawMessage, error) {
	endpoint := b.endpoint("/v2/actor-runs/"+url.PathEscape(string(handle))+"/dataset/items", "format", "json")

	var items json.RawMessage
	if err := infrahttp.GetJSON(ctx, b.client, endpoint, &items); err != nil {
		return nil, fmt.Errorf("get dataset items: %w", err)
	}
	return items, nil
}

func (b *ApifyBackend) endpoint(path string, extra ...string) string {
	q := url.Values{}
	q.Set("token", b.token)
	for i := 0; i+1 < len(extra); i += 2 {
		q.Set(extra[i], extra[i+1])
	}
	return b.baseURL + path + "?" + q.Encode()
}

// apifyState maps Apify run statuses. READY, RUNNING, TIMING-OUT and
// ABORTING are all still in progress.
func apifyState(status string) JobState {
	switch status {
	case "SUCCEEDED":
		return StateSucceeded
	case "FAILED", "ABORTED", "TIMED-OUT":
		return StateFailed
	default:
		return StateRunning
	}
}
