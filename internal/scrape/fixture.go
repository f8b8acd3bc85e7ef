package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/jonesrussell/cooper/internal/domain"
)

var fixtureComments = []string{
	"This looks amazing, saving it for the weekend!",
	"Tried it yesterday and my family loved it",
	"Not sure about that last step",
}

// FixtureBackend serves a fixed dataset without network access. Jobs
// succeed on the first poll.
type FixtureBackend struct {
	dataset json.RawMessage
	seq     atomic.Int64

	mu   sync.Mutex
	jobs map[domain.JobHandle][]string
}

// NewFixtureBackend serves the JSON array at path, or records generated
// from the submitted URLs when path is empty.
func NewFixtureBackend(path string) (*FixtureBackend, error) {
	b := &FixtureBackend{jobs: make(map[domain.JobHandle][]string)}
	if path == "" {
		return b, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scrape fixture: %w", err)
	}
	if _, err := ParseRecords(data); err != nil {
		return nil, fmt.Errorf("scrape fixture %s: %w", path, err)
	}
	b.dataset = data
	return b, nil
}

func (b *FixtureBackend) Name() string { return "fixture" }

func (b *FixtureBackend) Submit(_ context.Context, cfg domain.ScrapeJobConfig) (domain.JobHandle, error) {
	handle := domain.JobHandle(fmt.Sprintf("fixture-%d", b.seq.Add(1)))

	b.mu.Lock()
	b.jobs[handle] = append([]string(nil), cfg.PostURLs...)
	b.mu.Unlock()
	return handle, nil
}

func (b *FixtureBackend) Status(_ context.Context, handle domain.JobHandle) (Status, error) {
	b.mu.Lock()
	_, ok := b.jobs[handle]
	b.mu.Unlock()

	if !ok {
		return Status{State: StateFailed, Raw: "UNKNOWN_JOB"}, nil
	}
	return Status{State: StateSucceeded, Raw: "SUCCEEDED"}, nil
}

func (b *FixtureBackend) Items(_ context.Context, handle domain.JobHandle, _ Status) (json.RawMessage, error) {
	if b.dataset != nil {
		return b.dataset, nil
	}

	b.mu.Lock()
	urls := b.jobs[handle]
	delete(b.jobs, handle)
	b.mu.Unlock()

	return json.Marshal(generateRecords(urls))
}

// generateRecords gives the i-th URL engagement scaled by i+1.
func generateRecords(urls []string) []domain.VideoRecord {
	records := make([]domain.VideoRecord, 0, len(urls))
	for i, u := range urls {
		n := i + 1
		comments := fixtureComments[:1+i%len(fixtureComments)]
		records = append(records, domain.VideoRecord{
			URL:      u,
			Comments: append([]string(nil), comments...),
			Metadata: map[string]any{
				domain.FieldLikes:    100 * n,
				domain.FieldComments: len(comments),
				domain.FieldShares:   10 * n,
				domain.FieldViews:    1000 * n,
			},
		})
	}
	return records
}
