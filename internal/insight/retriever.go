package insight

import "context"

// Retriever returns guideline chunks relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// FirstChunks ignores the query and returns the leading chunks.
type FirstChunks []string

// Retrieve returns the first k chunks.
func (f FirstChunks) Retrieve(_ context.Context, _ string, k int) ([]string, error) {
	n := min(max(k, 0), len(f))
	out := make([]string, n)
	copy(out, f[:n])
	return out, nil
}
