package retrieval_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jonesrussell/cooper/internal/llm/mocks"
	"github.com/jonesrussell/cooper/internal/retrieval"
)

// fakeCluster is just enough of Elasticsearch for index, bulk and kNN search.
type fakeCluster struct {
	mu          sync.Mutex
	exists      bool
	created     map[string]any
	bulkLines   int
	searchBody  map[string]any
	searchFails bool
	hits        []string
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodHead && r.URL.Path == "/guides":
		if f.exists {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)

	case r.Method == http.MethodPut && r.URL.Path == "/guides":
		_ = json.NewDecoder(r.Body).Decode(&f.created)
		f.exists = true
		_, _ = w.Write([]byte(`{"acknowledged":true}`))

	case strings.HasSuffix(r.URL.Path, "/_bulk"):
		body, _ := io.ReadAll(r.Body)
		f.bulkLines = strings.Count(string(body), "\n")
		_, _ = w.Write([]byte(`{"errors":false,"items":[]}`))

	case strings.HasSuffix(r.URL.Path, "/_search"):
		if f.searchFails {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"boom"}`))
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&f.searchBody)
		hits := make([]map[string]any, 0, len(f.hits))
		for _, h := range f.hits {
			hits = append(hits, map[string]any{"_source": map[string]string{"text": h}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"hits": map[string]any{"hits": hits}})

	default:
		_, _ = w.Write([]byte(`{}`))
	}
}

func newStore(t *testing.T, cluster *fakeCluster) *retrieval.Store {
	t.Helper()

	server := httptest.NewServer(cluster)
	t.Cleanup(server.Close)

	client, err := es.NewClient(es.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return retrieval.NewStore(client, "guides")
}

func TestRetriever_IndexesAndSearches(t *testing.T) {
	t.Parallel()

	cluster := &fakeCluster{hits: []string{"Keep it warm", "Lead with data"}}
	store := newStore(t, cluster)

	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)
	chunks := []string{"Lead with data", "Keep it warm", "Avoid jargon"}
	embedder.EXPECT().Embed(gomock.Any(), chunks).Return([][]float64{{1, 0}, {0, 1}, {1, 1}}, nil)
	embedder.EXPECT().Embed(gomock.Any(), []string{"brand voice tone PR hooks"}).Return([][]float64{{0.5, 0.5}}, nil)

	r, err := retrieval.NewRetriever(context.Background(), store, embedder, chunks, nil)
	require.NoError(t, err)

	cluster.mu.Lock()
	props := cluster.created["mappings"].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, "dense_vector", props["embedding"].(map[string]any)["type"])
	assert.InDelta(t, 2, props["embedding"].(map[string]any)["dims"], 0)
	assert.Equal(t, 6, cluster.bulkLines)
	cluster.mu.Unlock()

	texts, err := r.Retrieve(context.Background(), "brand voice tone PR hooks", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Keep it warm", "Lead with data"}, texts)

	cluster.mu.Lock()
	knn := cluster.searchBody["knn"].(map[string]any)
	assert.Equal(t, "embedding", knn["field"])
	assert.InDelta(t, 2, knn["k"], 0)
	assert.InDelta(t, 50, knn["num_candidates"], 0)
	cluster.mu.Unlock()
}

func TestRetriever_QueryFailureFallsBack(t *testing.T) {
	t.Parallel()

	cluster := &fakeCluster{exists: true, searchFails: true}
	store := newStore(t, cluster)

	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)
	chunks := []string{"one", "two", "three", "four"}
	embedder.EXPECT().Embed(gomock.Any(), chunks).Return([][]float64{{1}, {2}, {3}, {4}}, nil)
	embedder.EXPECT().Embed(gomock.Any(), gomock.Any()).Return([][]float64{{1}}, nil)

	r, err := retrieval.NewRetriever(context.Background(), store, embedder, chunks, nil)
	require.NoError(t, err)
	assert.Nil(t, cluster.created)

	texts, err := r.Retrieve(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, texts)
}

func TestNewRetriever_EmbedFailure(t *testing.T) {
	t.Parallel()

	store := newStore(t, &fakeCluster{})

	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)
	embedder.EXPECT().Embed(gomock.Any(), gomock.Any()).Return(nil, errors.New("quota exceeded"))

	_, err := retrieval.NewRetriever(context.Background(), store, embedder, []string{"chunk"}, nil)
	assert.ErrorContains(t, err, "quota exceeded")
}
