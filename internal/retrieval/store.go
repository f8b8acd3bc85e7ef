// Package retrieval stores guideline chunks as dense vectors in
// Elasticsearch and retrieves them by kNN similarity.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// DefaultIndex holds the guideline chunks.
const DefaultIndex = "cooper-guidelines"

const (
	fieldText      = "text"
	fieldEmbedding = "embedding"
	minCandidates  = 50
)

// Document is one indexed chunk.
type Document struct {
	ID        string    `json:"-"`
	Text      string    `json:"text"`
	Position  int       `json:"position"`
	Embedding []float64 `json:"embedding"`
}

// Store reads and writes one vector index.
type Store struct {
	client *es.Client
	index  string
}

// NewStore creates a Store on index.
func NewStore(client *es.Client, index string) *Store {
	if index == "" {
		index = DefaultIndex
	}
	return &Store{client: client, index: index}
}

// Index returns the index name.
func (s *Store) Index() string { return s.index }

// EnsureIndex creates the index with a cosine dense_vector mapping of dims
// dimensions unless it already exists.
func (s *Store) EnsureIndex(ctx context.Context, dims int) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("check index existence: %s", res.String())
	}

	mapping := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				fieldText:  map[string]any{"type": "text"},
				"position": map[string]any{"type": "integer"},
				fieldEmbedding: map[string]any{
					"type":       "dense_vector",
					"dims":       dims,
					"index":      true,
					"similarity": "cosine",
				},
			},
		},
	}
	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}

	createRes, err := s.client.Indices.Create(s.index,
		s.client.Indices.Create.WithBody(bytes.NewReader(body)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return responseError("create index", createRes)
	}
	return nil
}

// Upsert writes docs in one bulk request and refreshes the index so they
// are searchable immediately.
func (s *Store) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		action := map[string]any{"index": map[string]any{"_index": s.index, "_id": doc.ID}}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("encode bulk action: %w", err)
		}
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode document %s: %w", doc.ID, err)
		}
	}

	res, err := s.client.Bulk(bytes.NewReader(buf.Bytes()),
		s.client.Bulk.WithContext(ctx),
		s.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("bulk index", res)
	}

	var result struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID    string          `json:"_id"`
			Error json.RawMessage `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if result.Errors {
		for _, item := range result.Items {
			for _, op := range item {
				if len(op.Error) > 0 {
					return fmt.Errorf("bulk index document %s: %s", op.ID, op.Error)
				}
			}
		}
		return fmt.Errorf("bulk index reported errors")
	}
	return nil
}

// Search returns the text of the k documents nearest to vector, best first.
func (s *Store) Search(ctx context.Context, vector []float64, k int) ([]string, error) {
	query := map[string]any{
		"knn": map[string]any{
			"field":          fieldEmbedding,
			"query_vector":   vector,
			"k":              k,
			"num_candidates": max(k*10, minCandidates),
		},
		"_source": []string{fieldText},
		"size":    k,
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("search", res)
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source struct {
					Text string `json:"text"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	texts := make([]string, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		texts = append(texts, hit.Source.Text)
	}
	return texts, nil
}

func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("%s returned error [%d]: %s", op, res.StatusCode, string(body))
}
