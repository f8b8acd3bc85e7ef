package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonesrussell/cooper/infrastructure/logger"
	"github.com/jonesrussell/cooper/internal/llm"
)

// DefaultTopK is the number of chunks retrieved per query.
const DefaultTopK = 3

var errNoEmbedding = errors.New("embedder returned no vectors")

// chunkNamespace derives stable document IDs, so re-indexing the same
// corpus overwrites rather than duplicates.
var chunkNamespace = uuid.MustParse("6f1c2a8e-5b4d-4c1e-9a7f-3d2b1e0c9f84")

// Retriever answers queries with the nearest guideline chunks. A failed
// query falls back to the first k chunks.
type Retriever struct {
	store    *Store
	embedder llm.Embedder
	chunks   []string
	log      logger.Logger
}

// NewRetriever embeds and indexes chunks. The caller decides what to do
// when indexing fails; the returned error leaves nothing half-usable.
func NewRetriever(ctx context.Context, store *Store, embedder llm.Embedder, chunks []string, log logger.Logger) (*Retriever, error) {
	if log == nil {
		log = logger.NewNop()
	}
	r := &Retriever{store: store, embedder: embedder, chunks: chunks, log: log}

	if len(chunks) == 0 {
		return r, nil
	}

	vectors, err := embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed guideline chunks: %w", err)
	}
	if len(vectors) != len(chunks) || len(vectors[0]) == 0 {
		return nil, errNoEmbedding
	}

	if err := store.EnsureIndex(ctx, len(vectors[0])); err != nil {
		return nil, err
	}

	docs := make([]Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = Document{
			ID:        uuid.NewSHA1(chunkNamespace, []byte(chunk)).String(),
			Text:      chunk,
			Position:  i,
			Embedding: vectors[i],
		}
	}
	if err := store.Upsert(ctx, docs); err != nil {
		return nil, err
	}

	log.Info("Guideline chunks indexed",
		logger.String("index", store.Index()),
		logger.Int("chunks", len(docs)),
	)
	return r, nil
}

// Retrieve returns up to k chunks nearest to query.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if len(r.chunks) == 0 {
		return []string{}, nil
	}

	texts, err := r.search(ctx, query, k)
	if err != nil {
		r.log.Warn("Guideline retrieval failed, using leading chunks",
			logger.String("query", query),
			logger.Error(err),
		)
		return firstN(r.chunks, k), nil
	}
	return texts, nil
}

func (r *Retriever) search(ctx context.Context, query string, k int) ([]string, error) {
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, errNoEmbedding
	}
	return r.store.Search(ctx, vectors[0], k)
}

func firstN(chunks []string, k int) []string {
	n := min(k, len(chunks))
	out := make([]string, n)
	copy(out, chunks[:n])
	return out
}
