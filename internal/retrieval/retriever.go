// Package retrieval answers knowledge-base lookups with embedding search
// over pgvector-indexed chunks.
package retrieval

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Result is one knowledge-base hit, shaped for direct serialization into a
// tool response.
type Result struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float64 `json:"relevance_score"`
}

type Retriever struct {
	pool       *pgxpool.Pool
	embedder   *genai.EmbeddingModel
	maxResults int
}

func NewRetriever(pool *pgxpool.Pool, embedder *genai.EmbeddingModel, maxResults int) *Retriever {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Retriever{pool: pool, embedder: embedder, maxResults: maxResults}
}

// Search embeds the query and returns the closest chunks by cosine
// distance, best first. An embedding or query failure fails the whole
// lookup; callers decide whether to degrade.
func (r *Retriever) Search(ctx context.Context, query string) ([]Result, error) {
	res, err := r.embedder.EmbedContent(ctx, genai.Text(query))
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding model returned no vector")
	}

	vec := pgvector.NewVector(res.Embedding.Values)

	rows, err := r.pool.Query(ctx,
		`SELECT content, source, 1 - (embedding <=> $1) AS relevance
		 FROM kb_chunks ORDER BY embedding <=> $1 LIMIT $2`,
		vec, r.maxResults,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge base: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var hit Result
		if err := rows.Scan(&hit.Content, &hit.Source, &hit.Score); err != nil {
			return nil, err
		}
		results = append(results, hit)
	}
	return results, rows.Err()
}

// Ingest stores one chunk with its embedding. Used by seed tooling and the
// upload path.
func (r *Retriever) Ingest(ctx context.Context, source, content string) error {
	res, err := r.embedder.EmbedContent(ctx, genai.Text(content))
	if err != nil {
		return fmt.Errorf("failed to embed chunk: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		"INSERT INTO kb_chunks (source, content, embedding) VALUES ($1, $2, $3)",
		source, content, pgvector.NewVector(res.Embedding.Values),
	)
	return err
}
