package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rqlite/gorqlite"
)

func New(conn *gorqlite.Connection) *Queries {
	return &Queries{
		conn: conn,
	}
}

type Queries struct {
	conn *gorqlite.Connection
}

// Chunk is one embedded slice of a documentation page, the unit of retrieval.
type Chunk struct {
	ID        string
	Tenant    string
	URL       string
	Title     string
	Content   string
	Embedding []float32
}

type ChunkUpsertArgs struct {
	// DocPath is the source document path the chunks were split from, e.g.
	// "docs/selecty/getting-started.mdx". Chunk IDs are derived from it.
	DocPath string
	Chunks  []Chunk
}

// ChunkUpsert replaces the chunks of a document in a single batch, deleting
// any trailing chunks left over from a previous, longer version.
func (q *Queries) ChunkUpsert(ctx context.Context, args ChunkUpsertArgs) (err error) {
	statements := make([]gorqlite.ParameterizedStatement, len(args.Chunks)+1)
	for i, chunk := range args.Chunks {
		embeddingJSON, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return fmt.Errorf("failed to marshal embedding: %w", err)
		}
		statements[i] = gorqlite.ParameterizedStatement{
			Query:     `insert or replace into chunk_vec (id, doc_path, tenant, idx, url, title, content, embedding) values (?, ?, ?, ?, ?, ?, ?, ?)`,
			Arguments: []any{chunk.ID, args.DocPath, chunk.Tenant, i, chunk.URL, chunk.Title, chunk.Content, string(embeddingJSON)},
		}
	}
	// Delete excess rows.
	statements[len(statements)-1] = gorqlite.ParameterizedStatement{
		Query:     `delete from chunk_vec where doc_path = ? and idx > ?`,
		Arguments: []any{args.DocPath, len(args.Chunks) - 1},
	}
	if _, err = q.conn.WriteParameterizedContext(ctx, statements); err != nil {
		return err
	}
	return nil
}

// ChunkDelete removes every chunk of a document.
func (q *Queries) ChunkDelete(ctx context.Context, docPath string) (err error) {
	stmt := gorqlite.ParameterizedStatement{
		Query:     `delete from chunk_vec where doc_path = ?`,
		Arguments: []any{docPath},
	}
	if _, err = q.conn.WriteOneParameterizedContext(ctx, stmt); err != nil {
		return err
	}
	return nil
}

type ChunkNearestArgs struct {
	// Tenant filters results to one documentation namespace. Empty means no
	// filter - all namespaces are searched.
	Tenant    string
	Embedding []float32
	Limit     int
}

type ChunkNearestResult struct {
	Chunk
	Distance float64
}

// ChunkNearest returns the chunks nearest to the query embedding, ordered by
// ascending distance. An empty result is not an error.
func (q *Queries) ChunkNearest(ctx context.Context, args ChunkNearestArgs) (chunks []ChunkNearestResult, err error) {
	inputEmbeddingJSON, err := json.Marshal(args.Embedding)
	if err != nil {
		return chunks, fmt.Errorf("failed to marshal input embedding: %w", err)
	}
	stmt := gorqlite.ParameterizedStatement{
		Query: `select id, tenant, url, title, content, vec_to_json(embedding), distance
from chunk_vec
where embedding match ?
order by distance asc
limit ?`,
		Arguments: []any{string(inputEmbeddingJSON), args.Limit},
	}
	if args.Tenant != "" {
		stmt = gorqlite.ParameterizedStatement{
			Query: `select id, tenant, url, title, content, vec_to_json(embedding), distance
from chunk_vec
where tenant = ? and embedding match ?
order by distance asc
limit ?`,
			Arguments: []any{args.Tenant, string(inputEmbeddingJSON), args.Limit},
		}
	}
	result, err := q.conn.QueryOneParameterizedContext(ctx, stmt)
	if err != nil {
		return chunks, err
	}
	for result.Next() {
		var chunk ChunkNearestResult
		var embeddingJSON string
		if err = result.Scan(&chunk.ID, &chunk.Tenant, &chunk.URL, &chunk.Title, &chunk.Content, &embeddingJSON, &chunk.Distance); err != nil {
			return chunks, err
		}
		if err = json.Unmarshal([]byte(embeddingJSON), &chunk.Embedding); err != nil {
			return chunks, fmt.Errorf("failed to unmarshal embedding: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}
