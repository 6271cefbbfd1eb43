package store

import (
	"context"
	"fmt"
	"log"

	"policyassist/types"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// VectorStorer is the nearest-neighbor store the pipeline runs against.
// Collections are isolated namespaces: the shared default for Q&A plus
// ephemeral compare_<uuid> collections for document diffs.
type VectorStorer interface {
	Upsert(ctx context.Context, collection string, chunks []types.Chunk, vectors [][]float32) error
	Search(ctx context.Context, collection string, query []float32, k int) ([]types.Chunk, error)
	SearchWithScores(ctx context.Context, collection string, query []float32, k int) ([]types.ScoredChunk, error)
	SearchTables(ctx context.Context, collection string, query []float32, k int) ([]types.Chunk, error)
	FetchAll(ctx context.Context, collection string) ([]types.Chunk, error)
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool: pool,
	}, nil
}

// Upsert indexes chunks with their embeddings. The key is
// (collection, chunk_id), so re-ingesting identical content overwrites in
// place and the collection does not grow.
func (p *PostgresStore) Upsert(ctx context.Context, collection string, chunks []types.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}

	query := `
    INSERT INTO chunks (collection, chunk_id, content, page, source, position, is_table, section_title, embedding)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    ON CONFLICT (collection, chunk_id) DO UPDATE SET
        content = EXCLUDED.content,
        page = EXCLUDED.page,
        source = EXCLUDED.source,
        position = EXCLUDED.position,
        is_table = EXCLUDED.is_table,
        section_title = EXCLUDED.section_title,
        embedding = EXCLUDED.embedding
    `
	for i, c := range chunks {
		_, err := p.pool.Exec(ctx, query,
			collection, c.ChunkID, c.Content, c.Page, c.Source, c.Position, c.IsTable, c.SectionTitle,
			pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			return fmt.Errorf("error upserting chunk %s: %w", c.ChunkID, err)
		}
	}
	return nil
}

func (p *PostgresStore) Search(ctx context.Context, collection string, query []float32, k int) ([]types.Chunk, error) {
	scored, err := p.SearchWithScores(ctx, collection, query, k)
	if err != nil {
		return nil, err
	}
	chunks := make([]types.Chunk, len(scored))
	for i, s := range scored {
		chunks[i] = s.Chunk
	}
	return chunks, nil
}

// SearchWithScores returns the k nearest chunks with relevance scores in
// [0,1] derived from cosine distance (1 - distance, higher is closer).
func (p *PostgresStore) SearchWithScores(ctx context.Context, collection string, query []float32, k int) ([]types.ScoredChunk, error) {
	return p.search(ctx, collection, query, k, false)
}

// SearchTables is the table-filtered variant used for numeric lookups.
func (p *PostgresStore) SearchTables(ctx context.Context, collection string, query []float32, k int) ([]types.Chunk, error) {
	scored, err := p.search(ctx, collection, query, k, true)
	if err != nil {
		return nil, err
	}
	chunks := make([]types.Chunk, len(scored))
	for i, s := range scored {
		chunks[i] = s.Chunk
	}
	return chunks, nil
}

func (p *PostgresStore) search(ctx context.Context, collection string, queryVec []float32, k int, tablesOnly bool) ([]types.ScoredChunk, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}

	query := `
		SELECT chunk_id, content, page, source, position, is_table, section_title,
		       1 - (embedding <=> $1) AS score
		FROM chunks
		WHERE collection = $2 AND embedding IS NOT NULL
	`
	if tablesOnly {
		query += " AND is_table"
	}
	query += `
		ORDER BY embedding <=> $1
		LIMIT $3
	`

	rows, err := p.pool.Query(ctx, query, pgvector.NewVector(queryVec), collection, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []types.ScoredChunk
	for rows.Next() {
		var c types.ScoredChunk
		if err := rows.Scan(
			&c.ChunkID,
			&c.Content,
			&c.Page,
			&c.Source,
			&c.Position,
			&c.IsTable,
			&c.SectionTitle,
			&c.Score,
		); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// FetchAll returns every chunk of a collection in insert order. The diff
// engine compares collections exhaustively, not top-k.
func (p *PostgresStore) FetchAll(ctx context.Context, collection string) ([]types.Chunk, error) {
	query := `
		SELECT chunk_id, content, page, source, position, is_table, section_title
		FROM chunks
		WHERE collection = $1
		ORDER BY position, chunk_id
	`
	rows, err := p.pool.Query(ctx, query, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []types.Chunk
	for rows.Next() {
		var c types.Chunk
		if err := rows.Scan(
			&c.ChunkID,
			&c.Content,
			&c.Page,
			&c.Source,
			&c.Position,
			&c.IsTable,
			&c.SectionTitle,
		); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (p *PostgresStore) createRagTables(ctx context.Context) error {
	query := `
    CREATE EXTENSION IF NOT EXISTS vector;

    CREATE TABLE IF NOT EXISTS chunks (
        collection TEXT NOT NULL,
        chunk_id TEXT NOT NULL,
        content TEXT NOT NULL,
        page INT NOT NULL DEFAULT 1,
        source TEXT NOT NULL DEFAULT '',
        position INT NOT NULL DEFAULT 0,
        is_table BOOLEAN NOT NULL DEFAULT FALSE,
        section_title TEXT NOT NULL DEFAULT '',
        embedding vector(768),
        PRIMARY KEY (collection, chunk_id)
    );

	CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks USING ivfflat (embedding vector_cosine_ops)
	WITH (lists = 100);

	CREATE INDEX IF NOT EXISTS idx_chunks_collection ON chunks(collection);
	CREATE INDEX IF NOT EXISTS idx_chunks_is_table ON chunks(is_table);
    `
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Init(ctx context.Context) error {
	return p.createRagTables(ctx)
}

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		log.Println("Postgres connection pool is closed")
	}
	return nil
}
