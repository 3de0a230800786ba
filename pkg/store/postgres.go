package store

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/xhad/esgx/internal/models"
)

type ArchiveConfig struct {
	ConnString  string
	TablePrefix string
	VectorDim   int
	BatchSize   int
}

// Embedder supplies vectors for the snippet index.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Archive keeps run results queryable in Postgres and maintains a pgvector
// index of the ESG snippets each report produced.
type Archive struct {
	config   ArchiveConfig
	pool     *pgxpool.Pool
	embedder Embedder
}

func NewWithConfig(config ArchiveConfig, embedder Embedder) (*Archive, error) {
	if config.TablePrefix == "" {
		config.TablePrefix = "esgx"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	a := &Archive{
		config:   config,
		pool:     pool,
		embedder: embedder,
	}

	if err := a.initialize(); err != nil {
		pool.Close()
		return nil, err
	}

	return a, nil
}

func (a *Archive) initialize() error {
	ctx := context.Background()

	// Enable pgvector extension
	_, err := a.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	createReports := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s_reports (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			file TEXT NOT NULL,
			method TEXT,
			pages INTEGER,
			tables INTEGER,
			scope1 TEXT,
			scope2 TEXT,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, a.config.TablePrefix)

	_, err = a.pool.Exec(ctx, createReports)
	if err != nil {
		return fmt.Errorf("failed to create reports table: %v", err)
	}

	createSnippets := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s_snippets (
			id TEXT PRIMARY KEY,
			file TEXT NOT NULL,
			snippet TEXT,
			embedding vector(%d)
		)`, a.config.TablePrefix, a.config.VectorDim)

	_, err = a.pool.Exec(ctx, createSnippets)
	if err != nil {
		return fmt.Errorf("failed to create snippets table: %v", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_snippets_embedding_idx
		ON %s_snippets
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		a.config.TablePrefix, a.config.TablePrefix)

	_, err = a.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	return nil
}

// StoreResults upserts one row per processed file for the given run.
func (a *Archive) StoreResults(ctx context.Context, runID string, results []models.Result) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s_reports (id, run_id, file, method, pages, tables, scope1, scope2)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			method = EXCLUDED.method,
			pages = EXCLUDED.pages,
			tables = EXCLUDED.tables,
			scope1 = EXCLUDED.scope1,
			scope2 = EXCLUDED.scope2`,
		a.config.TablePrefix)

	for _, r := range results {
		id := fmt.Sprintf("%s_%s", runID, r.File)
		_, err = tx.Exec(ctx, stmt,
			id,
			runID,
			sanitizeUTF8(r.File),
			r.Method,
			r.Pages,
			r.Tables,
			r.Scope1,
			r.Scope2,
		)
		if err != nil {
			return fmt.Errorf("failed to insert result: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

// IndexSnippets embeds and upserts a report's shortlisted snippets in
// batches.
func (a *Archive) IndexSnippets(ctx context.Context, file string, snippets []string) error {
	if a.embedder == nil {
		return fmt.Errorf("no embedder configured")
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s_snippets (id, file, snippet, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			snippet = EXCLUDED.snippet,
			embedding = EXCLUDED.embedding`,
		a.config.TablePrefix)

	for start := 0; start < len(snippets); start += a.config.BatchSize {
		end := start + a.config.BatchSize
		if end > len(snippets) {
			end = len(snippets)
		}
		batch := snippets[start:end]

		clean := make([]string, len(batch))
		for i, s := range batch {
			clean[i] = sanitizeUTF8(s)
		}

		vectors, err := a.embedder.Embed(ctx, clean)
		if err != nil {
			return fmt.Errorf("failed to embed snippets: %v", err)
		}
		if len(vectors) != len(clean) {
			return fmt.Errorf("embedder returned %d vectors for %d snippets", len(vectors), len(clean))
		}

		tx, err := a.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %v", err)
		}

		for i, s := range clean {
			id := fmt.Sprintf("%s_%d", file, start+i)
			_, err = tx.Exec(ctx, stmt, id, file, s, pgvector.NewVector(vectors[i]))
			if err != nil {
				tx.Rollback(ctx)
				return fmt.Errorf("failed to insert snippet: %v", err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit transaction: %v", err)
		}
	}

	return nil
}

// SnippetHit is one match from the snippet index.
type SnippetHit struct {
	File    string
	Snippet string
}

// SearchSnippets returns the snippets closest to the query vector by
// cosine distance.
func (a *Archive) SearchSnippets(ctx context.Context, queryEmbedding []float32, limit int) ([]SnippetHit, error) {
	if limit == 0 {
		limit = 5
	}

	query := fmt.Sprintf(`
		SELECT file, snippet
		FROM %s_snippets
		ORDER BY embedding <=> $1
		LIMIT $2`,
		a.config.TablePrefix)

	rows, err := a.pool.Query(ctx, query, pgvector.NewVector(queryEmbedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snippets: %v", err)
	}
	defer rows.Close()

	var hits []SnippetHit
	for rows.Next() {
		var h SnippetHit
		if err := rows.Scan(&h.File, &h.Snippet); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		hits = append(hits, h)
	}

	return hits, rows.Err()
}

func (a *Archive) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
