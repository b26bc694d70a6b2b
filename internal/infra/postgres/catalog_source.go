package postgres

import (
	"context"
	"fmt"

	"ffquiz-service/internal/catalog"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogSource reads and writes catalog source documents kept as JSONB.
type CatalogSource struct {
	pool *pgxpool.Pool
}

func NewCatalogSource(pool *pgxpool.Pool) *CatalogSource {
	return &CatalogSource{pool: pool}
}

// LoadAll returns every stored quiz in catalog order.
func (s *CatalogSource) LoadAll(ctx context.Context) ([]catalog.SourceQuiz, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, data FROM quizzes ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("load quizzes: %w", err)
	}
	defer rows.Close()

	var out []catalog.SourceQuiz
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		q, err := catalog.ParseQuizJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("quiz %s: %w", id, err)
		}
		if q.ID == "" {
			q.ID = id
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load quizzes: %w", err)
	}
	return out, nil
}

// Store upserts quizzes in one transaction, keeping their order.
func (s *CatalogSource) Store(ctx context.Context, quizzes []catalog.SourceQuiz) error {
	return s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i, q := range quizzes {
			data, err := json.Marshal(q)
			if err != nil {
				return fmt.Errorf("encode quiz %s: %w", q.QuizID(), err)
			}
			batch.Queue(`
				INSERT INTO quizzes (id, category, position, data, updated_at)
				VALUES ($1, $2, $3, $4, now())
				ON CONFLICT (id) DO UPDATE
				SET category = EXCLUDED.category, position = EXCLUDED.position, data = EXCLUDED.data, updated_at = now()`,
				q.QuizID(), string(q.Category), i, data)
		}
		br := tx.SendBatch(ctx, batch)
		for range quizzes {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("store quiz: %w", err)
			}
		}
		return br.Close()
	})
}
