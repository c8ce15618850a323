package repo

import (
	"context"
	"fmt"

	"github.com/LeventeLantos/kram/internal/model"
)

type PostgresMessageRepo struct {
	db dbtx
}

func NewPostgresMessageRepo(db dbtx) *PostgresMessageRepo {
	return &PostgresMessageRepo{db: db}
}

func (r *PostgresMessageRepo) Append(ctx context.Context, m model.Message) (model.Message, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO messages (id, name, text, receiver, flag, sentiment_score)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, m.ID, m.Name, m.Text, m.Receiver, m.Flag, m.SentimentScore).Scan(&m.CreatedAt)
	if err != nil {
		return model.Message{}, fmt.Errorf("append message: %w", err)
	}
	return m, nil
}
