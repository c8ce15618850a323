package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/LeventeLantos/kram/internal/random"
)

const uniqueViolation = "23505"

type PostgresReceiverRepo struct {
	db  dbtx
	rnd random.Source
	now func() time.Time
}

func NewPostgresReceiverRepo(db dbtx, rnd random.Source, now func() time.Time) *PostgresReceiverRepo {
	if now == nil {
		now = time.Now
	}
	return &PostgresReceiverRepo{db: db, rnd: rnd, now: now}
}

func (r *PostgresReceiverRepo) Register(ctx context.Context, phoneNumber string) (time.Time, error) {
	var createdAt time.Time
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO receivers (phone_number)
		VALUES ($1)
		RETURNING created_at
	`, phoneNumber).Scan(&createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return time.Time{}, ErrDuplicateReceiver
		}
		return time.Time{}, fmt.Errorf("register receiver: %w", err)
	}
	return createdAt, nil
}

// PickRandomEligible draws among the eligible receivers and claims one with a
// conditional update. The update re-checks eligibility under the row lock, so
// a receiver claimed concurrently by another request is skipped and the next
// candidate is tried.
func (r *PostgresReceiverRepo) PickRandomEligible(ctx context.Context, cooldown time.Duration) (string, bool, error) {
	now := r.now().UTC()
	cutoff := now.Add(-cooldown)

	rows, err := r.db.QueryContext(ctx, `
		SELECT phone_number
		FROM receivers
		WHERE last_sent < $1
		ORDER BY phone_number
	`, cutoff)
	if err != nil {
		return "", false, fmt.Errorf("list eligible receivers: %w", err)
	}

	var candidates []string
	for rows.Next() {
		var phone string
		if err := rows.Scan(&phone); err != nil {
			rows.Close()
			return "", false, fmt.Errorf("scan receiver: %w", err)
		}
		candidates = append(candidates, phone)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return "", false, fmt.Errorf("list eligible receivers: %w", err)
	}
	rows.Close()

	for len(candidates) > 0 {
		i := r.rnd.IntN(len(candidates))
		phone := candidates[i]

		res, err := r.db.ExecContext(ctx, `
			UPDATE receivers
			SET last_sent = $2
			WHERE phone_number = $1 AND last_sent < $3
		`, phone, now, cutoff)
		if err != nil {
			return "", false, fmt.Errorf("claim receiver: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return "", false, fmt.Errorf("claim receiver: %w", err)
		}
		if n == 1 {
			return phone, true, nil
		}

		candidates = append(candidates[:i], candidates[i+1:]...)
	}
	return "", false, nil
}

func (r *PostgresReceiverRepo) CountEligible(ctx context.Context, cooldown time.Duration) (PoolStats, error) {
	cutoff := r.now().UTC().Add(-cooldown)

	var s PoolStats
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*), count(*) FILTER (WHERE last_sent < $1)
		FROM receivers
	`, cutoff).Scan(&s.Total, &s.Eligible)
	if err != nil {
		return PoolStats{}, fmt.Errorf("count receivers: %w", err)
	}
	return s, nil
}
