package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/LeventeLantos/kram/internal/model"
)

var ErrDuplicateReceiver = errors.New("receiver already registered")

// MessageRepository is append-only.
type MessageRepository interface {
	Append(ctx context.Context, m model.Message) (model.Message, error)
}

type ReceiverRepository interface {
	Register(ctx context.Context, phoneNumber string) (time.Time, error)
	// PickRandomEligible selects a receiver not contacted within cooldown and
	// stamps it as contacted now. ok is false when nobody is eligible.
	PickRandomEligible(ctx context.Context, cooldown time.Duration) (phoneNumber string, ok bool, err error)
	CountEligible(ctx context.Context, cooldown time.Duration) (PoolStats, error)
}

type PoolStats struct {
	Total    int
	Eligible int
}

// Repositories bundles repositories bound to the same connection or transaction.
type Repositories struct {
	Receivers ReceiverRepository
	Messages  MessageRepository
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
