package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LeventeLantos/kram/internal/random"
)

type Store struct {
	db  *sql.DB
	rnd random.Source
	now func() time.Time
}

func NewStore(db *sql.DB, rnd random.Source) *Store {
	return &Store{db: db, rnd: rnd, now: time.Now}
}

// Repositories returns repositories running outside any transaction.
func (s *Store) Repositories() Repositories {
	return s.bind(s.db)
}

// WithinTx runs fn in a read-committed transaction. The transaction commits
// when fn returns nil and rolls back otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(s.bind(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) bind(db dbtx) Repositories {
	return Repositories{
		Receivers: NewPostgresReceiverRepo(db, s.rnd, s.now),
		Messages:  NewPostgresMessageRepo(db),
	}
}
