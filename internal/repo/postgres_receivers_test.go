package repo

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

// seqRand returns the queued values in order.
type seqRand struct {
	vals []int
	got  []int
}

func (s *seqRand) IntN(n int) int {
	s.got = append(s.got, n)
	v := s.vals[0]
	s.vals = s.vals[1:]
	return v
}

func setupReceiverRepo(t *testing.T, rnd *seqRand) (*PostgresReceiverRepo, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	if rnd == nil {
		rnd = &seqRand{}
	}
	return NewPostgresReceiverRepo(db, rnd, func() time.Time { return fixedNow }), mock
}

const (
	selectEligible = `
		SELECT phone_number
		FROM receivers
		WHERE last_sent < $1
		ORDER BY phone_number
	`
	claimReceiver = `
			UPDATE receivers
			SET last_sent = $2
			WHERE phone_number = $1 AND last_sent < $3
		`
)

func TestRegister(t *testing.T) {
	repo, mock := setupReceiverRepo(t, nil)

	createdAt := fixedNow.Add(-time.Second)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO receivers (phone_number)`)).
		WithArgs("12345678").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	got, err := repo.Register(context.Background(), "12345678")
	assert.NoError(t, err)
	assert.Equal(t, createdAt, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_Duplicate(t *testing.T) {
	repo, mock := setupReceiverRepo(t, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO receivers (phone_number)`)).
		WithArgs("12345678").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "receivers_pkey"})

	_, err := repo.Register(context.Background(), "12345678")
	assert.ErrorIs(t, err, ErrDuplicateReceiver)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_OtherErrorIsWrapped(t *testing.T) {
	repo, mock := setupReceiverRepo(t, nil)

	dbErr := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO receivers (phone_number)`)).
		WithArgs("12345678").
		WillReturnError(dbErr)

	_, err := repo.Register(context.Background(), "12345678")
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrDuplicateReceiver)
	assert.Contains(t, err.Error(), "register receiver")
}

func TestPickRandomEligible_ClaimsRandomCandidate(t *testing.T) {
	rnd := &seqRand{vals: []int{1}}
	repo, mock := setupReceiverRepo(t, rnd)

	cutoff := fixedNow.Add(-30 * time.Minute)
	mock.ExpectQuery(regexp.QuoteMeta(selectEligible)).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"phone_number"}).
			AddRow("11111111").
			AddRow("22222222").
			AddRow("33333333"))
	mock.ExpectExec(regexp.QuoteMeta(claimReceiver)).
		WithArgs("22222222", fixedNow, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 1))

	phone, ok, err := repo.PickRandomEligible(context.Background(), 30*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "22222222", phone)
	assert.Equal(t, []int{3}, rnd.got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPickRandomEligible_SkipsReceiverClaimedConcurrently(t *testing.T) {
	rnd := &seqRand{vals: []int{0, 0}}
	repo, mock := setupReceiverRepo(t, rnd)

	cutoff := fixedNow.Add(-time.Minute)
	mock.ExpectQuery(regexp.QuoteMeta(selectEligible)).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"phone_number"}).
			AddRow("11111111").
			AddRow("22222222"))
	mock.ExpectExec(regexp.QuoteMeta(claimReceiver)).
		WithArgs("11111111", fixedNow, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(claimReceiver)).
		WithArgs("22222222", fixedNow, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 1))

	phone, ok, err := repo.PickRandomEligible(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "22222222", phone)
	assert.Equal(t, []int{2, 1}, rnd.got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPickRandomEligible_NoneEligible(t *testing.T) {
	repo, mock := setupReceiverRepo(t, nil)

	mock.ExpectQuery(regexp.QuoteMeta(selectEligible)).
		WillReturnRows(sqlmock.NewRows([]string{"phone_number"}))

	phone, ok, err := repo.PickRandomEligible(context.Background(), 30*time.Minute)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPickRandomEligible_AllClaimedElsewhere(t *testing.T) {
	rnd := &seqRand{vals: []int{0}}
	repo, mock := setupReceiverRepo(t, rnd)

	mock.ExpectQuery(regexp.QuoteMeta(selectEligible)).
		WillReturnRows(sqlmock.NewRows([]string{"phone_number"}).AddRow("11111111"))
	mock.ExpectExec(regexp.QuoteMeta(claimReceiver)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, ok, err := repo.PickRandomEligible(context.Background(), 30*time.Minute)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPickRandomEligible_QueryError(t *testing.T) {
	repo, mock := setupReceiverRepo(t, nil)

	mock.ExpectQuery(regexp.QuoteMeta(selectEligible)).
		WillReturnError(sql.ErrConnDone)

	_, ok, err := repo.PickRandomEligible(context.Background(), 30*time.Minute)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.False(t, ok)
}

func TestPickRandomEligible_UpdateError(t *testing.T) {
	rnd := &seqRand{vals: []int{0}}
	repo, mock := setupReceiverRepo(t, rnd)

	mock.ExpectQuery(regexp.QuoteMeta(selectEligible)).
		WillReturnRows(sqlmock.NewRows([]string{"phone_number"}).AddRow("11111111"))
	mock.ExpectExec(regexp.QuoteMeta(claimReceiver)).
		WillReturnError(errors.New("deadlock detected"))

	_, ok, err := repo.PickRandomEligible(context.Background(), 30*time.Minute)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "claim receiver")
	assert.False(t, ok)
}

func TestCountEligible(t *testing.T) {
	repo, mock := setupReceiverRepo(t, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*), count(*) FILTER (WHERE last_sent < $1)`)).
		WithArgs(fixedNow.Add(-30 * time.Minute)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "count"}).AddRow(5, 2))

	stats, err := repo.CountEligible(context.Background(), 30*time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, PoolStats{Total: 5, Eligible: 2}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}
