package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LeventeLantos/kram/internal/model"
	"github.com/LeventeLantos/kram/internal/repo"
)

type fakeReceivers struct {
	mu       sync.Mutex
	lastSent map[string]time.Time
	now      time.Time
	pickErr  error
	regErr   error
	picks    int
}

func newFakeReceivers(now time.Time, phones ...string) *fakeReceivers {
	r := &fakeReceivers{lastSent: map[string]time.Time{}, now: now}
	for _, p := range phones {
		r.lastSent[p] = time.Time{}
	}
	return r
}

func (f *fakeReceivers) Register(ctx context.Context, phoneNumber string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.regErr != nil {
		return time.Time{}, f.regErr
	}
	if _, ok := f.lastSent[phoneNumber]; ok {
		return time.Time{}, repo.ErrDuplicateReceiver
	}
	f.lastSent[phoneNumber] = time.Time{}
	return f.now, nil
}

// PickRandomEligible takes the first eligible number in map order; the
// service must not depend on which one.
func (f *fakeReceivers) PickRandomEligible(ctx context.Context, cooldown time.Duration) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.picks++
	if f.pickErr != nil {
		return "", false, f.pickErr
	}
	cutoff := f.now.Add(-cooldown)
	for p, last := range f.lastSent {
		if last.Before(cutoff) {
			f.lastSent[p] = f.now
			return p, true, nil
		}
	}
	return "", false, nil
}

func (f *fakeReceivers) CountEligible(ctx context.Context, cooldown time.Duration) (repo.PoolStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cutoff := f.now.Add(-cooldown)
	s := repo.PoolStats{Total: len(f.lastSent)}
	for _, last := range f.lastSent {
		if last.Before(cutoff) {
			s.Eligible++
		}
	}
	return s, nil
}

func (f *fakeReceivers) stamped(p string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.lastSent[p].IsZero()
}

type fakeStore struct {
	receivers *fakeReceivers
	appendErr error

	mu       sync.Mutex
	messages []model.Message
}

func (s *fakeStore) Repositories() repo.Repositories {
	return repo.Repositories{Receivers: s.receivers, Messages: &txMessages{store: s}}
}

func (s *fakeStore) WithinTx(ctx context.Context, fn func(repo.Repositories) error) error {
	tx := &txMessages{store: s}
	if err := fn(repo.Repositories{Receivers: s.receivers, Messages: tx}); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, tx.staged...)
	return nil
}

func (s *fakeStore) stored() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.messages...)
}

type txMessages struct {
	store  *fakeStore
	staged []model.Message
}

func (t *txMessages) Append(ctx context.Context, m model.Message) (model.Message, error) {
	if t.store.appendErr != nil {
		return model.Message{}, t.store.appendErr
	}
	m.CreatedAt = time.Now()
	t.staged = append(t.staged, m)
	return m, nil
}

type sentSMS struct {
	Text  string
	Name  *string
	Phone string
}

type fakeMessenger struct {
	mu    sync.Mutex
	calls []sentSMS
	err   error
}

func (f *fakeMessenger) Send(ctx context.Context, text string, name *string, phoneNumber string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, sentSMS{Text: text, Name: name, Phone: phoneNumber})
	if f.err != nil {
		return "", f.err
	}
	return "remote-1", nil
}

func (f *fakeMessenger) sent() []sentSMS {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentSMS(nil), f.calls...)
}

type fakeScorer struct {
	score float64
	err   error
}

func (f fakeScorer) Score(string) (float64, error) { return f.score, f.err }

type fakeReceipts struct {
	mu   sync.Mutex
	byID map[uuid.UUID]string
	err  error
}

func (f *fakeReceipts) StoreSent(ctx context.Context, messageID uuid.UUID, remoteMessageID string, sentAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	if f.byID == nil {
		f.byID = map[uuid.UUID]string{}
	}
	f.byID[messageID] = remoteMessageID
	return nil
}

type firstIndex struct{}

func (firstIndex) IntN(int) int { return 0 }
