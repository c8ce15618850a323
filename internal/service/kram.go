package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/LeventeLantos/kram/internal/cache"
	"github.com/LeventeLantos/kram/internal/metrics"
	"github.com/LeventeLantos/kram/internal/model"
	"github.com/LeventeLantos/kram/internal/phone"
	"github.com/LeventeLantos/kram/internal/random"
	"github.com/LeventeLantos/kram/internal/repo"
)

var (
	ErrTextLength  = errors.New("text is empty or too long")
	ErrPersistence = errors.New("persistence failed")
)

type Scorer interface {
	Score(text string) (float64, error)
}

type Store interface {
	Repositories() repo.Repositories
	WithinTx(ctx context.Context, fn func(repo.Repositories) error) error
}

type Messenger interface {
	Send(ctx context.Context, text string, name *string, phoneNumber string) (remoteMessageID string, err error)
}

type Config struct {
	SentimentThreshold float64
	ReceiverCooldown   time.Duration
	ThankYous          []string
}

type KramInput struct {
	Name     *string
	Text     string
	Receiver *string
}

// KramResult is what the submitter sees. It never reveals whether the kram
// was flagged or whether anyone received it.
type KramResult struct {
	Message        string
	Len            int
	SentimentScore float64
	ThankYou       string
}

type KramService struct {
	store    Store
	scorer   Scorer
	notifier Messenger
	receipts cache.ReceiptCache
	rnd      random.Source
	cfg      Config
	now      func() time.Time
}

func NewKramService(store Store, scorer Scorer, notifier Messenger, receipts cache.ReceiptCache, rnd random.Source, cfg Config) *KramService {
	if receipts == nil {
		receipts = cache.Noop{}
	}
	return &KramService{
		store:    store,
		scorer:   scorer,
		notifier: notifier,
		receipts: receipts,
		rnd:      rnd,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Submit validates, scores and stores a kram, then texts it to a receiver
// when it is positive enough and someone is available.
func (s *KramService) Submit(ctx context.Context, in KramInput) (KramResult, error) {
	length := utf8.RuneCountInString(in.Text)
	if length == 0 || length > model.MaxTextLength {
		metrics.RejectedTotal.WithLabelValues("text_length").Inc()
		return KramResult{}, ErrTextLength
	}

	var supplied *string
	if in.Receiver != nil {
		p, err := phone.Parse(*in.Receiver)
		if err != nil {
			metrics.RejectedTotal.WithLabelValues("invalid_phone").Inc()
			return KramResult{}, err
		}
		supplied = &p
	}

	score := s.score(in.Text)
	msg := model.Message{
		ID:             uuid.New(),
		Name:           in.Name,
		Text:           in.Text,
		Flag:           score < s.cfg.SentimentThreshold,
		SentimentScore: score,
	}

	err := s.store.WithinTx(ctx, func(r repo.Repositories) error {
		switch {
		case msg.Flag:
		case supplied != nil:
			msg.Receiver = supplied
		default:
			p, ok, err := r.Receivers.PickRandomEligible(ctx, s.cfg.ReceiverCooldown)
			if err != nil {
				return err
			}
			if ok {
				msg.Receiver = &p
			}
		}

		saved, err := r.Messages.Append(ctx, msg)
		if err != nil {
			return err
		}
		msg = saved
		return nil
	})
	if err != nil {
		slog.Error("persist kram failed", "message_id", msg.ID, "error", err)
		return KramResult{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	switch {
	case msg.Flag:
		metrics.KramsTotal.WithLabelValues("flagged").Inc()
		slog.Info("kram flagged", "message_id", msg.ID, "score", score)
	case msg.Receiver == nil:
		metrics.KramsTotal.WithLabelValues("unsent").Inc()
		slog.Info("no eligible receiver", "message_id", msg.ID)
	default:
		s.dispatch(ctx, msg)
	}

	return KramResult{
		Message:        in.Text,
		Len:            length,
		SentimentScore: score,
		ThankYou:       s.thankYou(),
	}, nil
}

// score fails closed: text that cannot be scored counts as maximally negative.
func (s *KramService) score(text string) float64 {
	score, err := s.scorer.Score(text)
	if err != nil {
		slog.Warn("sentiment scoring failed", "error", err)
		return math.Inf(-1)
	}
	metrics.SentimentScore.Observe(score)
	return score
}

func (s *KramService) dispatch(ctx context.Context, msg model.Message) {
	// The receiver is already stamped, so the SMS goes out even if the
	// submitter hangs up. The gateway client carries its own timeout.
	ctx = context.WithoutCancel(ctx)

	remoteID, err := s.notifier.Send(ctx, msg.Text, msg.Name, *msg.Receiver)
	if err != nil {
		metrics.KramsTotal.WithLabelValues("send_failed").Inc()
		slog.Error("kram notification failed", "message_id", msg.ID, "error", err)
		return
	}
	metrics.KramsTotal.WithLabelValues("sent").Inc()
	slog.Info("kram sent", "message_id", msg.ID, "remote_id", remoteID)

	if err := s.receipts.StoreSent(ctx, msg.ID, remoteID, s.now()); err != nil {
		slog.Warn("store dispatch receipt failed", "message_id", msg.ID, "error", err)
	}
}

func (s *KramService) thankYou() string {
	if len(s.cfg.ThankYous) == 0 {
		return ""
	}
	return s.cfg.ThankYous[s.rnd.IntN(len(s.cfg.ThankYous))]
}
