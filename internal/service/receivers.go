package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LeventeLantos/kram/internal/metrics"
	"github.com/LeventeLantos/kram/internal/phone"
	"github.com/LeventeLantos/kram/internal/repo"
)

type ReceiverResult struct {
	PhoneNumber string
	Timestamp   time.Time
}

// Register adds a phone number to the receiver pool.
func (s *KramService) Register(ctx context.Context, raw string) (ReceiverResult, error) {
	p, err := phone.Parse(raw)
	if err != nil {
		metrics.RejectedTotal.WithLabelValues("invalid_phone").Inc()
		return ReceiverResult{}, err
	}

	createdAt, err := s.store.Repositories().Receivers.Register(ctx, p)
	if errors.Is(err, repo.ErrDuplicateReceiver) {
		metrics.RejectedTotal.WithLabelValues("duplicate").Inc()
		return ReceiverResult{}, err
	}
	if err != nil {
		slog.Error("register receiver failed", "error", err)
		return ReceiverResult{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	metrics.ReceiversRegistered.Inc()
	slog.Info("receiver registered")
	return ReceiverResult{PhoneNumber: p, Timestamp: createdAt}, nil
}

// RefreshPoolStats updates the receiver gauges. It is run by the scheduler.
func (s *KramService) RefreshPoolStats(ctx context.Context) {
	stats, err := s.store.Repositories().Receivers.CountEligible(ctx, s.cfg.ReceiverCooldown)
	if err != nil {
		slog.Error("count receivers failed", "error", err)
		return
	}
	metrics.ReceiversTotal.Set(float64(stats.Total))
	metrics.ReceiversEligible.Set(float64(stats.Eligible))
}
