// Package scheduler runs a background job on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type Scheduler struct {
	name     string
	interval time.Duration
	tickFn   func(context.Context)

	lastRun atomic.Int64 // unix nanos of the last completed tick

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(name string, interval time.Duration, tickFn func(context.Context)) (*Scheduler, error) {
	if interval <= 0 {
		return nil, errors.New("interval must be > 0")
	}
	if tickFn == nil {
		return nil, errors.New("tickFn must not be nil")
	}
	return &Scheduler{
		name:     name,
		interval: interval,
		tickFn:   tickFn,
		done:     make(chan struct{}),
	}, nil
}

// Start ticks once immediately and then every interval until Stop is called
// or parent is canceled. It returns false if the scheduler is already running.
func (s *Scheduler) Start(parent context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunningLocked() {
		return false
	}

	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(ctx, s.done)
	return true
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("scheduler started", "job", s.name, "interval", s.interval.String())

	s.safeTick(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopping", "job", s.name)
			return
		case <-ticker.C:
			s.safeTick(ctx)
		}
	}
}

// Stop cancels the loop and waits for an in-flight tick to return.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return false
	}

	s.cancel()
	<-s.done
	s.running = false

	slog.Info("scheduler stopped", "job", s.name)
	return true
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunningLocked()
}

func (s *Scheduler) isRunningLocked() bool {
	if !s.running {
		return false
	}
	select {
	case <-s.done:
		// parent context ended the loop
		return false
	default:
		return true
	}
}

// LastRun returns when the last tick finished, or the zero time.
func (s *Scheduler) LastRun() time.Time {
	n := s.lastRun.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (s *Scheduler) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduler tick panic recovered", "job", s.name, "panic", r)
		}
	}()

	tickCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	start := time.Now()
	s.tickFn(tickCtx)
	s.lastRun.Store(time.Now().UnixNano())
	slog.Debug("scheduler tick completed", "job", s.name, "duration_ms", time.Since(start).Milliseconds())
}
