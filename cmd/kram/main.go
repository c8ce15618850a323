package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/LeventeLantos/kram/internal/api"
	"github.com/LeventeLantos/kram/internal/cache"
	"github.com/LeventeLantos/kram/internal/client"
	"github.com/LeventeLantos/kram/internal/config"
	"github.com/LeventeLantos/kram/internal/logger"
	"github.com/LeventeLantos/kram/internal/metrics"
	"github.com/LeventeLantos/kram/internal/random"
	"github.com/LeventeLantos/kram/internal/repo"
	"github.com/LeventeLantos/kram/internal/scheduler"
	"github.com/LeventeLantos/kram/internal/sentiment"
	"github.com/LeventeLantos/kram/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal(err)
	}

	slog.SetDefault(logger.New(cfg.LogLevel))

	if err := run(cfg); err != nil {
		slog.Error("kram stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lex, err := loadLexicon(cfg.Kram.LexiconFile)
	if err != nil {
		return err
	}
	phrases, err := service.LoadPhrases(cfg.Static.ThankYouFile)
	if err != nil {
		return err
	}

	db, err := repo.Open(ctx, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repo.Migrate(ctx, db); err != nil {
		return err
	}

	receipts, closeCache := newReceiptCache(ctx, cfg.Redis)
	defer closeCache()

	rnd := random.New(cfg.Kram.RandomSeed)
	gateway := client.NewGatewayClient(cfg.SMS.GatewayURL, cfg.SMS.APIKey, cfg.SMS.Sender, cfg.SMS.Timeout)

	svc := service.NewKramService(
		repo.NewStore(db, rnd),
		sentiment.NewScorer(lex),
		service.NewNotifier(gateway),
		receipts,
		rnd,
		service.Config{
			SentimentThreshold: cfg.Kram.SentimentThreshold,
			ReceiverCooldown:   cfg.Kram.ReceiverCooldown,
			ThankYous:          phrases,
		},
	)

	sched, err := scheduler.New("receiver-stats", cfg.Scheduler.StatsInterval, svc.RefreshPoolStats)
	if err != nil {
		return err
	}
	sched.Start(ctx)
	defer sched.Stop()

	mux := api.Router(api.NewHandler(svc, sched), cfg.Static.Dir)

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           middleware.RequestID(middleware.Recoverer(loggingMiddleware(metrics.Middleware(mux)))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	slog.Info("kram starting",
		"addr", cfg.Server.Address,
		"threshold", cfg.Kram.SentimentThreshold,
		"cooldown", cfg.Kram.ReceiverCooldown.String(),
		"lexicon_terms", len(lex),
		"phrases", len(phrases),
		"redis", cfg.Redis.Enabled,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// loadLexicon falls back to the embedded lexicon, which only covers common
// terms. Negative wording it misses scores 0 and passes the default threshold.
func loadLexicon(path string) (sentiment.Lexicon, error) {
	if path != "" {
		return sentiment.LoadLexicon(path)
	}

	lex, err := sentiment.DefaultLexicon()
	if err != nil {
		return nil, err
	}
	slog.Warn("using built-in lexicon subset, set LEXICON_FILE to a full AFINN list", "terms", len(lex))
	return lex, nil
}

// newReceiptCache falls back to a no-op cache when Redis is not configured.
// An unreachable Redis is logged but does not stop startup.
func newReceiptCache(ctx context.Context, cfg config.RedisConfig) (cache.ReceiptCache, func()) {
	if !cfg.Enabled {
		return cache.Noop{}, func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	rc := cache.NewRedisCache(rdb, cfg.TTL)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		slog.Warn("redis unreachable, receipts may be lost", "addr", cfg.Address, "error", err)
	}

	return rc, func() { _ = rdb.Close() }
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		slog.Info("http request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
