package quote_refresher

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/taxfolio/taxfolio/internal/domain/repositories"
	"github.com/taxfolio/taxfolio/pkg/metrics"
)

// PriceFetcher fetches latest prices for a symbol set from an external
// source.
type PriceFetcher interface {
	Fetch(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// Scheduler periodically refreshes every user's quotes from the configured
// provider. Each user is refreshed independently so one failing fetch never
// blocks the rest of the run.
type Scheduler struct {
	cron     *cron.Cron
	users    repositories.UserStore
	lots     repositories.LotStore
	quotes   repositories.QuoteSource
	fetcher  PriceFetcher
	schedule string
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	lastRun time.Time
}

// NewScheduler creates a quote refresh scheduler with the given cron spec.
func NewScheduler(
	users repositories.UserStore,
	lots repositories.LotStore,
	quotes repositories.QuoteSource,
	fetcher PriceFetcher,
	schedule string,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		users:    users,
		lots:     lots,
		quotes:   quotes,
		fetcher:  fetcher,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the cron job and begins running it.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("Quote refresh scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts the cron loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Quote refresh scheduler stopped")
}

func (s *Scheduler) run() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("Skipping quote refresh, previous run still in progress")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.lastRun = time.Now()
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	userIDs, err := s.users.ListIDs(ctx)
	if err != nil {
		s.logger.Error("Quote refresh failed to list users", zap.Error(err))
		metrics.QuoteRefreshTotal.WithLabelValues("error").Inc()
		return
	}

	var refreshed, failed int
	for _, userID := range userIDs {
		if err := s.refreshUser(ctx, userID); err != nil {
			s.logger.Warn("Quote refresh failed for user",
				zap.String("user_id", userID.String()), zap.Error(err))
			failed++
			continue
		}
		refreshed++
	}

	status := "success"
	if failed > 0 {
		status = "partial"
	}
	metrics.QuoteRefreshTotal.WithLabelValues(status).Inc()
	s.logger.Info("Quote refresh completed",
		zap.Int("users_refreshed", refreshed), zap.Int("users_failed", failed))
}

func (s *Scheduler) refreshUser(ctx context.Context, userID uuid.UUID) error {
	symbols, err := s.lots.Symbols(ctx, userID)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		return nil
	}

	prices, err := s.fetcher.Fetch(ctx, symbols)
	if err != nil {
		return err
	}
	if len(prices) == 0 {
		return nil
	}
	return s.quotes.Upsert(ctx, userID, prices)
}
