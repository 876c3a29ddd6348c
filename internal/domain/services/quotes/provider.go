package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/taxfolio/taxfolio/pkg/metrics"
)

// Provider fetches latest prices from an external HTTP endpoint. Calls go
// through a circuit breaker so a flapping provider degrades to stale quotes
// instead of stalling every refresh.
type Provider struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewProvider creates a quote provider for the given endpoint. The endpoint
// is expected to answer GET <baseURL>?symbols=AAPL,MSFT with a JSON object
// mapping symbol to price.
func NewProvider(baseURL string, timeout time.Duration, logger *zap.Logger) *Provider {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "quote-provider",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Quote provider circuit state changed",
				zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	return &Provider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
		logger:  logger,
	}
}

// Fetch returns the provider's latest prices for the given symbols. Symbols
// the provider does not know are absent from the result.
func (p *Provider) Fetch(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	if len(symbols) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	start := time.Now()
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetch(ctx, symbols)
	})
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.QuoteProviderCallDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("quote provider call failed: %w", err)
	}
	return result.(map[string]decimal.Decimal), nil
}

func (p *Provider) fetch(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid provider URL: %w", err)
	}
	q := u.Query()
	q.Set("symbols", strings.Join(symbols, ","))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var raw map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}

	prices := make(map[string]decimal.Decimal, len(raw))
	for sym, val := range raw {
		price, err := decimal.NewFromString(val)
		if err != nil || !price.IsPositive() {
			p.logger.Warn("Provider returned unusable price",
				zap.String("symbol", sym), zap.String("value", val))
			continue
		}
		prices[strings.ToUpper(sym)] = price
	}
	return prices, nil
}
