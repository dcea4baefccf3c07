package yahoo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"ETFAdvisor/internal/domain/models"
	"ETFAdvisor/internal/domain/repository"
	pkghttp "ETFAdvisor/pkg/http"
	"ETFAdvisor/pkg/logger"
)

var (
	// ErrNoData is returned when the provider has no rows for a symbol.
	ErrNoData = errors.New("yahoo: no data")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("yahoo: temporarily unavailable")
)

// DefaultHosts are the chart API hosts tried in order.
var DefaultHosts = []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"}

// Option configures Client.
type Option func(*Client)

// WithHosts sets the hosts to rotate across.
func WithHosts(hosts ...string) Option {
	return func(c *Client) {
		if len(hosts) > 0 {
			c.hosts = hosts
		}
	}
}

// WithRateLimit sets the outbound request budget.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			if burst <= 0 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithRetries sets how many extra rounds over the hosts are made and the base backoff.
func WithRetries(retries int, backoff time.Duration) Option {
	return func(c *Client) {
		c.retries = retries
		c.backoff = backoff
	}
}

// WithBreaker configures the circuit breaker.
func WithBreaker(maxRequests, failures uint32, interval, timeout time.Duration) Option {
	return func(c *Client) {
		c.breakerSettings.MaxRequests = maxRequests
		c.breakerSettings.Interval = interval
		c.breakerSettings.Timeout = timeout
		c.failures = failures
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *pkghttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// Client fetches daily bars from the Yahoo chart API. It rotates across
// hosts, backs off between rounds, respects a token bucket and stops
// calling out while its circuit breaker is open.
type Client struct {
	http            *pkghttp.Client
	hosts           []string
	limiter         *rate.Limiter
	retries         int
	backoff         time.Duration
	failures        uint32
	breakerSettings gobreaker.Settings
	breaker         *gobreaker.CircuitBreaker
	log             *logger.Logger
}

var _ repository.MarketDataSource = (*Client)(nil)

// New creates a Yahoo chart client.
func New(log *logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.Nop()
	}
	c := &Client{
		hosts:    DefaultHosts,
		limiter:  rate.NewLimiter(rate.Limit(2), 4),
		retries:  2,
		backoff:  300 * time.Millisecond,
		failures: 5,
		breakerSettings: gobreaker.Settings{
			Name:        "yahoo",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
		},
		log: log.With(logger.String("component", "yahoo")),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = pkghttp.NewClient(pkghttp.WithTimeout(10 * time.Second))
	}

	failures := c.failures
	c.breakerSettings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= failures
	}
	// a symbol without data says nothing about the provider's health
	c.breakerSettings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrNoData) || errors.Is(err, context.Canceled)
	}
	c.breakerSettings.OnStateChange = func(name string, from, to gobreaker.State) {
		c.log.Warn("circuit breaker state change",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()))
	}
	c.breaker = gobreaker.NewCircuitBreaker(c.breakerSettings)
	return c
}

// FetchSeries returns the daily bars of symbol, oldest first. Rows without
// a close are dropped.
func (c *Client) FetchSeries(ctx context.Context, symbol string, rng repository.HistoryRange) (models.PriceSeries, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.PriceSeries{}, fmt.Errorf("rate limit wait: %w", err)
	}
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchRotating(ctx, symbol, rng)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return models.PriceSeries{}, fmt.Errorf("%s: %w", symbol, ErrUnavailable)
		}
		return models.PriceSeries{}, err
	}
	return res.(models.PriceSeries), nil
}

func (c *Client) fetchRotating(ctx context.Context, symbol string, rng repository.HistoryRange) (models.PriceSeries, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return models.PriceSeries{}, ctx.Err()
			}
		}
		for _, host := range c.hosts {
			series, err := c.fetchOnce(ctx, host, symbol, rng)
			if err == nil {
				return series, nil
			}
			lastErr = err
			if !retryable(err) {
				return models.PriceSeries{}, err
			}
			c.log.Debug("yahoo fetch failed, rotating host",
				logger.String("host", host),
				logger.String("symbol", symbol),
				logger.Int("attempt", attempt),
				logger.Error(err))
		}
	}
	return models.PriceSeries{}, fmt.Errorf("fetch %s: %w", symbol, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, host, symbol string, rng repository.HistoryRange) (models.PriceSeries, error) {
	var resp chartResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    strings.TrimRight(host, "/") + "/v8/finance/chart/" + url.PathEscape(symbol),
		QueryParams: map[string][]string{
			"range":    {string(rng)},
			"interval": {"1d"},
			"events":   {"div,splits"},
		},
	}, &resp)
	if err != nil {
		var se *pkghttp.StatusError
		if errors.As(err, &se) && se.Code == 404 {
			return models.PriceSeries{}, fmt.Errorf("%s: %w", symbol, ErrNoData)
		}
		return models.PriceSeries{}, err
	}
	return resp.series(symbol)
}

// retryable reports whether another host or round may succeed.
func retryable(err error) bool {
	if errors.Is(err, ErrNoData) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *pkghttp.StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Timezone string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (r chartResponse) series(symbol string) (models.PriceSeries, error) {
	if r.Chart.Error != nil {
		return models.PriceSeries{}, fmt.Errorf("%s: %s: %w", symbol, r.Chart.Error.Description, ErrNoData)
	}
	if len(r.Chart.Result) == 0 || len(r.Chart.Result[0].Indicators.Quote) == 0 {
		return models.PriceSeries{}, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	res := r.Chart.Result[0]
	quote := res.Indicators.Quote[0]

	out := models.PriceSeries{Symbol: symbol, Bars: make([]models.PriceBar, 0, len(res.Timestamp))}
	for i, ts := range res.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		closePx := *quote.Close[i]
		if math.IsNaN(closePx) || closePx <= 0 {
			continue
		}
		bar := models.PriceBar{Symbol: symbol, Time: time.Unix(ts, 0).UTC(), Close: closePx}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		out.Bars = append(out.Bars, bar)
	}
	if len(out.Bars) == 0 {
		return models.PriceSeries{}, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	return out, nil
}
