// Package fetch implements the retrying HTTP client used for PRISM
// listing pages.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/climate-tools/prism-catalog-builder/internal/metrics"
)

// Config controls collector behavior.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration
}

// HTTPStatusError reports a response outside the 2xx range.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// pauseController abstracts how the client waits between retries.
type pauseController interface {
	Pause(ctx context.Context, delay time.Duration)
}

type timerPauseController struct{}

func (p *timerPauseController) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Client fetches listing pages using the Colly collector, with bounded
// retries and exponential backoff. Every HTTP request the builder issues
// funnels through it.
type Client struct {
	cfg           Config
	backoff       Backoff
	transport     http.RoundTripper
	baseCollector *colly.Collector
	pause         pauseController
	logger        *zap.Logger
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 1500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()

	c := colly.NewCollector(colly.Async(false))
	// Error pages must reach OnResponse so status handling stays in one
	// place; colly would otherwise route anything above 202 to OnError.
	c.ParseHTTPErrorResponse = true
	c.AllowURLRevisit = true

	transport := newHTTPTransport()
	c.WithTransport(transport)

	return &Client{
		cfg:           cfg,
		backoff:       Backoff{Base: cfg.BackoffBase},
		transport:     transport,
		baseCollector: c,
		pause:         &timerPauseController{},
		logger:        logger,
	}
}

// Get fetches url, retrying failed attempts with exponential backoff.
// Once every attempt has failed it logs a warning and returns the last
// error; callers treat that as an empty listing and move on.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		body, err := c.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil || attempt == c.cfg.MaxAttempts {
			break
		}
		delay := c.backoff.Delay(attempt)
		c.logger.Debug("Retrying fetch",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		metrics.ObserveRetry()
		c.pause.Pause(ctx, delay)
		if ctx.Err() != nil {
			break
		}
	}
	metrics.ObserveExhausted()
	c.logger.Warn("Fetch failed after retries", zap.String("url", url), zap.Error(lastErr))
	return nil, lastErr
}

// fetchOnce executes a single HTTP GET using a fresh collector clone.
func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	var (
		body     []byte
		fetchErr error
	)
	start := time.Now()
	collector := c.buildCollector(&body, &fetchErr, url)
	err := c.runCollector(ctx, collector, url, &fetchErr)
	c.observe(url, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) buildCollector(body *[]byte, fetchErr *error, url string) *colly.Collector {
	collector := c.baseCollector.Clone()
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.SetRequestTimeout(c.cfg.Timeout)
	collector.WithTransport(c.transport)
	c.configureCollectorHooks(collector, body, fetchErr, url)
	return collector
}

func (c *Client) configureCollectorHooks(hooks collectorHooks, body *[]byte, fetchErr *error, url string) {
	hooks.OnResponse(func(r *colly.Response) {
		if r.StatusCode < 200 || r.StatusCode >= 300 {
			*fetchErr = &HTTPStatusError{URL: url, StatusCode: r.StatusCode}
			return
		}
		*body = append([]byte(nil), r.Body...)
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		*fetchErr = err
	})
}

func (c *Client) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("fetch canceled: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("fetch failed: %w", *fetchErr)
		}
		return nil
	}
}

func (c *Client) observe(url string, err error, elapsed time.Duration) {
	result := "ok"
	var statusErr *HTTPStatusError
	switch {
	case err == nil:
	case errors.As(err, &statusErr):
		result = "http_error"
	default:
		result = "error"
	}
	metrics.ObserveFetch(url, result, elapsed)
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		// The whole crawl hits a single origin, so the per-host pool is
		// what actually matters.
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
	}
}
