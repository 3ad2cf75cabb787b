// Package fetch downloads subscription bodies.
package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"chiaotu/internal/config"
	"chiaotu/internal/domain"
)

// Download is one fetched subscription body and the name it should be
// cached under.
type Download struct {
	URL  string
	Name string
	Body []byte
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.URL, e.StatusCode)
}

var (
	ErrTooLarge      = errors.New("response body too large")
	errInvalidScheme = errors.New("only http and https URLs are supported")
)

type Fetcher struct {
	client      *http.Client
	limiter     *rate.Limiter
	userAgent   string
	maxBytes    int64
	concurrency int
	logger      *zap.Logger
	metrics     domain.MetricsCollector
}

func NewFetcher(cfg *config.Config, logger *zap.Logger, metrics domain.MetricsCollector) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Fetch.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	limit := rate.Inf
	if cfg.Fetch.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.Fetch.RequestsPerSecond)
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:   time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
			Transport: transport,
		},
		limiter:     rate.NewLimiter(limit, 1),
		userAgent:   cfg.Fetch.UserAgent,
		maxBytes:    cfg.Fetch.MaxBytes,
		concurrency: cfg.Fetch.Concurrency,
		logger:      logger.With(zap.String("component", "fetch")),
		metrics:     metrics,
	}
}

// Client is the HTTP client used for downloads.
func (f *Fetcher) Client() *http.Client {
	return f.client
}

// Fetch downloads one subscription.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Download, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Download{}, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Download{}, fmt.Errorf("%q: %w", rawURL, errInvalidScheme)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return Download{}, err
	}

	start := time.Now()
	dl, err := f.get(ctx, u)
	status := "ok"
	if err != nil {
		status = "error"
	}
	f.metrics.RecordFetch(u.Host, status, time.Since(start))
	return dl, err
}

func (f *Fetcher) get(ctx context.Context, u *url.URL) (Download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Download{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Download{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Download{}, &StatusError{URL: u.String(), StatusCode: resp.StatusCode}
	}

	// Read one byte past the limit to tell a full body from a cut one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Download{}, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return Download{}, fmt.Errorf("%s: %w (limit %d bytes)", u, ErrTooLarge, f.maxBytes)
	}

	return Download{
		URL:  u.String(),
		Name: Filename(resp.Header.Get("Content-Disposition"), u),
		Body: body,
	}, nil
}

// FetchAll downloads urls in parallel and hands every successful download to
// save. A failing URL does not cancel the others; all failures are returned
// together.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string, save func(Download) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(f.concurrency, 1))

	var (
		mu   sync.Mutex
		errs error
	)
	record := func(err error) {
		mu.Lock()
		errs = multierr.Append(errs, err)
		mu.Unlock()
	}

	for _, rawURL := range urls {
		g.Go(func() error {
			dl, err := f.Fetch(ctx, rawURL)
			if err != nil {
				f.logger.Error("subscription download failed",
					zap.String("url", rawURL),
					zap.Error(err))
				record(err)
				return nil
			}
			if err := save(dl); err != nil {
				record(fmt.Errorf("%s: %w", rawURL, err))
				return nil
			}
			f.logger.Info("subscription downloaded",
				zap.String("url", rawURL),
				zap.String("name", dl.Name),
				zap.Int("bytes", len(dl.Body)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		record(err)
	}
	return errs
}
