// Package fetch implements the retrying HTTP client the scrapers share. It
// wraps two Colly collectors, one for page fetches and one for the AJAX and
// form endpoints, each with its timeout fixed at construction. Clones share
// the base collector's HTTP backend, so the timeout must never be set again
// after NewClient. Requests get fixed headers, linear backoff between
// attempts, and a host-level rate limit so the peak-hour cadence stays
// polite to the upstream site.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/everdeen7336/airport-live/internal/config"
)

// Client issues page and API requests against the configured upstream.
type Client struct {
	cfg     config.UpstreamConfig
	page    *colly.Collector
	api     *colly.Collector
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewClient builds a Client from upstream config.
func NewClient(cfg config.UpstreamConfig, log *zap.Logger) *Client {
	rps := rate.Limit(cfg.RateLimitRPS)
	if cfg.RateLimitRPS <= 0 {
		rps = rate.Inf
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		cfg:     cfg,
		page:    newCollector(cfg, cfg.PageTimeout()),
		api:     newCollector(cfg, cfg.APITimeout()),
		limiter: rate.NewLimiter(rps, burst),
		log:     log,
	}
}

// newCollector is the only place a collector's timeout is set. The backend
// is shared with every clone, so mutating it per request races.
func newCollector(cfg config.UpstreamConfig, timeout time.Duration) *colly.Collector {
	c := colly.NewCollector(colly.Async(false))
	c.UserAgent = cfg.UserAgent
	c.IgnoreRobotsTxt = true
	// The same endpoints are fetched over and over by design.
	c.AllowURLRevisit = true
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c.SetRequestTimeout(timeout)
	return c
}

// Page fetches an HTML page relative to the base URL and parses it.
func (c *Client) Page(ctx context.Context, source, path string) (*goquery.Document, error) {
	body, err := c.do(ctx, source, c.page, func(col *colly.Collector) error {
		return col.Visit(c.cfg.BaseURL + path)
	})
	if err != nil {
		return nil, err
	}
	return parseDocument(source, body)
}

// JSON fetches an AJAX endpoint relative to the base URL and decodes the
// payload into into.
func (c *Client) JSON(ctx context.Context, source, path string, into any) error {
	body, err := c.do(ctx, source, c.api, func(col *colly.Collector) error {
		return col.Visit(c.cfg.BaseURL + path)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, into); err != nil {
		return &ScraperError{Source: source, Message: "decode JSON payload", Err: err}
	}
	return nil
}

// PostForm issues a form-encoded POST against an absolute URL and parses the
// returned HTML. The forecast upstream is the only POST consumer.
func (c *Client) PostForm(ctx context.Context, source, url string, form map[string]string) (*goquery.Document, error) {
	body, err := c.do(ctx, source, c.api, func(col *colly.Collector) error {
		return col.Post(url, form)
	})
	if err != nil {
		return nil, err
	}
	return parseDocument(source, body)
}

// do runs one request with up to RetryCount attempts and linear backoff
// RetryDelay*attempt between them. Colly requests are not cancellable
// mid-flight; the context is honored between attempts and bounds the backoff
// sleeps.
func (c *Client) do(ctx context.Context, source string, base *colly.Collector, visit func(*colly.Collector) error) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.RetryCount; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &ScraperError{Source: source, Message: "fetch canceled", Err: err}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &ScraperError{Source: source, Message: "fetch canceled", Err: err}
		}

		body, err := runAttempt(base, visit)
		if err == nil {
			return body, nil
		}
		lastErr = err
		c.log.Warn("fetch attempt failed",
			zap.String("source", source),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.cfg.RetryCount),
			zap.Error(err),
		)
		if attempt < c.cfg.RetryCount {
			if err := sleep(ctx, c.cfg.RetryDelay()*time.Duration(attempt)); err != nil {
				return nil, &ScraperError{Source: source, Message: "fetch canceled", Err: err}
			}
		}
	}
	return nil, &ScraperError{
		Source:  source,
		Message: fmt.Sprintf("fetch failed after %d attempts", c.cfg.RetryCount),
		Err:     lastErr,
	}
}

func runAttempt(base *colly.Collector, visit func(*colly.Collector) error) ([]byte, error) {
	col := base.Clone()

	col.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.5")
		r.Headers.Set("Connection", "keep-alive")
	})

	var (
		body     []byte
		hookErr  error
		received bool
	)
	col.OnResponse(func(r *colly.Response) {
		body = r.Body
		received = true
	})
	col.OnError(func(_ *colly.Response, err error) {
		hookErr = err
	})

	if err := visit(col); err != nil {
		return nil, err
	}
	col.Wait()
	if hookErr != nil {
		return nil, hookErr
	}
	if !received {
		return nil, fmt.Errorf("no response received")
	}
	return body, nil
}

func parseDocument(source string, body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ScraperError{Source: source, Message: "parse HTML document", Err: err}
	}
	return doc, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
