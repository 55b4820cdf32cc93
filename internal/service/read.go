package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/everdeen7336/airport-live/internal/cache"
	"github.com/everdeen7336/airport-live/internal/clock"
	"github.com/everdeen7336/airport-live/internal/metrics"
)

// readParams configures one read-through pass for a domain.
type readParams[T any] struct {
	domain  string
	key     string
	refresh bool
	cache   *cache.Cache[T]
	ttl     time.Duration
	clk     clock.Clock
	log     *zap.Logger
	scrape  func(ctx context.Context) (T, error)
	// store overrides the default cache write (used for last-write-wins
	// timestamp comparison); nil means a plain Set.
	store func(T)
}

// readThrough is the shared three-tier read policy: fresh cache entry unless
// a refresh is forced, then scrape-and-store, then stale fallback tagged
// STALE_DATA, then a structured failure. It never returns an error.
func readThrough[T any](ctx context.Context, p readParams[T]) Envelope[T] {
	if !p.refresh {
		if entry, ok := p.cache.GetFresh(p.key); ok {
			metrics.ObserveCacheRead(p.domain, "hit")
			ts := entry.Timestamp
			data := entry.Data
			return Envelope[T]{Success: true, Data: &data, CachedAt: &ts, Timestamp: p.clk.Now()}
		}
		metrics.ObserveCacheRead(p.domain, "miss")
	}

	v, err := p.scrape(ctx)
	if err == nil {
		if p.store != nil {
			p.store(v)
		} else {
			p.cache.Set(p.key, v, p.ttl)
		}
		return Envelope[T]{Success: true, Data: &v, Timestamp: p.clk.Now()}
	}

	p.log.Error("scrape failed",
		zap.String("domain", p.domain),
		zap.String("key", p.key),
		zap.Error(err),
	)

	if entry, ok := p.cache.GetWithMeta(p.key); ok {
		metrics.ObserveCacheRead(p.domain, "stale")
		ts := entry.Timestamp
		data := entry.Data
		return Envelope[T]{
			Success:   true,
			Data:      &data,
			CachedAt:  &ts,
			Error:     &ErrorInfo{Code: CodeStaleData, Message: "serving stale data: " + err.Error()},
			Timestamp: p.clk.Now(),
		}
	}

	return Failure[T](CodeScrapeFailed, err.Error(), p.clk.Now())
}
