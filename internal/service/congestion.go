package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/everdeen7336/airport-live/internal/cache"
	"github.com/everdeen7336/airport-live/internal/clock"
	"github.com/everdeen7336/airport-live/internal/domain"
)

type congestionScraper interface {
	Scrape(ctx context.Context, terminal domain.Terminal) (domain.TerminalCongestion, error)
}

// CongestionService owns congestion cache keys and write timing.
type CongestionService struct {
	scraper congestionScraper
	cache   *cache.Cache[domain.TerminalCongestion]
	ttl     time.Duration
	clk     clock.Clock
	log     *zap.Logger
}

// NewCongestionService builds a CongestionService.
func NewCongestionService(scraper congestionScraper, c *cache.Cache[domain.TerminalCongestion], ttl time.Duration, clk clock.Clock, log *zap.Logger) *CongestionService {
	return &CongestionService{scraper: scraper, cache: c, ttl: ttl, clk: clk, log: log}
}

func congestionKey(t domain.Terminal) string {
	return "congestion:" + t.Code()
}

// Get serves a terminal's congestion snapshot via the three-tier read policy.
func (s *CongestionService) Get(ctx context.Context, terminal domain.Terminal, refresh bool) Envelope[domain.TerminalCongestion] {
	return readThrough(ctx, readParams[domain.TerminalCongestion]{
		domain:  "congestion",
		key:     congestionKey(terminal),
		refresh: refresh,
		cache:   s.cache,
		ttl:     s.ttl,
		clk:     s.clk,
		log:     s.log,
		scrape: func(ctx context.Context) (domain.TerminalCongestion, error) {
			return s.scraper.Scrape(ctx, terminal)
		},
	})
}

// Invalidate drops every cached congestion snapshot.
func (s *CongestionService) Invalidate() {
	s.cache.InvalidateByPrefix("congestion:")
}
