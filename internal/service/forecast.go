package service

import (
	"context"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/everdeen7336/airport-live/internal/cache"
	"github.com/everdeen7336/airport-live/internal/clock"
	"github.com/everdeen7336/airport-live/internal/domain"
)

type forecastScraper interface {
	Scrape(ctx context.Context, terminal domain.Terminal, date string) (domain.CongestionForecast, error)
}

// DateRe validates the YYYYMMDD date parameter.
var DateRe = regexp.MustCompile(`^\d{8}$`)

// ForecastService owns forecast cache keys and write timing.
type ForecastService struct {
	scraper forecastScraper
	cache   *cache.Cache[domain.CongestionForecast]
	ttl     time.Duration
	clk     clock.Clock
	log     *zap.Logger
}

// NewForecastService builds a ForecastService.
func NewForecastService(scraper forecastScraper, c *cache.Cache[domain.CongestionForecast], ttl time.Duration, clk clock.Clock, log *zap.Logger) *ForecastService {
	return &ForecastService{scraper: scraper, cache: c, ttl: ttl, clk: clk, log: log}
}

func forecastKey(t domain.Terminal, date string) string {
	return "forecast:" + t.Code() + ":" + date
}

// Get serves a terminal's passenger forecast for date (YYYYMMDD; empty means
// today in the site's local calendar) via the three-tier read policy.
func (s *ForecastService) Get(ctx context.Context, terminal domain.Terminal, date string, refresh bool) Envelope[domain.CongestionForecast] {
	if date == "" {
		date = s.clk.Now().Format("20060102")
	}
	if !DateRe.MatchString(date) {
		return Failure[domain.CongestionForecast](CodeInvalidDate, "date must be YYYYMMDD", s.clk.Now())
	}
	return readThrough(ctx, readParams[domain.CongestionForecast]{
		domain:  "forecast",
		key:     forecastKey(terminal, date),
		refresh: refresh,
		cache:   s.cache,
		ttl:     s.ttl,
		clk:     s.clk,
		log:     s.log,
		scrape: func(ctx context.Context) (domain.CongestionForecast, error) {
			return s.scraper.Scrape(ctx, terminal, date)
		},
	})
}

// Invalidate drops every cached forecast, all dates included.
func (s *ForecastService) Invalidate() {
	s.cache.InvalidateByPrefix("forecast:")
}
