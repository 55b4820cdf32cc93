package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/everdeen7336/airport-live/internal/cache"
	"github.com/everdeen7336/airport-live/internal/clock"
	"github.com/everdeen7336/airport-live/internal/domain"
)

type parkingScraper interface {
	Scrape(ctx context.Context, terminal domain.Terminal) (domain.ParkingInfo, error)
}

// ParkingService owns parking cache keys and write timing.
type ParkingService struct {
	scraper parkingScraper
	cache   *cache.Cache[domain.ParkingInfo]
	ttl     time.Duration
	clk     clock.Clock
	log     *zap.Logger
}

// NewParkingService builds a ParkingService.
func NewParkingService(scraper parkingScraper, c *cache.Cache[domain.ParkingInfo], ttl time.Duration, clk clock.Clock, log *zap.Logger) *ParkingService {
	return &ParkingService{scraper: scraper, cache: c, ttl: ttl, clk: clk, log: log}
}

func parkingKey(t domain.Terminal) string {
	return "parking:" + t.Code()
}

// Get serves a terminal's parking snapshot via the three-tier read policy.
func (s *ParkingService) Get(ctx context.Context, terminal domain.Terminal, refresh bool) Envelope[domain.ParkingInfo] {
	return readThrough(ctx, readParams[domain.ParkingInfo]{
		domain:  "parking",
		key:     parkingKey(terminal),
		refresh: refresh,
		cache:   s.cache,
		ttl:     s.ttl,
		clk:     s.clk,
		log:     s.log,
		scrape: func(ctx context.Context) (domain.ParkingInfo, error) {
			return s.scraper.Scrape(ctx, terminal)
		},
		store: func(v domain.ParkingInfo) { s.store(terminal, v) },
	})
}

// store writes a scrape result with last-write-wins by record timestamp. The
// base and peak triggers can both scrape the same terminal within seconds;
// the cache compares scrape timestamps under its own lock so the winner is
// explicit instead of a race.
func (s *ParkingService) store(terminal domain.Terminal, v domain.ParkingInfo) {
	if !s.cache.SetIfNewer(parkingKey(terminal), v, s.ttl, v.Timestamp) {
		s.log.Debug("dropping parking write older than cached record",
			zap.String("terminal", terminal.Code()))
	}
}

// Invalidate drops every cached parking snapshot.
func (s *ParkingService) Invalidate() {
	s.cache.InvalidateByPrefix("parking:")
}
