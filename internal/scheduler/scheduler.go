// Package scheduler drives the recurring scrapes: a base parking cadence, a
// faster parking cadence inside peak windows, and a congestion cadence, plus
// a one-shot backfill at startup so caches are never empty after boot.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/everdeen7336/airport-live/internal/clock"
	"github.com/everdeen7336/airport-live/internal/config"
	"github.com/everdeen7336/airport-live/internal/domain"
	"github.com/everdeen7336/airport-live/internal/history"
	"github.com/everdeen7336/airport-live/internal/metrics"
	"github.com/everdeen7336/airport-live/internal/service"
)

// Scheduler owns the recurring triggers. It retains no state beyond the
// running flag; results live in the services' caches.
type Scheduler struct {
	parking    *service.ParkingService
	congestion *service.CongestionService
	cfg        config.SchedulerConfig
	clk        clock.Clock
	recorder   history.Recorder
	log        *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a Scheduler.
func New(parking *service.ParkingService, congestion *service.CongestionService, cfg config.SchedulerConfig, clk clock.Clock, recorder history.Recorder, log *zap.Logger) *Scheduler {
	return &Scheduler{
		parking:    parking,
		congestion: congestion,
		cfg:        cfg,
		clk:        clk,
		recorder:   recorder,
		log:        log,
	}
}

// Start launches the backfill and the recurring triggers. A second Start
// while running is ignored.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.log.Warn("scheduler already running, ignoring start")
		return
	}
	s.running = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	// Backfill both domains concurrently before the tickers take over.
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.scrapeParking(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.scrapeCongestion(ctx)
	}()

	s.runJob(ctx, "parking-base", s.cfg.ParkingInterval(), s.scrapeParking)
	s.runJob(ctx, "parking-peak", s.cfg.PeakInterval(), func(ctx context.Context) {
		if !domain.IsPeakHours(s.clk.Now()) {
			return
		}
		s.scrapeParking(ctx)
	})
	s.runJob(ctx, "congestion", s.cfg.CongestionInterval(), s.scrapeCongestion)

	s.log.Info("scheduler started",
		zap.Duration("parking_interval", s.cfg.ParkingInterval()),
		zap.Duration("peak_interval", s.cfg.PeakInterval()),
		zap.Duration("congestion_interval", s.cfg.CongestionInterval()),
	)
}

// Stop cancels pending ticks and waits for in-flight scrapes to finish.
// Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// Running reports whether the scheduler is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// runJob ticks fn at interval until the context is cancelled. An in-flight
// guard skips a tick while the previous run of the same job is still going,
// so a slow upstream cannot stack unbounded overlapping scrapes.
func (s *Scheduler) runJob(ctx context.Context, name string, interval time.Duration, fn func(context.Context)) {
	var inFlight atomic.Bool
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !inFlight.CompareAndSwap(false, true) {
					s.log.Warn("skipping tick, previous run still in flight", zap.String("job", name))
					continue
				}
				s.wg.Add(1)
				go func() {
					defer s.wg.Done()
					defer inFlight.Store(false)
					fn(ctx)
				}()
			}
		}
	}()
}

// scrapeParking refreshes parking for every terminal concurrently. One
// terminal's failure never blocks or aborts a sibling's scrape.
func (s *Scheduler) scrapeParking(ctx context.Context) {
	s.forEachTerminal(ctx, "parking", func(ctx context.Context, t domain.Terminal) bool {
		env := s.parking.Get(ctx, t, true)
		// A stale fallback reports success to callers; for scheduling
		// purposes only a real fresh scrape counts.
		return env.Success && env.Error == nil
	})
}

func (s *Scheduler) scrapeCongestion(ctx context.Context) {
	s.forEachTerminal(ctx, "congestion", func(ctx context.Context, t domain.Terminal) bool {
		env := s.congestion.Get(ctx, t, true)
		return env.Success && env.Error == nil
	})
}

func (s *Scheduler) forEachTerminal(ctx context.Context, domainName string, scrape func(context.Context, domain.Terminal) bool) {
	var wg sync.WaitGroup
	for _, t := range domain.AllTerminals {
		wg.Add(1)
		go func(t domain.Terminal) {
			defer wg.Done()
			start := s.clk.Now()
			ok := scrape(ctx, t)
			elapsed := s.clk.Now().Sub(start)

			outcome := "success"
			errText := ""
			if !ok {
				outcome = "failure"
				errText = "scrape failed"
				s.log.Warn("scheduled scrape failed",
					zap.String("domain", domainName),
					zap.String("terminal", t.Code()),
				)
			}
			metrics.ObserveScrape(domainName, t.Code(), outcome, elapsed)
			if err := s.recorder.Record(ctx, history.ScrapeRecord{
				Domain:   domainName,
				Terminal: t.Code(),
				Success:  ok,
				Duration: elapsed,
				Error:    errText,
				At:       start,
			}); err != nil {
				s.log.Warn("history record failed", zap.Error(err))
			}
		}(t)
	}
	wg.Wait()
}
