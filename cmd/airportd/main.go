// Package main wires together the airport live-data service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/everdeen7336/airport-live/internal/api"
	"github.com/everdeen7336/airport-live/internal/cache"
	"github.com/everdeen7336/airport-live/internal/clock"
	"github.com/everdeen7336/airport-live/internal/config"
	"github.com/everdeen7336/airport-live/internal/domain"
	"github.com/everdeen7336/airport-live/internal/fetch"
	"github.com/everdeen7336/airport-live/internal/history"
	"github.com/everdeen7336/airport-live/internal/logging"
	"github.com/everdeen7336/airport-live/internal/metrics"
	"github.com/everdeen7336/airport-live/internal/scheduler"
	"github.com/everdeen7336/airport-live/internal/scraper"
	"github.com/everdeen7336/airport-live/internal/service"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()
	clk := clock.NewSystem()

	var recorder history.Recorder = history.NoOpRecorder{}
	if cfg.History.DSN != "" {
		pg, err := history.NewPostgresRecorder(ctx, cfg.History.DSN)
		if err != nil {
			logger.Warn("history journal unavailable, continuing without it", zap.Error(err))
		} else {
			recorder = pg
		}
	}
	defer recorder.Close()

	client := fetch.NewClient(cfg.Upstream, logging.Component(logger, "fetch"))

	parkingCache := cache.New[domain.ParkingInfo](clk)
	congestionCache := cache.New[domain.TerminalCongestion](clk)
	forecastCache := cache.New[domain.CongestionForecast](clk)

	parkingSvc := service.NewParkingService(
		scraper.NewParkingScraper(client, clk, logging.Component(logger, "parking")),
		parkingCache, cfg.Cache.ParkingTTL(), clk, logging.Component(logger, "parking"),
	)
	congestionSvc := service.NewCongestionService(
		scraper.NewCongestionScraper(client, clk, logging.Component(logger, "congestion")),
		congestionCache, cfg.Cache.CongestionTTL(), clk, logging.Component(logger, "congestion"),
	)
	forecastSvc := service.NewForecastService(
		scraper.NewForecastScraper(client, cfg.Upstream.ForecastURL, clk, logging.Component(logger, "forecast")),
		forecastCache, cfg.Cache.ForecastTTL(), clk, logging.Component(logger, "forecast"),
	)
	dashboardSvc := service.NewDashboardService(parkingSvc, congestionSvc, clk, logging.Component(logger, "dashboard"))

	sched := scheduler.New(parkingSvc, congestionSvc, cfg.Scheduler, clk, recorder, logging.Component(logger, "scheduler"))
	sched.Start()
	defer sched.Stop()

	server := api.NewServer(parkingSvc, congestionSvc, forecastSvc, dashboardSvc, logging.Component(logger, "api"))
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.Server.Port))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
}
