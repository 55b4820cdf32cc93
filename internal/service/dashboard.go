package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/everdeen7336/airport-live/internal/clock"
	"github.com/everdeen7336/airport-live/internal/domain"
)

// DashboardData is the combined congestion+parking view. A half that failed
// is simply absent.
type DashboardData struct {
	Congestion *domain.TerminalCongestion `json:"congestion,omitempty"`
	Parking    *domain.ParkingInfo        `json:"parking,omitempty"`
}

// DashboardService composes the parking and congestion reads.
type DashboardService struct {
	parking    *ParkingService
	congestion *CongestionService
	clk        clock.Clock
	log        *zap.Logger
}

// NewDashboardService builds a DashboardService.
func NewDashboardService(parking *ParkingService, congestion *CongestionService, clk clock.Clock, log *zap.Logger) *DashboardService {
	return &DashboardService{parking: parking, congestion: congestion, clk: clk, log: log}
}

// Get runs both halves concurrently and tolerates partial success: if one
// half fails the envelope is success=false but still carries the half that
// succeeded, with a combined message naming each failing sub-fetch. A stale
// half counts as present.
func (s *DashboardService) Get(ctx context.Context, terminal domain.Terminal, refresh bool) Envelope[DashboardData] {
	var (
		wg      sync.WaitGroup
		parkEnv Envelope[domain.ParkingInfo]
		congEnv Envelope[domain.TerminalCongestion]
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		parkEnv = s.parking.Get(ctx, terminal, refresh)
	}()
	go func() {
		defer wg.Done()
		congEnv = s.congestion.Get(ctx, terminal, refresh)
	}()
	wg.Wait()

	data := DashboardData{}
	var failures []string
	if parkEnv.Success {
		data.Parking = parkEnv.Data
	} else if parkEnv.Error != nil {
		failures = append(failures, "parking: "+parkEnv.Error.Message)
	}
	if congEnv.Success {
		data.Congestion = congEnv.Data
	} else if congEnv.Error != nil {
		failures = append(failures, "congestion: "+congEnv.Error.Message)
	}

	env := Envelope[DashboardData]{
		Success:   len(failures) == 0,
		Data:      &data,
		Timestamp: s.clk.Now(),
	}
	if len(failures) > 0 {
		env.Error = &ErrorInfo{
			Code:    CodePartialFailure,
			Message: strings.Join(failures, "; "),
		}
	}
	return env
}
