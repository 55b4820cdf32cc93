package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/everdeen7336/airport-live/internal/domain"
	"github.com/everdeen7336/airport-live/internal/service"
)

// terminalParam validates the path's terminal code. Invalid codes are
// rejected here, before any scrape is attempted.
func (s *Server) terminalParam(w http.ResponseWriter, r *http.Request) (domain.Terminal, bool) {
	t, err := domain.ParseTerminal(chi.URLParam(r, "terminal"))
	if err != nil {
		env := service.Failure[struct{}](service.CodeInvalidTerminal, err.Error(), time.Now())
		writeJSON(w, http.StatusBadRequest, env)
		return "", false
	}
	return t, true
}

func refreshParam(r *http.Request) bool {
	v := r.URL.Query().Get("refresh")
	return v == "true" || v == "1"
}

// envelopeStatus maps an envelope to its HTTP status. Stale-data successes
// stay 200; only total failures read as an upstream error.
func envelopeStatus[T any](env service.Envelope[T]) int {
	if env.Success {
		return http.StatusOK
	}
	if env.Error != nil && (env.Error.Code == service.CodeInvalidTerminal || env.Error.Code == service.CodeInvalidDate) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func writeEnvelope[T any](w http.ResponseWriter, env service.Envelope[T]) {
	writeJSON(w, envelopeStatus(env), env)
}

// project maps an envelope to a sub-resource view, keeping success,
// error and cache metadata intact.
func project[T, U any](env service.Envelope[T], f func(*T) *U) service.Envelope[U] {
	out := service.Envelope[U]{
		Success:   env.Success,
		Error:     env.Error,
		CachedAt:  env.CachedAt,
		Timestamp: env.Timestamp,
	}
	if env.Data != nil {
		out.Data = f(env.Data)
	}
	return out
}

func (s *Server) getParking(w http.ResponseWriter, r *http.Request) {
	t, ok := s.terminalParam(w, r)
	if !ok {
		return
	}
	writeEnvelope(w, s.parking.Get(r.Context(), t, refreshParam(r)))
}

// lotView is the short-/long-term sub-resource payload.
type lotView struct {
	Terminal         domain.Terminal       `json:"terminal"`
	Lot              domain.ParkingSection `json:"lot"`
	Timestamp        time.Time             `json:"timestamp"`
	PeakHoursWarning bool                  `json:"peakHoursWarning"`
}

func (s *Server) getShortTermParking(w http.ResponseWriter, r *http.Request) {
	t, ok := s.terminalParam(w, r)
	if !ok {
		return
	}
	env := s.parking.Get(r.Context(), t, refreshParam(r))
	writeEnvelope(w, project(env, func(p *domain.ParkingInfo) *lotView {
		return &lotView{Terminal: p.Terminal, Lot: p.ShortTerm, Timestamp: p.Timestamp, PeakHoursWarning: p.PeakHoursWarning}
	}))
}

func (s *Server) getLongTermParking(w http.ResponseWriter, r *http.Request) {
	t, ok := s.terminalParam(w, r)
	if !ok {
		return
	}
	env := s.parking.Get(r.Context(), t, refreshParam(r))
	writeEnvelope(w, project(env, func(p *domain.ParkingInfo) *lotView {
		return &lotView{Terminal: p.Terminal, Lot: p.LongTerm, Timestamp: p.Timestamp, PeakHoursWarning: p.PeakHoursWarning}
	}))
}

func (s *Server) getCongestion(w http.ResponseWriter, r *http.Request) {
	t, ok := s.terminalParam(w, r)
	if !ok {
		return
	}
	writeEnvelope(w, s.congestion.Get(r.Context(), t, refreshParam(r)))
}

// gatesView is the gates-only sub-resource payload.
type gatesView struct {
	Terminal     domain.Terminal        `json:"terminal"`
	Gates        []domain.GateInfo      `json:"gates"`
	OverallLevel domain.CongestionLevel `json:"overallLevel"`
	Timestamp    time.Time              `json:"timestamp"`
}

func (s *Server) getGates(w http.ResponseWriter, r *http.Request) {
	t, ok := s.terminalParam(w, r)
	if !ok {
		return
	}
	env := s.congestion.Get(r.Context(), t, refreshParam(r))
	writeEnvelope(w, project(env, func(c *domain.TerminalCongestion) *gatesView {
		return &gatesView{Terminal: c.Terminal, Gates: c.Gates, OverallLevel: c.OverallLevel, Timestamp: c.Timestamp}
	}))
}

// hourlyView is the hourly-outlook sub-resource payload.
type hourlyView struct {
	Terminal       domain.Terminal           `json:"terminal"`
	HourlyForecast []domain.HourlyCongestion `json:"hourlyForecast"`
	Timestamp      time.Time                 `json:"timestamp"`
}

func (s *Server) getHourlyForecast(w http.ResponseWriter, r *http.Request) {
	t, ok := s.terminalParam(w, r)
	if !ok {
		return
	}
	env := s.congestion.Get(r.Context(), t, refreshParam(r))
	writeEnvelope(w, project(env, func(c *domain.TerminalCongestion) *hourlyView {
		return &hourlyView{Terminal: c.Terminal, HourlyForecast: c.HourlyForecast, Timestamp: c.Timestamp}
	}))
}

func (s *Server) getForecast(w http.ResponseWriter, r *http.Request) {
	t, ok := s.terminalParam(w, r)
	if !ok {
		return
	}
	date := r.URL.Query().Get("date")
	writeEnvelope(w, s.forecast.Get(r.Context(), t, date, refreshParam(r)))
}

func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	t, ok := s.terminalParam(w, r)
	if !ok {
		return
	}
	writeEnvelope(w, s.dashboard.Get(r.Context(), t, refreshParam(r)))
}
