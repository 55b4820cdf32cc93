package domain

import "time"

// HourlyInOutData is one hour of forecast departures/arrivals, broken out by
// departure-gate group.
type HourlyInOutData struct {
	Hour       int            `json:"hour"`
	Departures map[string]int `json:"departures"`
	Arrivals   map[string]int `json:"arrivals"`
	TotalDep   int            `json:"totalDeparture"`
	TotalArr   int            `json:"totalArrival"`
}

// HourlyRouteData is one hour of forecast passenger counts by destination
// region.
type HourlyRouteData struct {
	Hour    int            `json:"hour"`
	Regions map[string]int `json:"regions"`
	Total   int            `json:"total"`
}

// ForecastSummary is derived from the 24-hour in/out array. It is recomputed
// from scratch on every scrape; it never lives apart from the array it
// summarizes.
type ForecastSummary struct {
	TotalDeparture     int `json:"totalDeparture"`
	TotalArrival       int `json:"totalArrival"`
	PeakDepartureHour  int `json:"peakDepartureHour"`
	PeakDepartureCount int `json:"peakDepartureCount"`
	PeakArrivalHour    int `json:"peakArrivalHour"`
	PeakArrivalCount   int `json:"peakArrivalCount"`
}

// CongestionForecast is the POST-based passenger-flow forecast for one
// terminal and calendar date (YYYYMMDD, site-local). InOutData always holds
// exactly 24 hours; RouteData holds whatever hours the route table yielded.
type CongestionForecast struct {
	Terminal  Terminal          `json:"terminal"`
	Date      string            `json:"date"`
	InOutData []HourlyInOutData `json:"inOutData"`
	RouteData []HourlyRouteData `json:"routeData"`
	Summary   ForecastSummary   `json:"summary"`
	Timestamp time.Time         `json:"timestamp"`
}

// Summarize reduces the full 24-hour array into totals and peaks.
func Summarize(inOut []HourlyInOutData) ForecastSummary {
	var s ForecastSummary
	for _, h := range inOut {
		s.TotalDeparture += h.TotalDep
		s.TotalArrival += h.TotalArr
		if h.TotalDep > s.PeakDepartureCount {
			s.PeakDepartureCount = h.TotalDep
			s.PeakDepartureHour = h.Hour
		}
		if h.TotalArr > s.PeakArrivalCount {
			s.PeakArrivalCount = h.TotalArr
			s.PeakArrivalHour = h.Hour
		}
	}
	return s
}

// FillInOutHours pads the array to exactly 24 hours, inserting zero rows for
// any hour the upstream table skipped, and orders it by hour.
func FillInOutHours(rows []HourlyInOutData) []HourlyInOutData {
	byHour := make(map[int]HourlyInOutData, len(rows))
	for _, r := range rows {
		if r.Hour < 0 || r.Hour > 23 {
			continue
		}
		if _, dup := byHour[r.Hour]; !dup {
			byHour[r.Hour] = r
		}
	}
	out := make([]HourlyInOutData, 24)
	for h := 0; h < 24; h++ {
		if r, ok := byHour[h]; ok {
			out[h] = r
			continue
		}
		out[h] = HourlyInOutData{Hour: h, Departures: map[string]int{}, Arrivals: map[string]int{}}
	}
	return out
}
