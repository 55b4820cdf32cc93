package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFillInOutHoursCompletes24(t *testing.T) {
	t.Parallel()

	rows := []HourlyInOutData{
		{Hour: 7, TotalDep: 1200, TotalArr: 300, Departures: map[string]int{"gate3": 1200}, Arrivals: map[string]int{"gateA": 300}},
		{Hour: 23, TotalDep: 80, TotalArr: 40, Departures: map[string]int{}, Arrivals: map[string]int{}},
		{Hour: 7, TotalDep: 999}, // duplicate hour, first occurrence wins
		{Hour: 42, TotalDep: 5},  // out-of-range hour is dropped
	}
	full := FillInOutHours(rows)

	require.Len(t, full, 24)
	for h := 0; h < 24; h++ {
		require.Equal(t, h, full[h].Hour)
		require.NotNil(t, full[h].Departures)
		require.NotNil(t, full[h].Arrivals)
	}
	require.Equal(t, 1200, full[7].TotalDep)
	require.Equal(t, 80, full[23].TotalDep)
	require.Zero(t, full[0].TotalDep)
}

func TestSummarizeRecomputesFromArray(t *testing.T) {
	t.Parallel()

	full := FillInOutHours([]HourlyInOutData{
		{Hour: 6, TotalDep: 500, TotalArr: 100},
		{Hour: 7, TotalDep: 1500, TotalArr: 250},
		{Hour: 18, TotalDep: 900, TotalArr: 800},
	})
	s := Summarize(full)

	require.Equal(t, 2900, s.TotalDeparture)
	require.Equal(t, 1150, s.TotalArrival)
	require.Equal(t, 7, s.PeakDepartureHour)
	require.Equal(t, 1500, s.PeakDepartureCount)
	require.Equal(t, 18, s.PeakArrivalHour)
	require.Equal(t, 800, s.PeakArrivalCount)
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	s := Summarize(nil)
	require.Zero(t, s.TotalDeparture)
	require.Zero(t, s.PeakDepartureCount)
	require.Zero(t, s.PeakDepartureHour)
}
