package domain

import (
	"strings"
	"time"
)

// CongestionLevel classifies how crowded a security gate or hour is.
type CongestionLevel string

const (
	LevelSmooth        CongestionLevel = "smooth"
	LevelNormal        CongestionLevel = "normal"
	LevelCongested     CongestionLevel = "congested"
	LevelVeryCongested CongestionLevel = "veryCongested"
)

// levelOrder is the canonical severity ordering. OverallLevel ties resolve to
// the first level at an ordinal in this table, so the table itself is the tie
// break, not gate iteration order.
var levelOrder = []CongestionLevel{LevelSmooth, LevelNormal, LevelCongested, LevelVeryCongested}

// Ordinal returns the severity rank of the level, LevelNormal for unknowns.
func (l CongestionLevel) Ordinal() int {
	for i, lv := range levelOrder {
		if lv == l {
			return i
		}
	}
	return 1
}

// LevelForWait maps a gate wait time in minutes to a level. A nil wait (gate
// not reported) counts as normal rather than an error.
func LevelForWait(minutes *int) CongestionLevel {
	if minutes == nil {
		return LevelNormal
	}
	switch m := *minutes; {
	case m <= 10:
		return LevelSmooth
	case m <= 20:
		return LevelNormal
	case m <= 30:
		return LevelCongested
	default:
		return LevelVeryCongested
	}
}

// LevelForColorClass maps the site's CSS color classes for forecast rows to a
// level. Unrecognized classes read as normal.
func LevelForColorClass(class string) CongestionLevel {
	c := strings.ToLower(class)
	switch {
	case strings.Contains(c, "blue"), strings.Contains(c, "smooth"):
		return LevelSmooth
	case strings.Contains(c, "red"), strings.Contains(c, "very"):
		return LevelVeryCongested
	case strings.Contains(c, "orange"), strings.Contains(c, "busy"), strings.Contains(c, "congest"):
		return LevelCongested
	default:
		return LevelNormal
	}
}

// GateInfo is one departure gate's reported wait. WaitTimeMinutes stays nil
// when the upstream payload carries no usable value for the gate.
type GateInfo struct {
	GateID          string          `json:"gateId"`
	GateName        string          `json:"gateName"`
	WaitTimeMinutes *int            `json:"waitTimeMinutes"`
	CongestionLevel CongestionLevel `json:"congestionLevel"`
}

// HourlyCongestion is one hour of the congestion page's forecast table.
type HourlyCongestion struct {
	Hour  int             `json:"hour"`
	Count int             `json:"count"`
	Level CongestionLevel `json:"level"`
}

// TerminalCongestion is one terminal's gate-wait snapshot plus the page's
// hourly outlook.
type TerminalCongestion struct {
	Terminal       Terminal           `json:"terminal"`
	Gates          []GateInfo         `json:"gates"`
	HourlyForecast []HourlyCongestion `json:"hourlyForecast"`
	OverallLevel   CongestionLevel    `json:"overallLevel"`
	Timestamp      time.Time          `json:"timestamp"`
}

// OverallLevel returns the single worst level among the gates. Ties resolve
// through levelOrder; an empty gate list reads as normal.
func OverallLevel(gates []GateInfo) CongestionLevel {
	worst := 0
	seen := false
	for _, g := range gates {
		if o := g.CongestionLevel.Ordinal(); !seen || o > worst {
			worst = o
			seen = true
		}
	}
	if !seen {
		return LevelNormal
	}
	return levelOrder[worst]
}

// FlatForecast builds the placeholder hourly outlook used when the page
// yields no forecast rows: 24 hours, zero counts, all normal.
func FlatForecast() []HourlyCongestion {
	out := make([]HourlyCongestion, 24)
	for h := range out {
		out[h] = HourlyCongestion{Hour: h, Count: 0, Level: LevelNormal}
	}
	return out
}
