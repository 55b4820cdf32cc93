package scraper

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/everdeen7336/airport-live/internal/clock"
	"github.com/everdeen7336/airport-live/internal/domain"
	"github.com/everdeen7336/airport-live/internal/fetch"
)

// gateDef is one departure gate the AJAX payload may report. Keys lists the
// historical key-naming variants observed in the payload, tried in order.
type gateDef struct {
	ID   string
	Name string
	Keys []string
}

func gateKeys(n string) []string {
	return []string{"DG" + n + "_E", "DG" + n, "dg" + n}
}

// gateDefs is the fixed gate list per terminal: four departure gates at T1,
// two at T2.
func gateDefs(t domain.Terminal) []gateDef {
	switch t {
	case domain.TerminalT1:
		return []gateDef{
			{ID: "1", Name: "출국장 1", Keys: gateKeys("1")},
			{ID: "2", Name: "출국장 2", Keys: gateKeys("2")},
			{ID: "3", Name: "출국장 3", Keys: gateKeys("3")},
			{ID: "4", Name: "출국장 4", Keys: gateKeys("4")},
		}
	default:
		return []gateDef{
			{ID: "1", Name: "출국장 1", Keys: gateKeys("1")},
			{ID: "2", Name: "출국장 2", Keys: gateKeys("2")},
		}
	}
}

// CongestionScraper scrapes gate waits (AJAX first, wait-time table as
// fallback) and the congestion page's hourly outlook.
type CongestionScraper struct {
	client *fetch.Client
	clk    clock.Clock
	log    *zap.Logger
}

// NewCongestionScraper builds a CongestionScraper.
func NewCongestionScraper(client *fetch.Client, clk clock.Clock, log *zap.Logger) *CongestionScraper {
	return &CongestionScraper{client: client, clk: clk, log: log}
}

// Scrape assembles one terminal's congestion snapshot. The HTML page feeds
// the hourly outlook and the wait-table fallback; the AJAX endpoint is the
// preferred wait-time source. Either source alone is enough; only both
// failing is an error.
func (s *CongestionScraper) Scrape(ctx context.Context, terminal domain.Terminal) (domain.TerminalCongestion, error) {
	doc, pageErr := s.client.Page(ctx, "congestion", congestionPagePath+terminal.Code())
	if pageErr != nil {
		s.log.Warn("congestion page fetch failed",
			zap.String("terminal", terminal.Code()), zap.Error(pageErr))
	}

	gates, ajaxErr := s.gatesFromAjax(ctx, terminal)
	if ajaxErr != nil {
		s.log.Warn("congestion AJAX failed, falling back to wait table",
			zap.String("terminal", terminal.Code()), zap.Error(ajaxErr))
		if pageErr != nil {
			return domain.TerminalCongestion{}, ajaxErr
		}
		gates = gatesFromWaitTable(doc, terminal)
	}

	forecast := domain.FlatForecast()
	if pageErr == nil {
		forecast = hourlyFromTables(doc)
	}

	return domain.TerminalCongestion{
		Terminal:       terminal,
		Gates:          gates,
		HourlyForecast: forecast,
		OverallLevel:   domain.OverallLevel(gates),
		Timestamp:      s.clk.Now(),
	}, nil
}

// gatesFromAjax reads the structured wait-time endpoint. A gate whose keys
// all miss stays at a nil wait; that is a payload gap, not an error.
func (s *CongestionScraper) gatesFromAjax(ctx context.Context, terminal domain.Terminal) ([]domain.GateInfo, error) {
	var payload map[string]json.RawMessage
	if err := s.client.JSON(ctx, "congestion", congestionAjaxPath+terminal.Code(), &payload); err != nil {
		return nil, err
	}
	defs := gateDefs(terminal)
	gates := make([]domain.GateInfo, 0, len(defs))
	for _, def := range defs {
		wait := waitFromPayload(payload, def.Keys)
		gates = append(gates, domain.GateInfo{
			GateID:          def.ID,
			GateName:        def.Name,
			WaitTimeMinutes: wait,
			CongestionLevel: domain.LevelForWait(wait),
		})
	}
	return gates, nil
}

// waitFromPayload tries each key variant and coerces number-or-string
// values; the payload's value types have changed across site revisions.
func waitFromPayload(payload map[string]json.RawMessage, keys []string) *int {
	for _, k := range keys {
		raw, ok := payload[k]
		if !ok {
			continue
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			n := int(f)
			return &n
		}
		var str string
		if err := json.Unmarshal(raw, &str); err == nil {
			if n, err := strconv.Atoi(strings.TrimSpace(str)); err == nil {
				return &n
			}
		}
	}
	return nil
}

var digitsRe = regexp.MustCompile(`\d+`)

// gatesFromWaitTable scrapes the page's wait-time table: rows matched by
// gate name in the first cell, minutes coerced from the last cell.
func gatesFromWaitTable(doc *goquery.Document, terminal domain.Terminal) []domain.GateInfo {
	defs := gateDefs(terminal)
	gates := make([]domain.GateInfo, 0, len(defs))
	for _, def := range defs {
		var wait *int
		doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
			cells := row.Find("td")
			if cells.Length() < 2 {
				return true
			}
			first := strings.TrimSpace(cells.First().Text())
			if !strings.Contains(first, def.Name) && first != def.ID {
				return true
			}
			last := strings.TrimSpace(cells.Last().Text())
			if m := digitsRe.FindString(last); m != "" {
				if n, err := strconv.Atoi(m); err == nil {
					wait = &n
				}
			}
			return false
		})
		gates = append(gates, domain.GateInfo{
			GateID:          def.ID,
			GateName:        def.Name,
			WaitTimeMinutes: wait,
			CongestionLevel: domain.LevelForWait(wait),
		})
	}
	return gates
}

var hourRe = regexp.MustCompile(`(\d{1,2})`)

// hourlyFromTables scans every table row on the page for hour/count pairs.
// Multiple tables can match; the first row seen for an hour wins, rows sort
// ascending by hour, and an empty harvest degrades to the flat placeholder
// so consumers never special-case a missing forecast.
func hourlyFromTables(doc *goquery.Document) []domain.HourlyCongestion {
	seen := make(map[int]bool)
	var rows []domain.HourlyCongestion
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		hm := hourRe.FindStringSubmatch(strings.TrimSpace(cells.Eq(0).Text()))
		if hm == nil {
			return
		}
		hour, err := strconv.Atoi(hm[1])
		if err != nil || hour < 0 || hour > 23 || seen[hour] {
			return
		}
		countText := strings.ReplaceAll(strings.TrimSpace(cells.Eq(1).Text()), ",", "")
		count, err := strconv.Atoi(countText)
		if err != nil {
			return
		}
		class, _ := row.Attr("class")
		if class == "" {
			class, _ = cells.Eq(1).Attr("class")
		}
		seen[hour] = true
		rows = append(rows, domain.HourlyCongestion{
			Hour:  hour,
			Count: count,
			Level: domain.LevelForColorClass(class),
		})
	})
	if len(rows) == 0 {
		return domain.FlatForecast()
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Hour < rows[j].Hour })
	return rows
}

var _ Scraper[domain.TerminalCongestion] = (*CongestionScraper)(nil)
