package scraper

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/everdeen7336/airport-live/internal/clock"
	"github.com/everdeen7336/airport-live/internal/domain"
	"github.com/everdeen7336/airport-live/internal/fetch"
)

// Opaque layout ids the forecast endpoint requires. Discovered empirically;
// the upstream gives them no documented meaning.
const (
	layoutInOut = "C0"
	layoutRoute = "C1"
)

// Departure-gate groups and destination regions, in upstream column order.
var (
	depGroups = []string{"gate1_2", "gate3", "gate4", "gate5_6"}
	arrGroups = []string{"gateA", "gateB", "gateC", "gateD"}
	regions   = []string{"japan", "china", "southeastAsia", "americas", "europe", "oceania", "other"}
)

// Minimum cell counts used as a cheap row-validity filter; rows below the
// threshold are skipped, not errored.
const (
	minInOutCells = 12
	minRouteCells = 8
)

// ForecastScraper fetches the POST-based hourly passenger-flow forecast.
type ForecastScraper struct {
	client *fetch.Client
	url    string
	clk    clock.Clock
	log    *zap.Logger
}

// NewForecastScraper builds a ForecastScraper against the forecast endpoint.
func NewForecastScraper(client *fetch.Client, url string, clk clock.Clock, log *zap.Logger) *ForecastScraper {
	return &ForecastScraper{client: client, url: url, clk: clk, log: log}
}

// Scrape issues the in/out and route POSTs concurrently. The two requests
// are independent: one succeeding and one failing still yields a partial,
// valid forecast; only both failing is an error. date is YYYYMMDD in the
// site's local calendar.
func (s *ForecastScraper) Scrape(ctx context.Context, terminal domain.Terminal, date string) (domain.CongestionForecast, error) {
	var (
		wg       sync.WaitGroup
		inOut    []domain.HourlyInOutData
		route    []domain.HourlyRouteData
		inOutErr error
		routeErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		doc, err := s.post(ctx, terminal, date, layoutInOut)
		if err != nil {
			inOutErr = err
			return
		}
		inOut = parseInOutTable(doc)
	}()
	go func() {
		defer wg.Done()
		doc, err := s.post(ctx, terminal, date, layoutRoute)
		if err != nil {
			routeErr = err
			return
		}
		route = parseRouteTable(doc)
	}()
	wg.Wait()

	if inOutErr != nil && routeErr != nil {
		return domain.CongestionForecast{}, inOutErr
	}
	if inOutErr != nil {
		s.log.Warn("in/out forecast fetch failed, returning route-only forecast",
			zap.String("terminal", terminal.Code()), zap.Error(inOutErr))
	}
	if routeErr != nil {
		s.log.Warn("route forecast fetch failed, returning in/out-only forecast",
			zap.String("terminal", terminal.Code()), zap.Error(routeErr))
	}

	full := domain.FillInOutHours(inOut)
	return domain.CongestionForecast{
		Terminal:  terminal,
		Date:      date,
		InOutData: full,
		RouteData: route,
		Summary:   domain.Summarize(full),
		Timestamp: s.clk.Now(),
	}, nil
}

func (s *ForecastScraper) post(ctx context.Context, terminal domain.Terminal, date, layout string) (*goquery.Document, error) {
	return s.client.PostForm(ctx, "forecast", s.url, map[string]string{
		"selTm":  terminal.Code(),
		"pday":   date,
		"layout": layout,
	})
}

// dataTable selects the time-series table. The page's first table is an
// unrelated wait-time table; the data lives in the second. Positional
// selection is a known fragility boundary, pinned by a fixture test.
func dataTable(doc *goquery.Document) *goquery.Selection {
	return doc.Find("table").Eq(1)
}

func parseInOutTable(doc *goquery.Document) []domain.HourlyInOutData {
	var rows []domain.HourlyInOutData
	dataTable(doc).Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < minInOutCells {
			return
		}
		hour, ok := hourFromCell(cells.Eq(0))
		if !ok {
			return
		}
		r := domain.HourlyInOutData{
			Hour:       hour,
			Departures: make(map[string]int, len(depGroups)),
			Arrivals:   make(map[string]int, len(arrGroups)),
		}
		// Column layout: hour, departure groups, departure total,
		// arrival groups, arrival total, day total.
		for i, g := range depGroups {
			v := countFromCell(cells.Eq(1 + i))
			r.Departures[g] = v
			r.TotalDep += v
		}
		for i, g := range arrGroups {
			v := countFromCell(cells.Eq(2 + len(depGroups) + i))
			r.Arrivals[g] = v
			r.TotalArr += v
		}
		rows = append(rows, r)
	})
	return rows
}

func parseRouteTable(doc *goquery.Document) []domain.HourlyRouteData {
	seen := make(map[int]bool)
	var rows []domain.HourlyRouteData
	dataTable(doc).Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < minRouteCells {
			return
		}
		hour, ok := hourFromCell(cells.Eq(0))
		if !ok || seen[hour] {
			return
		}
		seen[hour] = true
		r := domain.HourlyRouteData{
			Hour:    hour,
			Regions: make(map[string]int, len(regions)),
		}
		for i, reg := range regions {
			v := countFromCell(cells.Eq(1 + i))
			r.Regions[reg] = v
			r.Total += v
		}
		rows = append(rows, r)
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].Hour < rows[j].Hour })
	return rows
}

func hourFromCell(cell *goquery.Selection) (int, bool) {
	m := hourRe.FindStringSubmatch(strings.TrimSpace(cell.Text()))
	if m == nil {
		return 0, false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}

func countFromCell(cell *goquery.Selection) int {
	text := strings.ReplaceAll(strings.TrimSpace(cell.Text()), ",", "")
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return n
}
