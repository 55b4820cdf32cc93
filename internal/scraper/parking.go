package scraper

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/everdeen7336/airport-live/internal/clock"
	"github.com/everdeen7336/airport-live/internal/domain"
	"github.com/everdeen7336/airport-live/internal/fetch"
)

// lotKind selects which rule subset applies to a page.
type lotKind int

const (
	lotShortTerm lotKind = iota
	lotLongTerm
)

// floorRule is one step of the parking extraction cascade. Rules run in
// slice order against the page's full visible text; every match claims its
// text span, and a later rule's match is dropped when it overlaps a claimed
// span, so order is load-bearing: named towers must precede the generic
// long-term pattern, and labeled basement/ground patterns must precede the
// bare numeric-floor pattern.
type floorRule struct {
	label     string
	re        *regexp.Regexp
	lots      []lotKind
	terminals []domain.Terminal // nil = any terminal
	id        func(m []string) string
	name      func(m []string) string
}

// statusPart matches the availability text that trails a floor label.
const statusPart = `[^0-9만]{0,20}?(만차|\d+\s*대\s*가능)`

// parkingRules is the cascade, most specific first. Tower names differ by
// terminal; gating them on the terminal keeps a shared substring from
// double-counting.
var parkingRules = []floorRule{
	{
		label:     "t1-named-tower",
		re:        regexp.MustCompile(`장기주차장\s*(P[12])` + statusPart),
		lots:      []lotKind{lotLongTerm},
		terminals: []domain.Terminal{domain.TerminalT1},
		id:        func(m []string) string { return m[1] },
		name:      func(m []string) string { return "장기주차장 " + m[1] },
	},
	{
		label:     "t2-named-tower",
		re:        regexp.MustCompile(`장기주차장\s*(P3)` + statusPart),
		lots:      []lotKind{lotLongTerm},
		terminals: []domain.Terminal{domain.TerminalT2},
		id:        func(m []string) string { return m[1] },
		name:      func(m []string) string { return "장기주차장 " + m[1] },
	},
	{
		label: "long-term-lot",
		re:    regexp.MustCompile(`장기주차장` + statusPart),
		lots:  []lotKind{lotLongTerm},
		id:    func([]string) string { return "LT" },
		name:  func([]string) string { return "장기주차장" },
	},
	{
		label: "parking-tower",
		re:    regexp.MustCompile(`주차타워` + statusPart),
		lots:  []lotKind{lotLongTerm},
		id:    func([]string) string { return "TOWER" },
		name:  func([]string) string { return "주차타워" },
	},
	{
		label: "basement-floor",
		re:    regexp.MustCompile(`지하\s*(\d+)\s*층` + statusPart),
		lots:  []lotKind{lotShortTerm, lotLongTerm},
		id:    func(m []string) string { return "B" + m[1] },
		name:  func(m []string) string { return "지하 " + m[1] + "층" },
	},
	{
		label: "ground-floor",
		re:    regexp.MustCompile(`지상\s*(\d+)\s*층` + statusPart),
		lots:  []lotKind{lotShortTerm, lotLongTerm},
		id:    func(m []string) string { return m[1] + "F" },
		name:  func(m []string) string { return "지상 " + m[1] + "층" },
	},
	{
		label: "numeric-floor",
		re:    regexp.MustCompile(`(?:^|[^하상\d])(\d+)\s*층` + statusPart),
		lots:  []lotKind{lotShortTerm, lotLongTerm},
		id:    func(m []string) string { return m[1] + "F" },
		name:  func(m []string) string { return m[1] + "층" },
	},
}

// ruleLabels exposes the cascade order for tests; reordering the cascade is
// a behavior change, not a cleanup.
func ruleLabels() []string {
	out := make([]string, len(parkingRules))
	for i, r := range parkingRules {
		out[i] = r.label
	}
	return out
}

func (r floorRule) applies(lot lotKind, terminal domain.Terminal) bool {
	ok := false
	for _, l := range r.lots {
		if l == lot {
			ok = true
			break
		}
	}
	if !ok {
		return false
	}
	if r.terminals == nil {
		return true
	}
	for _, t := range r.terminals {
		if t == terminal {
			return true
		}
	}
	return false
}

// ParkingScraper scrapes a terminal's short- and long-term parking pages.
type ParkingScraper struct {
	client *fetch.Client
	clk    clock.Clock
	log    *zap.Logger
}

// NewParkingScraper builds a ParkingScraper.
func NewParkingScraper(client *fetch.Client, clk clock.Clock, log *zap.Logger) *ParkingScraper {
	return &ParkingScraper{client: client, clk: clk, log: log}
}

// Scrape fetches both lot pages concurrently and assembles the terminal's
// parking snapshot. A short-term failure fails the scrape; a long-term
// failure degrades to the unavailable state, since one terminal publishes no
// real-time long-term data and the two cases are indistinguishable here.
func (s *ParkingScraper) Scrape(ctx context.Context, terminal domain.Terminal) (domain.ParkingInfo, error) {
	var (
		wg       sync.WaitGroup
		shortSec domain.ParkingSection
		longSec  domain.ParkingSection
		shortErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		doc, err := s.client.Page(ctx, "parking", shortTermParkingPath+terminal.Code())
		if err != nil {
			shortErr = err
			return
		}
		shortSec = parseLot(doc, lotShortTerm, terminal)
	}()
	go func() {
		defer wg.Done()
		doc, err := s.client.Page(ctx, "parking", longTermParkingPath+terminal.Code())
		if err != nil {
			s.log.Warn("long-term parking fetch failed, marking unavailable",
				zap.String("terminal", terminal.Code()), zap.Error(err))
			longSec = domain.UnavailableSection()
			return
		}
		longSec = parseLot(doc, lotLongTerm, terminal)
	}()
	wg.Wait()

	if shortErr != nil {
		return domain.ParkingInfo{}, shortErr
	}

	now := s.clk.Now()
	return domain.ParkingInfo{
		Terminal:         terminal,
		ShortTerm:        shortSec,
		LongTerm:         longSec,
		Timestamp:        now,
		PeakHoursWarning: domain.IsPeakHours(now),
	}, nil
}

// parseLot extracts one lot's floors from a page: regex cascade over the
// visible text first, DOM-structure scan as fallback when the markup has
// drifted past every pattern.
func parseLot(doc *goquery.Document, lot lotKind, terminal domain.Terminal) domain.ParkingSection {
	text := doc.Find("body").Text()
	floors := floorsFromText(text, lot, terminal)
	if len(floors) == 0 {
		floors = floorsFromDOM(doc, lot, terminal)
	}
	if len(floors) == 0 && lot == lotLongTerm {
		return domain.UnavailableSection()
	}
	domain.SortFloors(floors)
	return domain.NewParkingSection(floors)
}

// floorsFromText runs the cascade. Two suppression mechanisms cooperate: a
// match overlapping a span an earlier rule claimed is dropped, so a looser
// pattern cannot re-read text a more specific one already consumed ("지하
// 2층" must not also yield a phantom "2층"), and an id-dedup set drops
// repeats of the same structure elsewhere on the page. A span is claimed
// even when its id is a repeat, so later rules cannot resurrect it.
func floorsFromText(text string, lot lotKind, terminal domain.Terminal) []domain.ParkingFloor {
	seen := make(map[string]bool)
	var claimed []span
	var floors []domain.ParkingFloor
	for _, rule := range parkingRules {
		if !rule.applies(lot, terminal) {
			continue
		}
		for _, idx := range rule.re.FindAllStringSubmatchIndex(text, -1) {
			s := span{idx[0], idx[1]}
			if s.overlapsAny(claimed) {
				continue
			}
			claimed = append(claimed, s)
			m := groupsAt(text, idx)
			id := rule.id(m)
			if seen[id] {
				continue
			}
			seen[id] = true
			raw := strings.TrimSpace(m[len(m)-1])
			status, spaces := domain.ParseAvailability(raw)
			floors = append(floors, domain.ParkingFloor{
				ID:              id,
				Name:            rule.name(m),
				Status:          status,
				AvailableSpaces: spaces,
				RawText:         raw,
			})
		}
	}
	return floors
}

// span is a half-open [start, end) byte range of one rule match.
type span struct{ start, end int }

func (s span) overlapsAny(spans []span) bool {
	for _, o := range spans {
		if s.start < o.end && o.start < s.end {
			return true
		}
	}
	return false
}

// groupsAt materializes FindAllStringSubmatchIndex pairs as submatch strings.
func groupsAt(text string, idx []int) []string {
	out := make([]string, 0, len(idx)/2)
	for i := 0; i < len(idx); i += 2 {
		if idx[i] < 0 {
			out = append(out, "")
			continue
		}
		out = append(out, text[idx[i]:idx[i+1]])
	}
	return out
}

var availabilityTextRe = regexp.MustCompile(`만차|\d+\s*대\s*가능`)

// floorsFromDOM is the structural fallback: a label element whose next
// sibling carries availability text.
func floorsFromDOM(doc *goquery.Document, lot lotKind, terminal domain.Terminal) []domain.ParkingFloor {
	seen := make(map[string]bool)
	var floors []domain.ParkingFloor
	doc.Find("dt, th, strong, .tit").Each(func(_ int, sel *goquery.Selection) {
		label := strings.TrimSpace(sel.Text())
		sib := strings.TrimSpace(sel.Next().Text())
		if !availabilityTextRe.MatchString(sib) {
			return
		}
		id, name, ok := floorIDFromLabel(label, lot, terminal)
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		status, spaces := domain.ParseAvailability(sib)
		floors = append(floors, domain.ParkingFloor{
			ID:              id,
			Name:            name,
			Status:          status,
			AvailableSpaces: spaces,
			RawText:         sib,
		})
	})
	return floors
}

// labelOnlyRes are the cascade patterns with the trailing status part
// stripped, for classifying bare label elements in the DOM fallback.
var labelOnlyRes = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(parkingRules))
	for i, r := range parkingRules {
		out[i] = regexp.MustCompile(strings.TrimSuffix(r.re.String(), statusPart))
	}
	return out
}()

// floorIDFromLabel reuses the cascade's label halves to classify a bare
// label element, preserving the cascade's precedence.
func floorIDFromLabel(label string, lot lotKind, terminal domain.Terminal) (id, name string, ok bool) {
	for i, rule := range parkingRules {
		if !rule.applies(lot, terminal) {
			continue
		}
		m := labelOnlyRes[i].FindStringSubmatch(label)
		if m == nil {
			continue
		}
		return rule.id(m), rule.name(m), true
	}
	return "", "", false
}

var _ Scraper[domain.ParkingInfo] = (*ParkingScraper)(nil)
