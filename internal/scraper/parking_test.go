package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/everdeen7336/airport-live/internal/config"
	"github.com/everdeen7336/airport-live/internal/domain"
	"github.com/everdeen7336/airport-live/internal/fetch"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

const shortTermHTML = `<html><body>
<div class="parking-status">
	<p>단기주차장 현황</p>
	<ul>
		<li>지하 2층 50대 가능</li>
		<li>지하 1층 만차</li>
		<li>지상 1층 120대 가능</li>
	</ul>
</div>
</body></html>`

func TestParseLotEndToEnd(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, shortTermHTML)
	sec := parseLot(doc, lotShortTerm, domain.TerminalT1)

	require.Len(t, sec.Floors, 3)
	require.Equal(t, "B2", sec.Floors[0].ID)
	require.Equal(t, "B1", sec.Floors[1].ID)
	require.Equal(t, "1F", sec.Floors[2].ID)

	require.Equal(t, domain.ParkingAvailable, sec.Floors[0].Status)
	require.Equal(t, 50, *sec.Floors[0].AvailableSpaces)
	require.Equal(t, domain.ParkingFull, sec.Floors[1].Status)
	require.Nil(t, sec.Floors[1].AvailableSpaces)
	require.Equal(t, 120, *sec.Floors[2].AvailableSpaces)

	require.Equal(t, 170, sec.TotalAvailable)
	require.True(t, sec.HasFull)
}

func TestParseLotIdempotent(t *testing.T) {
	t.Parallel()

	first := parseLot(mustDoc(t, shortTermHTML), lotShortTerm, domain.TerminalT1)
	second := parseLot(mustDoc(t, shortTermHTML), lotShortTerm, domain.TerminalT1)
	require.Equal(t, first, second)
}

func TestParseLotDedupsBySpecificity(t *testing.T) {
	t.Parallel()

	// The named-tower pattern claims P1 before the page's repeated generic
	// "장기주차장" text can produce a second record.
	html := `<html><body>
		<p>장기주차장 P1 30대 가능</p>
		<p>장기주차장 이용 안내</p>
		<p>장기주차장 P1 만차</p>
	</body></html>`
	sec := parseLot(mustDoc(t, html), lotLongTerm, domain.TerminalT1)

	require.Len(t, sec.Floors, 1)
	require.Equal(t, "P1", sec.Floors[0].ID)
	require.Equal(t, domain.ParkingAvailable, sec.Floors[0].Status)
	require.Equal(t, 30, *sec.Floors[0].AvailableSpaces)
}

func TestParseLotSuppressesOverlappingMatches(t *testing.T) {
	t.Parallel()

	// "지하 2층" satisfies the bare numeric-floor pattern too (the space
	// between 하 and the digit defeats a lookbehind-style guard); the
	// claimed span is what keeps the phantom "2F" out.
	doc := mustDoc(t, shortTermHTML)
	sec := parseLot(doc, lotShortTerm, domain.TerminalT1)

	ids := make([]string, len(sec.Floors))
	for i, f := range sec.Floors {
		ids[i] = f.ID
	}
	require.Equal(t, []string{"B2", "B1", "1F"}, ids)
	require.Equal(t, 170, sec.TotalAvailable)
}

func TestParseLotGenericLongTermLot(t *testing.T) {
	t.Parallel()

	// A long-term page labeled only "장기주차장", with no named tower, is
	// real data, not the unavailable state.
	html := `<html><body><p>장기주차장 120대 가능</p></body></html>`
	sec := parseLot(mustDoc(t, html), lotLongTerm, domain.TerminalT2)

	require.False(t, sec.Unavailable)
	require.Len(t, sec.Floors, 1)
	require.Equal(t, "LT", sec.Floors[0].ID)
	require.Equal(t, "장기주차장", sec.Floors[0].Name)
	require.Equal(t, 120, *sec.Floors[0].AvailableSpaces)
}

func TestParseLotNamedTowerBeatsGenericLongTerm(t *testing.T) {
	t.Parallel()

	// The named-tower match claims the span; the generic long-term rule
	// must not re-read it into a second record.
	html := `<html><body><p>장기주차장 P1 30대 가능</p></body></html>`
	sec := parseLot(mustDoc(t, html), lotLongTerm, domain.TerminalT1)

	require.Len(t, sec.Floors, 1)
	require.Equal(t, "P1", sec.Floors[0].ID)
}

func TestParseLotTerminalGatesTowerPatterns(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<p>장기주차장 P1 10대 가능</p>
		<p>장기주차장 P3 20대 가능</p>
	</body></html>`

	t1 := parseLot(mustDoc(t, html), lotLongTerm, domain.TerminalT1)
	require.Len(t, t1.Floors, 1)
	require.Equal(t, "P1", t1.Floors[0].ID)

	t2 := parseLot(mustDoc(t, html), lotLongTerm, domain.TerminalT2)
	require.Len(t, t2.Floors, 1)
	require.Equal(t, "P3", t2.Floors[0].ID)
}

func TestParseLotDOMFallback(t *testing.T) {
	t.Parallel()

	// The icon's digit breaks the text-cascade's label-to-status window,
	// so extraction has to go through the DOM scan.
	html := `<html><body>
		<dl>
			<dt>지하 1층</dt>
			<dd><span class="icon">1</span> 만차</dd>
		</dl>
	</body></html>`
	sec := parseLot(mustDoc(t, html), lotShortTerm, domain.TerminalT1)

	require.Len(t, sec.Floors, 1)
	require.Equal(t, "B1", sec.Floors[0].ID)
	require.Equal(t, domain.ParkingFull, sec.Floors[0].Status)
}

func TestParseLotLongTermEmptyIsUnavailable(t *testing.T) {
	t.Parallel()

	sec := parseLot(mustDoc(t, "<html><body><p>서비스 준비중입니다</p></body></html>"), lotLongTerm, domain.TerminalT2)
	require.True(t, sec.Unavailable)
	require.Empty(t, sec.Floors)
}

func TestRuleCascadeOrder(t *testing.T) {
	t.Parallel()

	// Most-specific first: the cascade's order is semantic, not cosmetic.
	require.Equal(t, []string{
		"t1-named-tower",
		"t2-named-tower",
		"long-term-lot",
		"parking-tower",
		"basement-floor",
		"ground-floor",
		"numeric-floor",
	}, ruleLabels())
}

func testClient(t *testing.T, baseURL string) *fetch.Client {
	t.Helper()
	return fetch.NewClient(config.UpstreamConfig{
		BaseURL:            baseURL,
		UserAgent:          "test-agent",
		PageTimeoutSeconds: 5,
		APITimeoutSeconds:  5,
		RetryCount:         1,
		RetryDelayMs:       1,
	}, zap.NewNop())
}

func TestParkingScraperScrape(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "parkingShortTerm"):
			_, _ = w.Write([]byte(shortTermHTML))
		case strings.Contains(r.URL.Path, "parkingLongTerm"):
			_, _ = w.Write([]byte(`<html><body><p>장기주차장 P1 80대 가능</p><p>주차타워 만차</p></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	clk := fixedClock{now: time.Date(2026, 9, 1, 6, 0, 0, 0, time.Local)}
	s := NewParkingScraper(testClient(t, srv.URL), clk, zap.NewNop())

	info, err := s.Scrape(context.Background(), domain.TerminalT1)
	require.NoError(t, err)

	require.Equal(t, domain.TerminalT1, info.Terminal)
	require.Equal(t, 170, info.ShortTerm.TotalAvailable)
	require.True(t, info.ShortTerm.HasFull)
	require.Len(t, info.LongTerm.Floors, 2)
	require.Equal(t, 80, info.LongTerm.TotalAvailable)
	require.True(t, info.LongTerm.HasFull)
	require.True(t, info.PeakHoursWarning, "06:00 is inside the morning peak window")
	require.Equal(t, clk.now, info.Timestamp)
}

func TestParkingScraperLongTermFetchFailureDegrades(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "parkingShortTerm") {
			_, _ = w.Write([]byte(shortTermHTML))
			return
		}
		http.Error(w, "upstream broke", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewParkingScraper(testClient(t, srv.URL), fixedClock{now: time.Now()}, zap.NewNop())
	info, err := s.Scrape(context.Background(), domain.TerminalT2)
	require.NoError(t, err)
	require.True(t, info.LongTerm.Unavailable)
	require.Equal(t, 170, info.ShortTerm.TotalAvailable)
}

func TestParkingScraperShortTermFetchFailureFails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewParkingScraper(testClient(t, srv.URL), fixedClock{now: time.Now()}, zap.NewNop())
	_, err := s.Scrape(context.Background(), domain.TerminalT1)
	require.Error(t, err)

	var scraperErr *fetch.ScraperError
	require.ErrorAs(t, err, &scraperErr)
	require.Equal(t, "parking", scraperErr.Source)
}
