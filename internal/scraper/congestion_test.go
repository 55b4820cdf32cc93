package scraper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/everdeen7336/airport-live/internal/domain"
)

func payload(t *testing.T, raw string) map[string]json.RawMessage {
	t.Helper()
	var p map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func TestWaitFromPayloadKeyVariants(t *testing.T) {
	t.Parallel()

	p := payload(t, `{"DG1_E": 5, "DG2": "12", "dg3": 28.6, "other": true}`)

	w1 := waitFromPayload(p, gateKeys("1"))
	require.NotNil(t, w1)
	require.Equal(t, 5, *w1)

	w2 := waitFromPayload(p, gateKeys("2"))
	require.NotNil(t, w2)
	require.Equal(t, 12, *w2)

	w3 := waitFromPayload(p, gateKeys("3"))
	require.NotNil(t, w3)
	require.Equal(t, 28, *w3)

	require.Nil(t, waitFromPayload(p, gateKeys("4")))
}

func TestWaitFromPayloadSkipsUnparseable(t *testing.T) {
	t.Parallel()

	p := payload(t, `{"DG1_E": "측정중", "DG1": 9}`)
	w := waitFromPayload(p, gateKeys("1"))
	require.NotNil(t, w)
	require.Equal(t, 9, *w)
}

const waitTableHTML = `<html><body>
<table>
	<tr><th>출국장</th><th>혼잡도</th><th>대기시간</th></tr>
	<tr><td>출국장 1</td><td>원활</td><td>8분</td></tr>
	<tr><td>출국장 2</td><td>혼잡</td><td>25분</td></tr>
</table>
</body></html>`

func TestGatesFromWaitTable(t *testing.T) {
	t.Parallel()

	gates := gatesFromWaitTable(mustDoc(t, waitTableHTML), domain.TerminalT2)
	require.Len(t, gates, 2)

	require.Equal(t, "1", gates[0].GateID)
	require.Equal(t, 8, *gates[0].WaitTimeMinutes)
	require.Equal(t, domain.LevelSmooth, gates[0].CongestionLevel)

	require.Equal(t, "2", gates[1].GateID)
	require.Equal(t, 25, *gates[1].WaitTimeMinutes)
	require.Equal(t, domain.LevelCongested, gates[1].CongestionLevel)
}

func TestGatesFromWaitTableMissingRowDefaultsNormal(t *testing.T) {
	t.Parallel()

	html := `<html><body><table>
		<tr><td>출국장 1</td><td>원활</td><td>8분</td></tr>
	</table></body></html>`
	gates := gatesFromWaitTable(mustDoc(t, html), domain.TerminalT2)
	require.Len(t, gates, 2)
	require.Nil(t, gates[1].WaitTimeMinutes)
	require.Equal(t, domain.LevelNormal, gates[1].CongestionLevel)
}

func TestHourlyFromTables(t *testing.T) {
	t.Parallel()

	// Hours arrive out of order, repeated across tables, with thousands
	// separators and color classes on row or cell.
	html := `<html><body>
	<table>
		<tr class="red"><td>07시</td><td>6,200</td></tr>
		<tr><td>06시</td><td class="blue">1,500</td></tr>
	</table>
	<table>
		<tr class="orange"><td>07시</td><td>9999</td></tr>
		<tr><td>08시</td><td>4100</td></tr>
	</table>
	</body></html>`

	rows := hourlyFromTables(mustDoc(t, html))
	require.Len(t, rows, 3)

	require.Equal(t, 6, rows[0].Hour)
	require.Equal(t, 1500, rows[0].Count)
	require.Equal(t, domain.LevelSmooth, rows[0].Level)

	require.Equal(t, 7, rows[1].Hour)
	require.Equal(t, 6200, rows[1].Count, "first row seen for an hour wins")
	require.Equal(t, domain.LevelVeryCongested, rows[1].Level)

	require.Equal(t, 8, rows[2].Hour)
	require.Equal(t, domain.LevelNormal, rows[2].Level)
}

func TestHourlyFromTablesEmptyFallsBackToFlat(t *testing.T) {
	t.Parallel()

	rows := hourlyFromTables(mustDoc(t, "<html><body><p>점검중</p></body></html>"))
	require.Equal(t, domain.FlatForecast(), rows)
	require.Len(t, rows, 24)
}

const congestionPageHTML = `<html><body>
<table>
	<tr><td>출국장 1</td><td>원활</td><td>8분</td></tr>
	<tr><td>출국장 2</td><td>보통</td><td>18분</td></tr>
</table>
<table>
	<tr><td>06시</td><td class="blue">1,500</td></tr>
	<tr class="red"><td>07시</td><td>6,200</td></tr>
</table>
</body></html>`

func TestCongestionScraperPrefersAjax(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "congestionAjax") {
			_, _ = w.Write([]byte(`{"DG1_E": 35, "DG2": 5}`))
			return
		}
		_, _ = w.Write([]byte(congestionPageHTML))
	}))
	defer srv.Close()

	clk := fixedClock{now: time.Date(2026, 9, 1, 7, 30, 0, 0, time.Local)}
	s := NewCongestionScraper(testClient(t, srv.URL), clk, zap.NewNop())

	got, err := s.Scrape(context.Background(), domain.TerminalT2)
	require.NoError(t, err)

	require.Len(t, got.Gates, 2)
	require.Equal(t, 35, *got.Gates[0].WaitTimeMinutes, "AJAX wait wins over the table's")
	require.Equal(t, domain.LevelVeryCongested, got.Gates[0].CongestionLevel)
	require.Equal(t, domain.LevelSmooth, got.Gates[1].CongestionLevel)
	require.Equal(t, domain.LevelVeryCongested, got.OverallLevel)
	require.Len(t, got.HourlyForecast, 2)
	require.Equal(t, clk.now, got.Timestamp)
}

func TestCongestionScraperFallsBackToWaitTable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "congestionAjax") {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(congestionPageHTML))
	}))
	defer srv.Close()

	s := NewCongestionScraper(testClient(t, srv.URL), fixedClock{now: time.Now()}, zap.NewNop())
	got, err := s.Scrape(context.Background(), domain.TerminalT2)
	require.NoError(t, err)

	require.Len(t, got.Gates, 2)
	require.Equal(t, 8, *got.Gates[0].WaitTimeMinutes)
	require.Equal(t, 18, *got.Gates[1].WaitTimeMinutes)
}

func TestCongestionScraperPageFailureKeepsAjaxGates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "congestionAjax") {
			_, _ = w.Write([]byte(`{"DG1_E": 12, "DG2": 3}`))
			return
		}
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewCongestionScraper(testClient(t, srv.URL), fixedClock{now: time.Now()}, zap.NewNop())
	got, err := s.Scrape(context.Background(), domain.TerminalT2)
	require.NoError(t, err)

	require.Equal(t, 12, *got.Gates[0].WaitTimeMinutes)
	require.Equal(t, domain.FlatForecast(), got.HourlyForecast)
}

func TestCongestionScraperBothSourcesFailing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewCongestionScraper(testClient(t, srv.URL), fixedClock{now: time.Now()}, zap.NewNop())
	_, err := s.Scrape(context.Background(), domain.TerminalT1)
	require.Error(t, err)
}
