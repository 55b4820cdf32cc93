// Package scraper extracts typed records from the airport site's HTML pages
// and undocumented AJAX/POST endpoints. Scrapers know nothing about caching
// or scheduling; they fetch, parse, and return records.
package scraper

import (
	"context"

	"github.com/everdeen7336/airport-live/internal/domain"
)

// Scraper produces one record type for one terminal.
type Scraper[T any] interface {
	Scrape(ctx context.Context, terminal domain.Terminal) (T, error)
}

// Upstream paths. The site is unversioned and rearranges without notice;
// these are the observed endpoints, not a contract.
const (
	shortTermParkingPath = "/ap/ko/dep/parkingShortTerm.do?terminal="
	longTermParkingPath  = "/ap/ko/dep/parkingLongTerm.do?terminal="
	congestionPagePath   = "/ap/ko/dep/congestion.do?terminal="
	congestionAjaxPath   = "/ap/ko/dep/congestionAjax.do?terminal="
)
