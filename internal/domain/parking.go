package domain

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ParkingStatus classifies a single floor or tower.
type ParkingStatus string

const (
	ParkingAvailable ParkingStatus = "available"
	ParkingFull      ParkingStatus = "full"
	ParkingUnknown   ParkingStatus = "unknown"
)

// ParkingFloor is one floor of a short-term lot or one tower of a long-term
// lot. AvailableSpaces is non-nil exactly when Status is ParkingAvailable.
type ParkingFloor struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Status          ParkingStatus `json:"status"`
	AvailableSpaces *int          `json:"availableSpaces"`
	RawText         string        `json:"rawText,omitempty"`
}

// ParkingSection aggregates the floors (or towers) of one lot type.
// Unavailable marks a terminal that publishes no real-time data for this lot
// type; that is a valid state, not a scrape failure.
type ParkingSection struct {
	Floors         []ParkingFloor `json:"floors"`
	TotalAvailable int            `json:"totalAvailable"`
	HasFull        bool           `json:"hasFull"`
	Unavailable    bool           `json:"unavailable,omitempty"`
}

// ParkingInfo is one terminal's full parking snapshot.
type ParkingInfo struct {
	Terminal         Terminal       `json:"terminal"`
	ShortTerm        ParkingSection `json:"shortTerm"`
	LongTerm         ParkingSection `json:"longTerm"`
	Timestamp        time.Time      `json:"timestamp"`
	PeakHoursWarning bool           `json:"peakHoursWarning"`
}

var availabilityRe = regexp.MustCompile(`(\d+)\s*대\s*가능`)

// ParseAvailability normalizes the site's availability text. "만차" means the
// lot is full; "N대 가능" means N spaces remain; anything else is unknown.
func ParseAvailability(text string) (ParkingStatus, *int) {
	if strings.Contains(text, "만차") {
		return ParkingFull, nil
	}
	if m := availabilityRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return ParkingAvailable, &n
		}
	}
	return ParkingUnknown, nil
}

// NewParkingSection derives the aggregate fields from a floor list.
func NewParkingSection(floors []ParkingFloor) ParkingSection {
	s := ParkingSection{Floors: floors}
	if floors == nil {
		s.Floors = []ParkingFloor{}
	}
	for _, f := range floors {
		if f.AvailableSpaces != nil {
			s.TotalAvailable += *f.AvailableSpaces
		}
		if f.Status == ParkingFull {
			s.HasFull = true
		}
	}
	return s
}

// UnavailableSection marks a lot type the terminal publishes no data for.
func UnavailableSection() ParkingSection {
	return ParkingSection{Floors: []ParkingFloor{}, Unavailable: true}
}

var (
	basementIDRe = regexp.MustCompile(`^B(\d+)$`)
	mezzIDRe     = regexp.MustCompile(`^M(\d+)$`)
	groundIDRe   = regexp.MustCompile(`^(\d+)F$`)
)

// floorOrdinal maps a floor id to its canonical position: basements deepest
// first, then M-floors numerically, then ground floors ascending. Ids outside
// those families (towers like P1) sort after floors in id order.
func floorOrdinal(id string) int {
	if m := basementIDRe.FindStringSubmatch(id); m != nil {
		n, _ := strconv.Atoi(m[1])
		return -n
	}
	if m := mezzIDRe.FindStringSubmatch(id); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	if m := groundIDRe.FindStringSubmatch(id); m != nil {
		n, _ := strconv.Atoi(m[1])
		return 100 + n
	}
	return 10000
}

// SortFloors orders floors canonically: B2 before B1, M-floors between, then
// 1F, 2F ascending. The sort is stable so equal-ordinal entries keep scrape
// order and repeated scrapes of the same page stay byte-identical.
func SortFloors(floors []ParkingFloor) {
	sort.SliceStable(floors, func(i, j int) bool {
		oi, oj := floorOrdinal(floors[i].ID), floorOrdinal(floors[j].ID)
		if oi != oj {
			return oi < oj
		}
		return floors[i].ID < floors[j].ID
	})
}
