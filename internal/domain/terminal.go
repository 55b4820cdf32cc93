// Package domain holds the typed records the scrapers produce and the
// normalization rules that turn scraped text into them.
package domain

import (
	"fmt"
	"strings"
)

// Terminal identifies one of the airport's two passenger terminals.
type Terminal string

const (
	TerminalT1 Terminal = "T1"
	TerminalT2 Terminal = "T2"
)

// AllTerminals is the full terminal set, in stable order.
var AllTerminals = []Terminal{TerminalT1, TerminalT2}

// ParseTerminal validates a terminal code. Matching is case-insensitive.
func ParseTerminal(code string) (Terminal, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "T1":
		return TerminalT1, nil
	case "T2":
		return TerminalT2, nil
	default:
		return "", fmt.Errorf("unknown terminal %q", code)
	}
}

// Code returns the upstream query value for the terminal ("T1"/"T2").
func (t Terminal) Code() string {
	return string(t)
}
