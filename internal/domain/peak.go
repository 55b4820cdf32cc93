package domain

import "time"

// Peak windows in the site's local wall clock, inclusive at both bounds:
// 05:00-08:00 covers the morning departure wave, 16:00-19:00 the evening one.
var peakWindows = []struct{ startMin, endMin int }{
	{5 * 60, 8 * 60},
	{16 * 60, 19 * 60},
}

// IsPeakHours reports whether t falls inside a peak window. Boundaries are
// inclusive: 05:00 and 08:00 are peak, 04:59 and 19:01 are not.
func IsPeakHours(t time.Time) bool {
	min := t.Hour()*60 + t.Minute()
	for _, w := range peakWindows {
		if min >= w.startMin && min <= w.endMin {
			return true
		}
	}
	return false
}
