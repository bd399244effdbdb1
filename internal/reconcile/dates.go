package reconcile

import (
	"time"

	"github.com/example/anihistory/internal/anilist"
)

// wholeDate resolves a fuzzy catalog date to a concrete day. The contract
// is all-or-nothing: every component must be present and the combination
// must name a real day of month, otherwise there is no date at all.
func wholeDate(d anilist.PartialDate) *time.Time {
	if d.Year == nil || d.Month == nil || d.Day == nil {
		return nil
	}
	year, month, day := *d.Year, *d.Month, *d.Day
	if month < 1 || month > 12 || day < 1 {
		return nil
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject anything
	// that did not round-trip.
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return nil
	}
	return &t
}
