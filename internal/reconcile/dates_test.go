package reconcile

import (
	"testing"
	"time"

	"github.com/example/anihistory/internal/anilist"
)

func intp(v int) *int { return &v }

func TestWholeDate_AllPresent(t *testing.T) {
	got := wholeDate(anilist.PartialDate{Year: intp(2020), Month: intp(1), Day: intp(1)})
	if got == nil {
		t.Fatal("expected a date")
	}
	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestWholeDate_MissingDay(t *testing.T) {
	if got := wholeDate(anilist.PartialDate{Year: intp(2020), Month: intp(1)}); got != nil {
		t.Fatalf("year+month only must resolve to no date, got %v", got)
	}
}

func TestWholeDate_MissingYear(t *testing.T) {
	if got := wholeDate(anilist.PartialDate{Month: intp(1), Day: intp(1)}); got != nil {
		t.Fatalf("missing year must resolve to no date, got %v", got)
	}
}

func TestWholeDate_InvalidDayOfMonth(t *testing.T) {
	if got := wholeDate(anilist.PartialDate{Year: intp(2020), Month: intp(2), Day: intp(30)}); got != nil {
		t.Fatalf("feb 30 must resolve to no date, got %v", got)
	}
}

func TestWholeDate_InvalidMonth(t *testing.T) {
	if got := wholeDate(anilist.PartialDate{Year: intp(2020), Month: intp(13), Day: intp(1)}); got != nil {
		t.Fatalf("month 13 must resolve to no date, got %v", got)
	}
}

func TestWholeDate_LeapDay(t *testing.T) {
	if got := wholeDate(anilist.PartialDate{Year: intp(2020), Month: intp(2), Day: intp(29)}); got == nil {
		t.Fatal("2020-02-29 is a real day and must resolve")
	}
	if got := wholeDate(anilist.PartialDate{Year: intp(2021), Month: intp(2), Day: intp(29)}); got != nil {
		t.Fatalf("2021-02-29 must resolve to no date, got %v", got)
	}
}
