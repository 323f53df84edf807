// Package calendar provides the month arithmetic used to bucket ledger rows into calendar months.
package calendar

import "time"

// Layout is the date format used for anchors and report headers.
const Layout = "2006-01-02"

// Window is the half-open interval (PreviousMonthEnd, MonthEnd] covering one calendar month.
type Window struct {
	MonthEnd         time.Time
	PreviousMonthEnd time.Time
}

// MonthEnd returns the last calendar day of date's month at midnight UTC.
func MonthEnd(date time.Time) time.Time {
	// Day 0 of the next month is the last day of this one.
	return time.Date(date.Year(), date.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

// PreviousMonthEnd returns the last calendar day of the month before date's month.
func PreviousMonthEnd(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 0, 0, 0, 0, 0, time.UTC)
}

// MonthWindow returns the window of the month containing anchor.
func MonthWindow(anchor time.Time) Window {
	return Window{
		MonthEnd:         MonthEnd(anchor),
		PreviousMonthEnd: PreviousMonthEnd(anchor),
	}
}

// Contains reports whether date falls inside the window.
// Only the calendar day of date is compared; the time of day is ignored.
func (w Window) Contains(date time.Time) bool {
	d := Day(date)
	return d.After(w.PreviousMonthEnd) && !d.After(w.MonthEnd)
}

// String renders the window as "(prev, end]".
func (w Window) String() string {
	return "(" + w.PreviousMonthEnd.Format(Layout) + ", " + w.MonthEnd.Format(Layout) + "]"
}

// Day truncates date to midnight UTC of the same calendar day.
func Day(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
}

// AddMonths moves date forward by n months, clamping the day to the target month's length
// (Jan 31 + 1 month is Feb 28/29, not Mar 3).
func AddMonths(date time.Time, n int) time.Time {
	first := time.Date(date.Year(), date.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	day := date.Day()
	if last := MonthEnd(first).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// Parse parses a YYYY-MM-DD date as midnight UTC.
func Parse(value string) (time.Time, error) {
	return time.ParseInLocation(Layout, value, time.UTC)
}
