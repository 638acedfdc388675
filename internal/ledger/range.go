package ledger

import "time"

// Range is a closed [Start, End] interval of instants.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within r, both bounds included.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// endOfDay is the last microsecond of t's calendar day.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999999000, t.Location())
}

// TodayRange spans the calendar day of now.
func TodayRange(now time.Time) Range {
	return Range{Start: startOfDay(now), End: endOfDay(now)}
}

// WeekRange runs from Monday 00:00 of now's week to the end of now's day.
func WeekRange(now time.Time) Range {
	// time.Weekday counts from Sunday; shift so Monday is 0.
	offset := (int(now.Weekday()) + 6) % 7
	return Range{Start: startOfDay(now.AddDate(0, 0, -offset)), End: endOfDay(now)}
}

// MonthRange runs from the 1st of now's month to the end of now's day.
func MonthRange(now time.Time) Range {
	y, m, _ := now.Date()
	return Range{Start: time.Date(y, m, 1, 0, 0, 0, 0, now.Location()), End: endOfDay(now)}
}

// QuarterRange spans calendar quarter n (1-4) of now's year regardless of
// how far into the year now is. ok is false for any other n.
func QuarterRange(now time.Time, n int) (r Range, ok bool) {
	if n < 1 || n > 4 {
		return Range{}, false
	}
	first := time.Month(3*(n-1) + 1)
	start := time.Date(now.Year(), first, 1, 0, 0, 0, 0, now.Location())
	// Day 0 of the month after the quarter is the quarter's last day.
	last := time.Date(now.Year(), first+3, 0, 0, 0, 0, 0, now.Location())
	return Range{Start: start, End: endOfDay(last)}, true
}

// YearRange spans the whole calendar year of now.
func YearRange(now time.Time) Range {
	return Range{
		Start: time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()),
		End:   time.Date(now.Year(), time.December, 31, 23, 59, 59, 999999000, now.Location()),
	}
}
