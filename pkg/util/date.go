package util

import "time"

const dayFormat = "2006-01-02"

// FormatDay renders t as YYYY-MM-DD in UTC, the format market data
// providers expect for daily range queries.
func FormatDay(t time.Time) string {
	return t.UTC().Format(dayFormat)
}

// DayRange returns [today-lookbackDays, today] as YYYY-MM-DD strings.
func DayRange(now time.Time, lookbackDays int) (string, string) {
	return FormatDay(now.AddDate(0, 0, -lookbackDays)), FormatDay(now)
}

// ParseDay parses a YYYY-MM-DD string. Returns false when the string
// does not match.
func ParseDay(s string) (time.Time, bool) {
	t, err := time.Parse(dayFormat, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
