package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// Times in the dispatch core are "HH:MM" strings in 24-hour format with
// leading zeros. "24:00" is accepted as an end-of-day boundary.

// Minutes converts an "HH:MM" string to minutes since midnight.
func Minutes(t string) (int, error) {
	if len(t) != 5 || t[2] != ':' {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", t)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if t[i] < '0' || t[i] > '9' {
			return 0, fmt.Errorf("invalid time %q: expected HH:MM", t)
		}
	}
	hour := int(t[0]-'0')*10 + int(t[1]-'0')
	minute := int(t[3]-'0')*10 + int(t[4]-'0')
	if minute > 59 {
		return 0, fmt.Errorf("invalid time %q: minute out of range", t)
	}
	if hour > 24 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("invalid time %q: hour out of range", t)
	}
	return hour*60 + minute, nil
}

// FormatMinutes converts minutes since midnight back to "HH:MM".
func FormatMinutes(m int) string {
	if m < 0 {
		m = 0
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// AddMinutes shifts an "HH:MM" time by n minutes (n may be negative).
func AddMinutes(t string, n int) (string, error) {
	m, err := Minutes(t)
	if err != nil {
		return "", err
	}
	return FormatMinutes(m + n), nil
}

// Difference returns minutes(b) - minutes(a).
func Difference(a, b string) (int, error) {
	ma, err := Minutes(a)
	if err != nil {
		return 0, err
	}
	mb, err := Minutes(b)
	if err != nil {
		return 0, err
	}
	return mb - ma, nil
}

// IsValid reports whether t is a well-formed "HH:MM" time.
func IsValid(t string) bool {
	_, err := Minutes(t)
	return err == nil
}

// TourRunKey builds the canonical "{tourId}|{YYYY-MM-DD}|{HH:MM}" run key.
func TourRunKey(tourID, dateKey, timeStr string) string {
	return tourID + "|" + dateKey + "|" + timeStr
}

// ParseTourRunKey splits a run key into its three parts.
func ParseTourRunKey(key string) (tourID, dateKey, timeStr string, err error) {
	parts := strings.Split(key, "|")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("invalid tour run key %q", key)
	}
	return parts[0], parts[1], parts[2], nil
}

// FormatDateKey normalizes a date to "YYYY-MM-DD" in the given location.
// Accepts either a bare calendar day ("2026-08-24") or an RFC3339 timestamp;
// both forms of the same logical day produce the same key.
func FormatDateKey(value string, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}
	if d, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return d.Format("2006-01-02"), nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", value, err)
	}
	return ts.In(loc).Format("2006-01-02"), nil
}

// DateKeyFromTime normalizes a timestamp to "YYYY-MM-DD" in the given location.
func DateKeyFromTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}

// DayOfWeek returns the 0=Sunday..6=Saturday index of a "YYYY-MM-DD" date key.
func DayOfWeek(dateKey string) (int, error) {
	d, err := time.Parse("2006-01-02", dateKey)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", dateKey, err)
	}
	return int(d.Weekday()), nil
}
