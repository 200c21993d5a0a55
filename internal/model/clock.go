package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the wire format of schedule dates and blob keys.
	DateLayout = "2006-01-02"
	// ClockLayout is the wire format of time-of-day fields.
	ClockLayout = "15:04"

	MinutesPerDay = 24 * 60
)

// ParseClock converts an "HH:mm" string into minutes since midnight.
// "24:00" is accepted as the end of the day.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time format %q, expected HH:mm", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}

	if hour == 24 && minute == 0 {
		return MinutesPerDay, nil
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes since midnight as "HH:mm".
func FormatClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate parses a "yyyy-MM-dd" date in UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// DateKey returns the blob key for t.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays shifts a date key by n days.
func AddDays(key string, n int) (string, error) {
	d, err := ParseDate(key)
	if err != nil {
		return "", err
	}
	return DateKey(d.AddDate(0, 0, n)), nil
}

// DateRange returns keys from..to inclusive.
func DateRange(from, to string) ([]string, error) {
	start, err := ParseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("range end %s is before start %s", to, from)
	}

	var keys []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		keys = append(keys, DateKey(d))
	}
	return keys, nil
}
