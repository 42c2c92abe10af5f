package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RepeatType selects the recurrence shape of a RepeatRule.
type RepeatType string

const (
	RepeatDaily       RepeatType = "DAILY"
	RepeatEveryNDays  RepeatType = "EVERY_N_DAYS"
	RepeatWeekly      RepeatType = "WEEKLY"
	RepeatEveryNWeeks RepeatType = "EVERY_N_WEEKS"
	RepeatMonthly     RepeatType = "MONTHLY"
	RepeatYearly      RepeatType = "YEARLY"
)

// Weekday uses the three-letter uppercase form shared with the client.
type Weekday string

const (
	Mon Weekday = "MON"
	Tue Weekday = "TUE"
	Wed Weekday = "WED"
	Thu Weekday = "THU"
	Fri Weekday = "FRI"
	Sat Weekday = "SAT"
	Sun Weekday = "SUN"
)

var weekdayIndex = map[Weekday]time.Weekday{
	Mon: time.Monday,
	Tue: time.Tuesday,
	Wed: time.Wednesday,
	Thu: time.Thursday,
	Fri: time.Friday,
	Sat: time.Saturday,
	Sun: time.Sunday,
}

// RepeatRule is a tagged recurrence variant. Only the fields relevant to
// Type are populated; the rest stay at their zero value and are omitted
// from JSON. Stored as a JSON text column.
type RepeatRule struct {
	Type  RepeatType `json:"type"`
	N     int        `json:"n,omitempty"`
	Days  []Weekday  `json:"days,omitempty"`
	Day   int        `json:"day,omitempty"`
	Month int        `json:"month,omitempty"`
}

// Validate checks that the rule's fields match its type.
func (r *RepeatRule) Validate() error {
	switch r.Type {
	case RepeatDaily:
		return nil
	case RepeatEveryNDays:
		if r.N < 1 {
			return fmt.Errorf("repeat rule %s: n must be >= 1", r.Type)
		}
	case RepeatWeekly:
		if err := validDays(r.Days); err != nil {
			return fmt.Errorf("repeat rule %s: %w", r.Type, err)
		}
	case RepeatEveryNWeeks:
		if r.N < 1 {
			return fmt.Errorf("repeat rule %s: n must be >= 1", r.Type)
		}
		if err := validDays(r.Days); err != nil {
			return fmt.Errorf("repeat rule %s: %w", r.Type, err)
		}
	case RepeatMonthly:
		if r.Day < 1 || r.Day > 31 {
			return fmt.Errorf("repeat rule %s: day out of range", r.Type)
		}
	case RepeatYearly:
		if r.Month < 1 || r.Month > 12 || r.Day < 1 || r.Day > 31 {
			return fmt.Errorf("repeat rule %s: month/day out of range", r.Type)
		}
	default:
		return fmt.Errorf("unknown repeat rule type %q", r.Type)
	}
	return nil
}

func validDays(days []Weekday) error {
	if len(days) == 0 {
		return fmt.Errorf("days must not be empty")
	}
	for _, d := range days {
		if _, ok := weekdayIndex[d]; !ok {
			return fmt.Errorf("unknown weekday %q", d)
		}
	}
	return nil
}

// Next returns the first occurrence strictly after the given time,
// preserving its clock time and location.
func (r *RepeatRule) Next(after time.Time) (time.Time, error) {
	if err := r.Validate(); err != nil {
		return time.Time{}, err
	}

	switch r.Type {
	case RepeatDaily:
		return after.AddDate(0, 0, 1), nil

	case RepeatEveryNDays:
		return after.AddDate(0, 0, r.N), nil

	case RepeatWeekly:
		return r.nextWeekday(after, 1), nil

	case RepeatEveryNWeeks:
		return r.nextWeekday(after, r.N), nil

	case RepeatMonthly:
		next := clampDay(after.Year(), after.Month(), r.Day, after)
		if !next.After(after) {
			y, m := after.Year(), after.Month()+1
			next = clampDay(y, m, r.Day, after)
		}
		return next, nil

	case RepeatYearly:
		next := clampDay(after.Year(), time.Month(r.Month), r.Day, after)
		if !next.After(after) {
			next = clampDay(after.Year()+1, time.Month(r.Month), r.Day, after)
		}
		return next, nil
	}

	return time.Time{}, fmt.Errorf("unknown repeat rule type %q", r.Type)
}

// nextWeekday finds the next listed weekday. Any listed day remaining in
// the current Monday-based week wins; otherwise the rule skips ahead to
// the week `weeks` weeks out and takes its earliest listed day.
func (r *RepeatRule) nextWeekday(after time.Time, weeks int) time.Time {
	for c := after.AddDate(0, 0, 1); c.Weekday() != time.Monday; c = c.AddDate(0, 0, 1) {
		if r.matchesDay(c.Weekday()) {
			return c
		}
	}
	c := startOfNextWeek(after).AddDate(0, 0, 7*(weeks-1))
	for !r.matchesDay(c.Weekday()) {
		c = c.AddDate(0, 0, 1)
	}
	return c
}

func startOfNextWeek(t time.Time) time.Time {
	c := t.AddDate(0, 0, 1)
	for c.Weekday() != time.Monday {
		c = c.AddDate(0, 0, 1)
	}
	return c
}

func (r *RepeatRule) matchesDay(wd time.Weekday) bool {
	for _, d := range r.Days {
		if weekdayIndex[d] == wd {
			return true
		}
	}
	return false
}

// clampDay builds a date in the given year/month clamped to the month's
// length, keeping the clock time and location of ref.
func clampDay(year int, month time.Month, day int, ref time.Time) time.Time {
	// Normalize month overflow (e.g. December + 1).
	base := time.Date(year, month, 1, 0, 0, 0, 0, ref.Location())
	last := base.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	h, m, s := ref.Clock()
	return time.Date(base.Year(), base.Month(), day, h, m, s, ref.Nanosecond(), ref.Location())
}

// Value implements driver.Valuer, serializing the rule as JSON text.
func (r RepeatRule) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal repeat rule: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner for the JSON text column.
func (r *RepeatRule) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		return json.Unmarshal([]byte(v), r)
	case []byte:
		return json.Unmarshal(v, r)
	default:
		return fmt.Errorf("scan repeat rule: unsupported type %T", src)
	}
}
