package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func TestRepeatRule_Next_Daily(t *testing.T) {
	rule := RepeatRule{Type: RepeatDaily}

	next, err := rule.Next(date(2026, time.March, 10))
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.March, 11), next)
}

func TestRepeatRule_Next_EveryNDays(t *testing.T) {
	rule := RepeatRule{Type: RepeatEveryNDays, N: 3}

	next, err := rule.Next(date(2026, time.March, 10))
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.March, 13), next)
}

func TestRepeatRule_Next_Weekly(t *testing.T) {
	// 2026-03-10 is a Tuesday.
	rule := RepeatRule{Type: RepeatWeekly, Days: []Weekday{Mon, Fri}}

	next, err := rule.Next(date(2026, time.March, 10))
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.March, 13), next, "Friday of the same week comes first")

	next, err = rule.Next(next)
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.March, 16), next, "then the following Monday")
}

func TestRepeatRule_Next_EveryNWeeks(t *testing.T) {
	// Tuesday; no listed day remains this week, so skip two weeks out.
	rule := RepeatRule{Type: RepeatEveryNWeeks, N: 2, Days: []Weekday{Mon}}

	next, err := rule.Next(date(2026, time.March, 10))
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.March, 23), next)
}

func TestRepeatRule_Next_Monthly(t *testing.T) {
	rule := RepeatRule{Type: RepeatMonthly, Day: 15}

	next, err := rule.Next(date(2026, time.March, 10))
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.March, 15), next, "same month when the day is still ahead")

	next, err = rule.Next(date(2026, time.March, 20))
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.April, 15), next)
}

func TestRepeatRule_Next_Monthly_ClampsShortMonths(t *testing.T) {
	rule := RepeatRule{Type: RepeatMonthly, Day: 31}

	next, err := rule.Next(date(2026, time.February, 1))
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.February, 28), next)
}

func TestRepeatRule_Next_Yearly(t *testing.T) {
	rule := RepeatRule{Type: RepeatYearly, Month: 1, Day: 1}

	next, err := rule.Next(date(2026, time.March, 10))
	require.NoError(t, err)
	assert.Equal(t, date(2027, time.January, 1), next)
}

func TestRepeatRule_Next_StrictlyAfter(t *testing.T) {
	rules := []RepeatRule{
		{Type: RepeatDaily},
		{Type: RepeatEveryNDays, N: 1},
		{Type: RepeatWeekly, Days: []Weekday{Tue}},
		{Type: RepeatMonthly, Day: 10},
		{Type: RepeatYearly, Month: 3, Day: 10},
	}
	after := date(2026, time.March, 10) // a Tuesday

	for _, rule := range rules {
		next, err := rule.Next(after)
		require.NoError(t, err)
		assert.True(t, next.After(after), "rule %s returned %s", rule.Type, next)
	}
}

func TestRepeatRule_Validate(t *testing.T) {
	cases := []struct {
		name    string
		rule    RepeatRule
		wantErr bool
	}{
		{"daily", RepeatRule{Type: RepeatDaily}, false},
		{"every n days without n", RepeatRule{Type: RepeatEveryNDays}, true},
		{"weekly without days", RepeatRule{Type: RepeatWeekly}, true},
		{"weekly bad day", RepeatRule{Type: RepeatWeekly, Days: []Weekday{"XYZ"}}, true},
		{"monthly day 32", RepeatRule{Type: RepeatMonthly, Day: 32}, true},
		{"yearly ok", RepeatRule{Type: RepeatYearly, Month: 12, Day: 25}, false},
		{"unknown type", RepeatRule{Type: "SOMETIMES"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rule.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRepeatRule_ScanValue(t *testing.T) {
	rule := RepeatRule{Type: RepeatEveryNWeeks, N: 2, Days: []Weekday{Mon, Thu}}

	v, err := rule.Value()
	require.NoError(t, err)

	var decoded RepeatRule
	require.NoError(t, decoded.Scan(v))
	assert.Equal(t, rule, decoded)
}
