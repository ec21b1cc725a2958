package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PeriodUnit is the calendar unit of a recurrence.
type PeriodUnit string

const (
	Day   PeriodUnit = "D"
	Week  PeriodUnit = "W"
	Month PeriodUnit = "M"
	Year  PeriodUnit = "Y"
)

// Period is a recurrence interval such as every 2 weeks.
type Period struct {
	Multiplier int
	Unit       PeriodUnit
}

// ParsePeriod reads forms like "1M", "2W", "10D", "1Y".
func ParsePeriod(s string) (Period, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Period{}, fmt.Errorf("invalid period %q", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return Period{}, fmt.Errorf("invalid period multiplier in %q", s)
	}
	p := Period{Multiplier: n, Unit: PeriodUnit(s[len(s)-1:])}
	switch p.Unit {
	case Day, Week, Month, Year:
		return p, nil
	}
	return Period{}, fmt.Errorf("invalid period unit in %q", s)
}

func (p Period) String() string {
	return strconv.Itoa(p.Multiplier) + string(p.Unit)
}

// Next returns t advanced by one period.
func (p Period) Next(t time.Time) time.Time {
	switch p.Unit {
	case Day:
		return t.AddDate(0, 0, p.Multiplier)
	case Week:
		return t.AddDate(0, 0, 7*p.Multiplier)
	case Month:
		return t.AddDate(0, p.Multiplier, 0)
	case Year:
		return t.AddDate(p.Multiplier, 0, 0)
	}
	return t
}
