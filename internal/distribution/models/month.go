package models

import (
	"time"

	dErrors "smartration/pkg/domain-errors"
)

const monthLayout = "2006-01"

// Month is a calendar month in "YYYY-MM" form. Together with the card number it
// keys the one-issuance-per-month rule.
type Month string

// MonthOf returns the calendar month containing t in loc. A nil loc means UTC.
func MonthOf(t time.Time, loc *time.Location) Month {
	if loc == nil {
		loc = time.UTC
	}
	return Month(t.In(loc).Format(monthLayout))
}

func ParseMonth(s string) (Month, error) {
	if len(s) != len(monthLayout) {
		return "", dErrors.New(dErrors.CodeValidation, "month must be in YYYY-MM form")
	}
	if _, err := time.Parse(monthLayout, s); err != nil {
		return "", dErrors.New(dErrors.CodeValidation, "month must be in YYYY-MM form")
	}
	return Month(s), nil
}

func (m Month) String() string {
	return string(m)
}
