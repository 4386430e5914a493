package domain

import (
	"chat-exchange/errors"
	"fmt"
	"time"
)

const (
	MinDays = 1
	MaxDays = 10

	// DateLayout is the DD.MM.YYYY layout expected by the rates archive.
	DateLayout = "02.01.2006"
)

// DateRange is an ordered sequence of calendar dates, from today backward.
type DateRange []time.Time

// NewDateRange builds [today, today-1, ..., today-(days-1)].
// Dates are truncated to midnight in the location of today.
func NewDateRange(today time.Time, days int) (DateRange, error) {
	if days < MinDays || days > MaxDays {
		return nil, fmt.Errorf("%w: got %d", errors.ErrDaysRange, days)
	}
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	dates := make(DateRange, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, start.AddDate(0, 0, -i))
	}
	return dates, nil
}

func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}
