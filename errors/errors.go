package errors

import "fmt"

var (
	ErrWorkerPanic    = fmt.Errorf("worker panic")
	ErrUsage          = fmt.Errorf("wrong number of arguments")
	ErrInvalidDays    = fmt.Errorf("invalid number of days")
	ErrDaysRange      = fmt.Errorf("number of days out of range")
	ErrUpstreamStatus = fmt.Errorf("upstream returned an unexpected status")
	ErrFetchPanic     = fmt.Errorf("rate fetch panic")
	ErrPeerClosed     = fmt.Errorf("peer connection closed")
)
