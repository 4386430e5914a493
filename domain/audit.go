package domain

import (
	"fmt"
	"time"
)

const AuditTimeLayout = "2006-01-02 15:04:05"

// AuditRecord describes one completed exchange command.
type AuditRecord struct {
	At         time.Time
	Addr       string
	Days       int
	Currencies CurrencySelection
	Document   string
}

func (r AuditRecord) Line() string {
	return fmt.Sprintf("%s - %s - %s %d %s - %s\n",
		r.At.Format(AuditTimeLayout), r.Addr, ExchangeKeyword, r.Days, r.Currencies, r.Document)
}
