package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
)

const (
	dateMember         = "date"
	currencyMember     = "currency"
	exchangeRateMember = "exchangeRate"
)

var jsonNull = json.RawMessage("null")

// RateEntry is one currency object of an archive. Only "currency" is interpreted,
// every member is passed through as received.
type RateEntry struct {
	RawObject
}

// Currency reports false when the member is missing or not a string, such an entry never matches a selection.
func (e RateEntry) Currency() (string, bool) {
	return e.StringField(currencyMember)
}

// RateResponse is the archive document returned for a single date.
type RateResponse struct {
	Date         json.RawMessage
	ExchangeRate []RateEntry
	Document     RawObject
}

// ParseRateResponse accepts any JSON object. A missing or malformed exchangeRate array
// yields no entries and non-object entries are skipped; only a body that is not a JSON object fails.
func ParseRateResponse(body []byte) (*RateResponse, error) {
	var document RawObject
	if err := json.Unmarshal(body, &document); err != nil {
		return nil, fmt.Errorf("not a JSON document: %w", err)
	}

	response := &RateResponse{Date: jsonNull, ExchangeRate: make([]RateEntry, 0), Document: document}
	if date, ok := document.Get(dateMember); ok {
		response.Date = date
	}

	raw, ok := document.Get(exchangeRateMember)
	if !ok {
		return response, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return response, nil
	}
	for _, item := range items {
		var entry RawObject
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		response.ExchangeRate = append(response.ExchangeRate, RateEntry{RawObject: entry})
	}
	return response, nil
}

// RateRecord is a RateEntry tagged with the date of the document it came from.
// It serializes as the entry's members preceded by "date"; an entry's own "date" wins.
type RateRecord struct {
	Date  json.RawMessage
	Entry RateEntry
}

func (r RateRecord) Currency() string {
	currency, _ := r.Entry.Currency()
	return currency
}

// Field returns a member of the serialized record.
func (r RateRecord) Field(key string) (json.RawMessage, bool) {
	if key == dateMember {
		return r.date(), true
	}
	return r.Entry.Get(key)
}

func (r RateRecord) date() json.RawMessage {
	if date, ok := r.Entry.Get(dateMember); ok {
		return date
	}
	if len(r.Date) == 0 {
		return jsonNull
	}
	return r.Date
}

func (r RateRecord) MarshalJSON() ([]byte, error) {
	fields := make(RawObject, 0, len(r.Entry.RawObject)+1)
	fields = append(fields, RawField{Key: dateMember, Value: r.date()})
	for _, field := range r.Entry.RawObject {
		if field.Key != dateMember {
			fields = append(fields, field)
		}
	}
	return fields.MarshalJSON()
}

// FetchResult holds either the response for Date or the reason it could not be fetched.
type FetchResult struct {
	Date     time.Time
	Response *RateResponse
	Err      error
}

func (r FetchResult) OK() bool {
	return r.Err == nil && r.Response != nil
}

// RateQueryResult is indexed identically to the DateRange it was fetched for.
type RateQueryResult []FetchResult

// Failed returns the results that carry a failure marker.
func (q RateQueryResult) Failed() []FetchResult {
	return lo.Filter(q, func(item FetchResult, _ int) bool {
		return !item.OK()
	})
}

// Aggregate keeps the entries of every successful result whose currency is selected,
// in date order then upstream order. The result is never nil.
func Aggregate(results RateQueryResult, selection CurrencySelection) []RateRecord {
	records := make([]RateRecord, 0)
	for _, result := range results {
		if !result.OK() {
			continue
		}
		for _, entry := range result.Response.ExchangeRate {
			currency, ok := entry.Currency()
			if !ok || !selection.Contains(currency) {
				continue
			}
			records = append(records, RateRecord{Date: result.Response.Date, Entry: entry})
		}
	}
	return records
}
