package domain

import (
	"strings"

	"github.com/samber/lo"
)

// CurrencySelection is the set of currency codes a command keeps, in request order.
// Codes are not validated: unknown ones simply match nothing.
type CurrencySelection []string

func DefaultCurrencies() CurrencySelection {
	return CurrencySelection{"EUR", "USD"}
}

// ParseCurrencySelection splits a comma separated list of codes.
func ParseCurrencySelection(raw string) CurrencySelection {
	return strings.Split(raw, ",")
}

func (s CurrencySelection) Contains(code string) bool {
	return lo.Contains(s, code)
}

func (s CurrencySelection) String() string {
	return strings.Join(s, ",")
}
