package domain

import (
	"chat-exchange/errors"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

const ExchangeKeyword = "exchange"

// ExchangeCommand is a validated `exchange <days> [<c1,c2,...>]` request.
type ExchangeCommand struct {
	Days       int
	Currencies CurrencySelection
}

// IsExchangeCommand reports whether the message starts with the exchange keyword as a whole token.
func IsExchangeCommand(message string) bool {
	rest, ok := strings.CutPrefix(message, ExchangeKeyword)
	if !ok {
		return false
	}
	return rest == "" || unicode.IsSpace([]rune(rest)[0])
}

// ParseExchangeCommand validates the arguments of an exchange message.
// Errors wrap ErrUsage, ErrInvalidDays or ErrDaysRange.
func ParseExchangeCommand(message string) (ExchangeCommand, error) {
	parts := strings.Fields(message)
	if len(parts) < 2 || len(parts) > 3 {
		return ExchangeCommand{}, fmt.Errorf("%w: expected 1 or 2 arguments, got %d", errors.ErrUsage, len(parts)-1)
	}

	days, err := strconv.Atoi(parts[1])
	var numErr *strconv.NumError
	if stderrors.As(err, &numErr) && stderrors.Is(numErr.Err, strconv.ErrRange) {
		// An integer too large for int is still an integer, only out of range.
		return ExchangeCommand{}, fmt.Errorf("%w: got %s", errors.ErrDaysRange, parts[1])
	}
	if err != nil {
		return ExchangeCommand{}, fmt.Errorf("%w: %q is not an integer", errors.ErrInvalidDays, parts[1])
	}
	if days < MinDays || days > MaxDays {
		return ExchangeCommand{}, fmt.Errorf("%w: got %d", errors.ErrDaysRange, days)
	}

	currencies := DefaultCurrencies()
	if len(parts) == 3 {
		currencies = ParseCurrencySelection(parts[2])
	}
	return ExchangeCommand{Days: days, Currencies: currencies}, nil
}
