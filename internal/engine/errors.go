package engine

import (
	"errors"
	"strconv"
	"time"
)

// Query outcomes, as logged and recorded in metrics.
const (
	OutcomeOK            = "ok"
	OutcomeInvalidSymbol = "invalid_symbol"
	OutcomeTimeout       = "timeout"
	OutcomeError         = "error"
)

// BadSymbol reports a quote that came back empty or without a price.
type BadSymbol struct {
	Symbol string
}

func (e *BadSymbol) Error() string { return "Invalid symbol or no data: " + e.Symbol }

// TimeoutError reports a fetch step that outlived its deadline.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return "Query timed out after " + strconv.FormatFloat(e.After.Seconds(), 'f', -1, 64) + " seconds"
}

// Outcome classifies the error returned by a query.
func Outcome(err error) string {
	var bad *BadSymbol
	var timeout *TimeoutError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &bad):
		return OutcomeInvalidSymbol
	case errors.As(err, &timeout):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}
