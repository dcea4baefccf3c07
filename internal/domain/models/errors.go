package models

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSymbol     = errors.New("unknown symbol")
	ErrPortfolioNotFound = errors.New("portfolio not found")
	// ErrMarketData marks failures of the upstream price source.
	ErrMarketData = errors.New("market data unavailable")
)

// InsufficientDataError reports a price history that cannot support the
// requested indicator windows.
type InsufficientDataError struct {
	Symbol string
	Have   int
	Need   int
	Reason string
}

func (e *InsufficientDataError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("insufficient data for %s: %s (have %d, need %d)", e.Symbol, e.Reason, e.Have, e.Need)
	}
	return fmt.Sprintf("insufficient data for %s: have %d, need %d", e.Symbol, e.Have, e.Need)
}

// InvalidBudgetError reports a non-positive cash amount.
type InvalidBudgetError struct {
	Cash float64
}

func (e *InvalidBudgetError) Error() string {
	return fmt.Sprintf("invalid budget: cash must be positive, got %.2f", e.Cash)
}

// IsInsufficientData reports whether err wraps an InsufficientDataError.
func IsInsufficientData(err error) bool {
	var target *InsufficientDataError
	return errors.As(err, &target)
}

// IsInvalidBudget reports whether err wraps an InvalidBudgetError.
func IsInvalidBudget(err error) bool {
	var target *InvalidBudgetError
	return errors.As(err, &target)
}
