package apperrors

import (
	"errors"
	"fmt"
)

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrQuoteNotFound indicates that the provider returned no quote for a ticker,
	// or that every configured request variant was exhausted without a result.
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrSettingNotFound indicates that a settings key has no stored value.
	ErrSettingNotFound = errors.New("setting not found")
)

// Provider errors represent failures while talking to the quote provider.
// They are recovered per ticker: the affected asset gets a status and a safe
// fallback price, and the fetch cycle continues.
var (
	// ErrNetworkTimeout indicates that a provider request exceeded its time budget.
	ErrNetworkTimeout = errors.New("provider request timed out")

	// ErrMalformedResponse indicates that a provider response could not be decoded.
	ErrMalformedResponse = errors.New("malformed provider response")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrMissingFernetKey indicates that an encrypted setting was requested but
	// no fernet key is configured.
	ErrMissingFernetKey = errors.New("fernet key not configured")
)

// ProviderHTTPError indicates that the quote provider answered with a
// non-success HTTP status.
type ProviderHTTPError struct {
	Status int
}

func (e *ProviderHTTPError) Error() string {
	return fmt.Sprintf("provider returned status %d", e.Status)
}

// DateParseError reports a raw dividend ledger event whose date could not be
// canonicalized with any candidate field or format. Such events are discarded
// from metric computation but surfaced for diagnostics.
type DateParseError struct {
	Ticker string
	Raw    string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("unparseable dividend date for %s: %q", e.Ticker, e.Raw)
}
