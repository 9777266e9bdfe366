package model

import "time"

// DividendEvent is a single canonicalized dividend payment for a ticker.
// Raw ledger records carry several optional date fields in several textual
// formats; the ledger normalizes them into this one shape at its boundary.
type DividendEvent struct {
	Ticker    string    `json:"ticker"`
	Amount    float64   `json:"amount"`
	EventDate time.Time `json:"eventDate"`
}
