package repository

import (
	"database/sql"
	"fmt"
)

// RawDividend is a dividend ledger row as stored: an amount plus several
// optional textual date fields. The upstream importers never agreed on one
// date column or one format, so canonicalization is left to the ledger.
type RawDividend struct {
	Ticker      string
	Amount      float64
	ParsedDate  string
	PaymentDate string
	ExDate      string
	EventDate   string
}

// DividendRepository reads the dividend ledger storage: per-ticker keyed
// records plus one consolidated master collection tagged by ticker.
// Ledger population is an external collaborator's responsibility; this
// repository is read-only.
type DividendRepository struct {
	db *sql.DB
}

func NewDividendRepository(db *sql.DB) *DividendRepository {
	return &DividendRepository{db: db}
}

// EventsByTicker returns the per-ticker dividend records for a ticker.
// An empty result is valid and triggers the master-ledger fallback.
func (r *DividendRepository) EventsByTicker(ticker string) ([]RawDividend, error) {
	return r.queryEvents("dividend", ticker)
}

// MasterEvents returns the consolidated master-ledger records for a ticker.
func (r *DividendRepository) MasterEvents(ticker string) ([]RawDividend, error) {
	return r.queryEvents("dividend_master", ticker)
}

func (r *DividendRepository) queryEvents(table, ticker string) ([]RawDividend, error) {
	// table is one of two compile-time constants, never user input.
	query := `
		SELECT ticker, amount, parsed_date, payment_date, ex_date, event_date
		FROM ` + table + `
		WHERE ticker = ?
	`

	rows, err := r.db.Query(query, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s table: %w", table, err)
	}
	defer rows.Close()

	events := []RawDividend{}
	for rows.Next() {
		var parsedDate, paymentDate, exDate, eventDate sql.NullString
		var d RawDividend

		err := rows.Scan(
			&d.Ticker,
			&d.Amount,
			&parsedDate,
			&paymentDate,
			&exDate,
			&eventDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s table results: %w", table, err)
		}

		d.ParsedDate = parsedDate.String
		d.PaymentDate = paymentDate.String
		d.ExDate = exDate.String
		d.EventDate = eventDate.String

		events = append(events, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s table: %w", table, err)
	}

	return events, nil
}
