// Package ledger resolves historical dividend events per ticker from the
// dividend ledger storage. The ledger is read-only to the aggregation core;
// population is an external collaborator's responsibility.
package ledger

import (
	"fmt"

	"github.com/lmeira/carteira-core/internal/apperrors"
	"github.com/lmeira/carteira-core/internal/model"
	"github.com/lmeira/carteira-core/internal/repository"
)

// Store is the slice of the dividend repository the ledger reads.
type Store interface {
	EventsByTicker(ticker string) ([]repository.RawDividend, error)
	MasterEvents(ticker string) ([]repository.RawDividend, error)
}

// Ledger resolves canonical dividend events for a ticker. Lookup order is
// fixed: the per-ticker records first, then the consolidated master ledger
// filtered by ticker, then empty. Zero dividends is a valid, non-error
// result.
type Ledger struct {
	store Store
}

func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Events returns the canonicalized dividend events for a ticker, plus
// diagnostics for raw records whose dates could not be parsed. Unparseable
// records are discarded from the events, not treated as zero amounts.
func (l *Ledger) Events(ticker string) ([]model.DividendEvent, []*apperrors.DateParseError, error) {
	raws, err := l.store.EventsByTicker(ticker)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load dividend records for %s: %w", ticker, err)
	}

	if len(raws) == 0 {
		raws, err = l.store.MasterEvents(ticker)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load master ledger records for %s: %w", ticker, err)
		}
	}

	events := []model.DividendEvent{}
	var discarded []*apperrors.DateParseError

	for _, raw := range raws {
		eventDate, ok := canonicalDate(raw)
		if !ok {
			discarded = append(discarded, &apperrors.DateParseError{
				Ticker: ticker,
				Raw:    rawFields(raw),
			})
			continue
		}
		events = append(events, model.DividendEvent{
			Ticker:    ticker,
			Amount:    raw.Amount,
			EventDate: eventDate,
		})
	}

	return events, discarded, nil
}
