package ledger

import (
	"time"

	"github.com/lmeira/carteira-core/internal/repository"
)

// Date formats accepted for raw ledger events, tried in order. The upstream
// importers produced Brazilian day-first dates and ISO dates in roughly equal
// measure, so day-first wins ties.
var dateFormats = []string{
	"02/01/2006",
	"2006-01-02",
}

// canonicalDate resolves the event date of a raw ledger record by trying
// candidate fields in fixed priority: explicit parsed date, payment date,
// ex-dividend date, then the generic date field. Within each field the
// formats above are tried in order. The first field that parses wins.
//
// The bool result is false when no field parses; such events are discarded
// and reported, never silently zeroed.
func canonicalDate(raw repository.RawDividend) (time.Time, bool) {
	candidates := []string{
		raw.ParsedDate,
		raw.PaymentDate,
		raw.ExDate,
		raw.EventDate,
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		for _, format := range dateFormats {
			if t, err := time.Parse(format, candidate); err == nil {
				return dateOnly(t), true
			}
		}
	}

	return time.Time{}, false
}

// dateOnly truncates a timestamp to a canonical calendar date in UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// rawFields joins the candidate date fields of a record for diagnostics.
func rawFields(raw repository.RawDividend) string {
	out := ""
	for _, f := range []string{raw.ParsedDate, raw.PaymentDate, raw.ExDate, raw.EventDate} {
		if f == "" {
			continue
		}
		if out != "" {
			out += "|"
		}
		out += f
	}
	return out
}
