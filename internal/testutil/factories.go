package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/lmeira/carteira-core/internal/model"
)

// PortfolioBuilder provides a fluent interface for creating test portfolios.
//
// Example usage:
//
//	// Simple creation with defaults
//	portfolio := testutil.NewPortfolio().Build(t, db)
//
//	// Customized portfolio
//	portfolio := testutil.NewPortfolio().
//	    WithName("Dividendos").
//	    WithBiasRule(model.BiasRuleMargin).
//	    Resilient().
//	    Build(t, db)
type PortfolioBuilder struct {
	ID              string
	Name            string
	Description     string
	Currency        string
	BiasRule        model.BiasRule
	DividendWindow  model.DividendWindow
	SuspiciousLimit float64
	IsResilient     bool
}

// NewPortfolio creates a PortfolioBuilder with sensible defaults.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{
		ID:              MakeID(),
		Name:            "Test Portfolio",
		Description:     "Test description",
		Currency:        "BRL",
		BiasRule:        model.BiasRuleSimple,
		DividendWindow:  model.WindowSinceEntry,
		SuspiciousLimit: 200,
	}
}

// WithID sets a custom ID.
func (b *PortfolioBuilder) WithID(id string) *PortfolioBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// WithCurrency sets the portfolio currency.
func (b *PortfolioBuilder) WithCurrency(currency string) *PortfolioBuilder {
	b.Currency = currency
	return b
}

// WithBiasRule sets the bias rule variant.
func (b *PortfolioBuilder) WithBiasRule(rule model.BiasRule) *PortfolioBuilder {
	b.BiasRule = rule
	return b
}

// WithDividendWindow sets the dividend accumulation window variant.
func (b *PortfolioBuilder) WithDividendWindow(window model.DividendWindow) *PortfolioBuilder {
	b.DividendWindow = window
	return b
}

// WithSuspiciousLimit sets the suspicious-price threshold in percent.
func (b *PortfolioBuilder) WithSuspiciousLimit(limit float64) *PortfolioBuilder {
	b.SuspiciousLimit = limit
	return b
}

// Resilient marks the portfolio for the per-ticker variant-fallback fetch path.
func (b *PortfolioBuilder) Resilient() *PortfolioBuilder {
	b.IsResilient = true
	return b
}

// Build creates the portfolio in the database.
func (b *PortfolioBuilder) Build(t *testing.T, db *sql.DB) model.Portfolio {
	t.Helper()

	query := `
		INSERT INTO portfolio (id, name, description, currency, bias_rule,
		                       dividend_window, suspicious_limit, resilient)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		b.ID, b.Name, b.Description, b.Currency,
		string(b.BiasRule), string(b.DividendWindow), b.SuspiciousLimit, b.IsResilient)
	if err != nil {
		t.Fatalf("Failed to create portfolio: %v", err)
	}

	return model.Portfolio{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Currency:    b.Currency,
		Profile: model.PortfolioProfile{
			BiasRule:        b.BiasRule,
			DividendWindow:  b.DividendWindow,
			SuspiciousLimit: b.SuspiciousLimit,
			Resilient:       b.IsResilient,
		},
	}
}

// PositionBuilder provides a fluent interface for creating asset positions.
type PositionBuilder struct {
	ID           string
	PortfolioID  string
	Ticker       string
	EntryDate    time.Time
	EntryPrice   float64
	CeilingPrice *float64
	Sector       string
	Currency     string
}

// NewPosition creates a PositionBuilder with sensible defaults.
func NewPosition(portfolioID, ticker string) *PositionBuilder {
	return &PositionBuilder{
		ID:          MakeID(),
		PortfolioID: portfolioID,
		Ticker:      ticker,
		EntryDate:   DaysAgo(90),
		EntryPrice:  10.0,
		Sector:      "Financeiro",
		Currency:    "BRL",
	}
}

// WithEntryDate sets the entry date.
func (b *PositionBuilder) WithEntryDate(date time.Time) *PositionBuilder {
	b.EntryDate = date
	return b
}

// WithEntryPrice sets the entry price.
func (b *PositionBuilder) WithEntryPrice(price float64) *PositionBuilder {
	b.EntryPrice = price
	return b
}

// WithCeilingPrice sets the ceiling price used by the bias rule.
func (b *PositionBuilder) WithCeilingPrice(price float64) *PositionBuilder {
	b.CeilingPrice = &price
	return b
}

// WithSector sets the sector label.
func (b *PositionBuilder) WithSector(sector string) *PositionBuilder {
	b.Sector = sector
	return b
}

// WithCurrency sets the position currency.
func (b *PositionBuilder) WithCurrency(currency string) *PositionBuilder {
	b.Currency = currency
	return b
}

// Build creates the position in the database.
func (b *PositionBuilder) Build(t *testing.T, db *sql.DB) model.AssetPosition {
	t.Helper()

	query := `
		INSERT INTO position (id, portfolio_id, ticker, entry_date, entry_price,
		                      ceiling_price, sector, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var ceiling any
	if b.CeilingPrice != nil {
		ceiling = *b.CeilingPrice
	}

	_, err := db.Exec(query,
		b.ID, b.PortfolioID, b.Ticker,
		b.EntryDate.Format("2006-01-02"),
		b.EntryPrice, ceiling, b.Sector, b.Currency)
	if err != nil {
		t.Fatalf("Failed to create position: %v", err)
	}

	return model.AssetPosition{
		Ticker:       b.Ticker,
		EntryDate:    b.EntryDate,
		EntryPrice:   b.EntryPrice,
		CeilingPrice: b.CeilingPrice,
		Sector:       b.Sector,
		Currency:     b.Currency,
	}
}

// DividendBuilder provides a fluent interface for creating dividend ledger
// rows. Date columns are raw text, matching what the upstream importer
// produces; by default only parsed_date is set, in ISO form.
type DividendBuilder struct {
	ID          string
	Ticker      string
	Amount      float64
	ParsedDate  string
	PaymentDate string
	ExDate      string
	EventDate   string
	Master      bool
}

// NewDividend creates a DividendBuilder for the per-ticker ledger.
func NewDividend(ticker string) *DividendBuilder {
	return &DividendBuilder{
		ID:         MakeID(),
		Ticker:     ticker,
		Amount:     0.50,
		ParsedDate: DaysAgo(30).Format("2006-01-02"),
	}
}

// WithAmount sets the per-event amount.
func (b *DividendBuilder) WithAmount(amount float64) *DividendBuilder {
	b.Amount = amount
	return b
}

// WithParsedDate sets the raw parsed_date column.
func (b *DividendBuilder) WithParsedDate(raw string) *DividendBuilder {
	b.ParsedDate = raw
	return b
}

// WithPaymentDate sets the raw payment_date column.
func (b *DividendBuilder) WithPaymentDate(raw string) *DividendBuilder {
	b.PaymentDate = raw
	return b
}

// WithExDate sets the raw ex_date column.
func (b *DividendBuilder) WithExDate(raw string) *DividendBuilder {
	b.ExDate = raw
	return b
}

// WithEventDate sets the raw event_date column.
func (b *DividendBuilder) WithEventDate(raw string) *DividendBuilder {
	b.EventDate = raw
	return b
}

// WithoutDates clears every date column, producing an undatable row.
func (b *DividendBuilder) WithoutDates() *DividendBuilder {
	b.ParsedDate = ""
	b.PaymentDate = ""
	b.ExDate = ""
	b.EventDate = ""
	return b
}

// InMaster targets the consolidated master ledger instead of the
// per-ticker table.
func (b *DividendBuilder) InMaster() *DividendBuilder {
	b.Master = true
	return b
}

// Build creates the dividend row in the database.
func (b *DividendBuilder) Build(t *testing.T, db *sql.DB) {
	t.Helper()

	table := "dividend"
	if b.Master {
		table = "dividend_master"
	}

	query := `
		INSERT INTO ` + table + ` (id, ticker, amount, parsed_date, payment_date, ex_date, event_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		b.ID, b.Ticker, b.Amount,
		nullable(b.ParsedDate), nullable(b.PaymentDate),
		nullable(b.ExDate), nullable(b.EventDate))
	if err != nil {
		t.Fatalf("Failed to create dividend: %v", err)
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
