package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lmeira/carteira-core/internal/apperrors"
	"github.com/lmeira/carteira-core/internal/model"
)

// PositionRepository reads the portfolio configuration store: named
// portfolios, their metric profiles and their configured asset positions.
// The store is owned by an external collaborator; this repository is
// read-only to the aggregation core.
type PositionRepository struct {
	db *sql.DB
}

func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// GetAllPortfolios returns every configured portfolio.
func (r *PositionRepository) GetAllPortfolios() ([]model.Portfolio, error) {
	rows, err := r.db.Query(`
		SELECT id, name, description, currency, bias_rule, dividend_window, suspicious_limit, resilient
		FROM portfolio
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}

	return portfolios, nil
}

// GetPortfolio returns one portfolio by ID, including its metric profile.
// Returns apperrors.ErrPortfolioNotFound when no such portfolio exists.
func (r *PositionRepository) GetPortfolio(portfolioID string) (model.Portfolio, error) {
	if portfolioID == "" {
		return model.Portfolio{}, apperrors.ErrEmptyID
	}

	row := r.db.QueryRow(`
		SELECT id, name, description, currency, bias_rule, dividend_window, suspicious_limit, resilient
		FROM portfolio
		WHERE id = ?
	`, portfolioID)

	p, err := scanPortfolio(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Portfolio{}, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return model.Portfolio{}, err
	}

	return p, nil
}

// GetPositions returns every configured position for the given portfolio,
// ordered by ticker.
func (r *PositionRepository) GetPositions(portfolioID string) ([]model.AssetPosition, error) {
	if portfolioID == "" {
		return nil, apperrors.ErrEmptyID
	}

	rows, err := r.db.Query(`
		SELECT ticker, entry_date, entry_price, ceiling_price, sector, currency
		FROM position
		WHERE portfolio_id = ?
		ORDER BY ticker ASC
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query position table: %w", err)
	}
	defer rows.Close()

	positions := []model.AssetPosition{}
	for rows.Next() {
		var entryDateStr string
		var ceiling sql.NullFloat64
		var sector sql.NullString
		var p model.AssetPosition

		err := rows.Scan(
			&p.Ticker,
			&entryDateStr,
			&p.EntryPrice,
			&ceiling,
			&sector,
			&p.Currency,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position table results: %w", err)
		}

		p.EntryDate, err = ParseTime(entryDateStr)
		if err != nil || p.EntryDate.IsZero() {
			return nil, fmt.Errorf("failed to parse entry date: %w", err)
		}

		if ceiling.Valid {
			v := ceiling.Float64
			p.CeilingPrice = &v
		}
		if sector.Valid {
			p.Sector = sector.String
		}

		positions = append(positions, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position table: %w", err)
	}

	return positions, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanPortfolio(s scanner) (model.Portfolio, error) {
	var p model.Portfolio
	var description sql.NullString

	err := s.Scan(
		&p.ID,
		&p.Name,
		&description,
		&p.Currency,
		&p.Profile.BiasRule,
		&p.Profile.DividendWindow,
		&p.Profile.SuspiciousLimit,
		&p.Profile.Resilient,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Portfolio{}, err
	}
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to scan portfolio table results: %w", err)
	}

	if description.Valid {
		p.Description = description.String
	}

	return p, nil
}
