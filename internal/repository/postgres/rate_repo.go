package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ucplatform-backend/internal/domain"
)

// RateRepository handles international rate lookups
type RateRepository struct {
	pool *pgxpool.Pool
}

// NewRateRepository creates a new rate repository
func NewRateRepository(pool *pgxpool.Pool) *RateRepository {
	return &RateRepository{pool: pool}
}

const rateColumns = `rate_id, country_code, country_name, rate_per_minute, is_active, created_at`

// GetByCountry retrieves the active rate for a destination country code
func (r *RateRepository) GetByCountry(ctx context.Context, countryCode string) (*domain.InternationalRate, error) {
	query := `SELECT ` + rateColumns + ` FROM international_rates WHERE country_code = $1 AND is_active`

	rate := &domain.InternationalRate{}
	err := r.pool.QueryRow(ctx, query, countryCode).Scan(
		&rate.RateID,
		&rate.CountryCode,
		&rate.CountryName,
		&rate.RatePerMinute,
		&rate.IsActive,
		&rate.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get rate: %w", err)
	}

	return rate, nil
}

// List retrieves all configured rates ordered by country name
func (r *RateRepository) List(ctx context.Context) ([]*domain.InternationalRate, error) {
	query := `SELECT ` + rateColumns + ` FROM international_rates ORDER BY country_name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rates: %w", err)
	}
	defer rows.Close()

	var rates []*domain.InternationalRate
	for rows.Next() {
		rate := &domain.InternationalRate{}
		err := rows.Scan(
			&rate.RateID,
			&rate.CountryCode,
			&rate.CountryName,
			&rate.RatePerMinute,
			&rate.IsActive,
			&rate.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}
		rates = append(rates, rate)
	}

	return rates, rows.Err()
}
