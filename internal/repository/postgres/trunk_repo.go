package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ucplatform-backend/internal/domain"
)

// TrunkRepository handles SIP trunk configuration persistence
type TrunkRepository struct {
	pool *pgxpool.Pool
}

// NewTrunkRepository creates a new trunk repository
func NewTrunkRepository(pool *pgxpool.Pool) *TrunkRepository {
	return &TrunkRepository{pool: pool}
}

const trunkColumns = `trunk_id, name, provider, sip_server, sip_port, username, is_active, created_at`

func scanTrunk(row pgx.Row) (*domain.SIPTrunk, error) {
	trunk := &domain.SIPTrunk{}
	err := row.Scan(
		&trunk.TrunkID,
		&trunk.Name,
		&trunk.Provider,
		&trunk.SIPServer,
		&trunk.SIPPort,
		&trunk.Username,
		&trunk.IsActive,
		&trunk.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return trunk, nil
}

// GetByID retrieves a trunk by id
func (r *TrunkRepository) GetByID(ctx context.Context, trunkID uuid.UUID) (*domain.SIPTrunk, error) {
	query := `SELECT ` + trunkColumns + ` FROM sip_trunks WHERE trunk_id = $1`

	trunk, err := scanTrunk(r.pool.QueryRow(ctx, query, trunkID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get trunk: %w", err)
	}

	return trunk, nil
}

// GetActive retrieves the first active trunk, used for outbound dialing
func (r *TrunkRepository) GetActive(ctx context.Context) (*domain.SIPTrunk, error) {
	query := `SELECT ` + trunkColumns + ` FROM sip_trunks WHERE is_active ORDER BY created_at LIMIT 1`

	trunk, err := scanTrunk(r.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active trunk: %w", err)
	}

	return trunk, nil
}

// List retrieves all configured trunks
func (r *TrunkRepository) List(ctx context.Context) ([]*domain.SIPTrunk, error) {
	query := `SELECT ` + trunkColumns + ` FROM sip_trunks ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list trunks: %w", err)
	}
	defer rows.Close()

	var trunks []*domain.SIPTrunk
	for rows.Next() {
		trunk, err := scanTrunk(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trunk: %w", err)
		}
		trunks = append(trunks, trunk)
	}

	return trunks, rows.Err()
}
