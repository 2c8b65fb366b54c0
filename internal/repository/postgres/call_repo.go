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

// CallRepository handles call record persistence
type CallRepository struct {
	pool *pgxpool.Pool
}

// NewCallRepository creates a new call repository
func NewCallRepository(pool *pgxpool.Pool) *CallRepository {
	return &CallRepository{pool: pool}
}

const callColumns = `call_id, caller_id, callee_id, call_type, status, created_at,
	       answered_at, ended_at, duration, is_international,
	       destination_country, destination_number, trunk_id, cost`

// Create inserts a new call record
func (r *CallRepository) Create(ctx context.Context, call *domain.Call) error {
	query := `
		INSERT INTO calls (
			call_id, caller_id, callee_id, call_type, status, created_at,
			is_international, destination_country, destination_number, trunk_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		call.CallID,
		call.CallerID,
		call.CalleeID,
		call.CallType,
		call.Status,
		call.CreatedAt,
		call.IsInternational,
		call.DestinationCountry,
		call.DestinationNumber,
		call.TrunkID,
	)
	if err != nil {
		return fmt.Errorf("failed to create call: %w", err)
	}

	return nil
}

// GetByID retrieves a call by its identifier
func (r *CallRepository) GetByID(ctx context.Context, callID uuid.UUID) (*domain.Call, error) {
	query := `SELECT ` + callColumns + ` FROM calls WHERE call_id = $1`

	call := &domain.Call{}
	err := r.pool.QueryRow(ctx, query, callID).Scan(
		&call.CallID,
		&call.CallerID,
		&call.CalleeID,
		&call.CallType,
		&call.Status,
		&call.CreatedAt,
		&call.AnsweredAt,
		&call.EndedAt,
		&call.Duration,
		&call.IsInternational,
		&call.DestinationCountry,
		&call.DestinationNumber,
		&call.TrunkID,
		&call.Cost,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get call: %w", err)
	}

	return call, nil
}

// CompareAndSwapStatus persists a status transition only when the stored
// status still matches expect. Returns false when another writer won the
// race and the row was left untouched.
func (r *CallRepository) CompareAndSwapStatus(ctx context.Context, call *domain.Call, expect domain.CallStatus) (bool, error) {
	query := `
		UPDATE calls
		SET status = $3,
		    answered_at = $4,
		    ended_at = $5,
		    duration = $6,
		    cost = $7
		WHERE call_id = $1 AND status = $2
	`

	tag, err := r.pool.Exec(ctx, query,
		call.CallID,
		expect,
		call.Status,
		call.AnsweredAt,
		call.EndedAt,
		call.Duration,
		call.Cost,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update call status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Delete removes a call record
func (r *CallRepository) Delete(ctx context.Context, callID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM calls WHERE call_id = $1`, callID)
	if err != nil {
		return fmt.Errorf("failed to delete call: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetUserCalls retrieves calls where the user is caller or callee,
// most recent first
func (r *CallRepository) GetUserCalls(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Call, error) {
	query := `
		SELECT ` + callColumns + `
		FROM calls
		WHERE caller_id = $1 OR callee_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get user calls: %w", err)
	}
	defer rows.Close()

	return scanCalls(rows)
}

// CountByStatus returns call counts grouped by status, for admin statistics
func (r *CallRepository) CountByStatus(ctx context.Context) (map[domain.CallStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM calls GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count calls: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.CallStatus]int)
	for rows.Next() {
		var status domain.CallStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan call count: %w", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

func scanCalls(rows pgx.Rows) ([]*domain.Call, error) {
	var calls []*domain.Call
	for rows.Next() {
		call := &domain.Call{}
		err := rows.Scan(
			&call.CallID,
			&call.CallerID,
			&call.CalleeID,
			&call.CallType,
			&call.Status,
			&call.CreatedAt,
			&call.AnsweredAt,
			&call.EndedAt,
			&call.Duration,
			&call.IsInternational,
			&call.DestinationCountry,
			&call.DestinationNumber,
			&call.TrunkID,
			&call.Cost,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		calls = append(calls, call)
	}
	return calls, rows.Err()
}
