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

// VoicemailRepository handles voicemail persistence
type VoicemailRepository struct {
	pool *pgxpool.Pool
}

// NewVoicemailRepository creates a new voicemail repository
func NewVoicemailRepository(pool *pgxpool.Pool) *VoicemailRepository {
	return &VoicemailRepository{pool: pool}
}

const voicemailColumns = `voicemail_id, recipient_id, caller_number, caller_name,
	       audio_object, duration, is_read, is_archived, created_at`

// Create inserts a new voicemail record
func (r *VoicemailRepository) Create(ctx context.Context, vm *domain.Voicemail) error {
	query := `
		INSERT INTO voicemails (
			voicemail_id, recipient_id, caller_number, caller_name,
			audio_object, duration, is_read, is_archived, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		vm.VoicemailID,
		vm.RecipientID,
		vm.CallerNumber,
		vm.CallerName,
		vm.AudioObject,
		vm.Duration,
		vm.IsRead,
		vm.IsArchived,
		vm.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create voicemail: %w", err)
	}

	return nil
}

// GetByID retrieves a voicemail restricted to its recipient
func (r *VoicemailRepository) GetByID(ctx context.Context, voicemailID, recipientID uuid.UUID) (*domain.Voicemail, error) {
	query := `SELECT ` + voicemailColumns + ` FROM voicemails WHERE voicemail_id = $1 AND recipient_id = $2`

	vm := &domain.Voicemail{}
	err := r.pool.QueryRow(ctx, query, voicemailID, recipientID).Scan(
		&vm.VoicemailID,
		&vm.RecipientID,
		&vm.CallerNumber,
		&vm.CallerName,
		&vm.AudioObject,
		&vm.Duration,
		&vm.IsRead,
		&vm.IsArchived,
		&vm.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get voicemail: %w", err)
	}

	return vm, nil
}

// ListByRecipient retrieves voicemails for one recipient, newest first
func (r *VoicemailRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, includeArchived bool) ([]*domain.Voicemail, error) {
	query := `SELECT ` + voicemailColumns + `
		FROM voicemails
		WHERE recipient_id = $1 AND ($2 OR NOT is_archived)
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, recipientID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("failed to list voicemails: %w", err)
	}
	defer rows.Close()

	var voicemails []*domain.Voicemail
	for rows.Next() {
		vm := &domain.Voicemail{}
		err := rows.Scan(
			&vm.VoicemailID,
			&vm.RecipientID,
			&vm.CallerNumber,
			&vm.CallerName,
			&vm.AudioObject,
			&vm.Duration,
			&vm.IsRead,
			&vm.IsArchived,
			&vm.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voicemail: %w", err)
		}
		voicemails = append(voicemails, vm)
	}

	return voicemails, rows.Err()
}

// MarkRead flags a voicemail as read
func (r *VoicemailRepository) MarkRead(ctx context.Context, voicemailID, recipientID uuid.UUID) error {
	return r.setFlag(ctx, `UPDATE voicemails SET is_read = TRUE WHERE voicemail_id = $1 AND recipient_id = $2`, voicemailID, recipientID)
}

// SetArchived flags or unflags a voicemail as archived
func (r *VoicemailRepository) SetArchived(ctx context.Context, voicemailID, recipientID uuid.UUID, archived bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE voicemails SET is_archived = $3 WHERE voicemail_id = $1 AND recipient_id = $2`,
		voicemailID, recipientID, archived)
	if err != nil {
		return fmt.Errorf("failed to update voicemail: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a voicemail restricted to its recipient
func (r *VoicemailRepository) Delete(ctx context.Context, voicemailID, recipientID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM voicemails WHERE voicemail_id = $1 AND recipient_id = $2`, voicemailID, recipientID)
	if err != nil {
		return fmt.Errorf("failed to delete voicemail: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *VoicemailRepository) setFlag(ctx context.Context, query string, args ...interface{}) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update voicemail: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
