package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ucplatform-backend/internal/domain"
)

// ContactRepository handles contact book persistence
type ContactRepository struct {
	pool *pgxpool.Pool
}

// NewContactRepository creates a new contact repository
func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

const contactColumns = `contact_id, owner_id, first_name, last_name, email,
	       phone_number, company, position, notes, created_at, updated_at`

// Create inserts a new contact
func (r *ContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	query := `
		INSERT INTO contacts (
			contact_id, owner_id, first_name, last_name, email, phone_number,
			company, position, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		contact.ContactID,
		contact.OwnerID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.PhoneNumber,
		contact.Company,
		contact.Position,
		contact.Notes,
		contact.CreatedAt,
		contact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	return nil
}

// GetByID retrieves a contact restricted to its owner
func (r *ContactRepository) GetByID(ctx context.Context, contactID, ownerID uuid.UUID) (*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE contact_id = $1 AND owner_id = $2`

	contact := &domain.Contact{}
	err := r.pool.QueryRow(ctx, query, contactID, ownerID).Scan(
		&contact.ContactID,
		&contact.OwnerID,
		&contact.FirstName,
		&contact.LastName,
		&contact.Email,
		&contact.PhoneNumber,
		&contact.Company,
		&contact.Position,
		&contact.Notes,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return contact, nil
}

// Update persists mutable contact fields
func (r *ContactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	query := `
		UPDATE contacts
		SET first_name = $3, last_name = $4, email = $5, phone_number = $6,
		    company = $7, position = $8, notes = $9, updated_at = $10
		WHERE contact_id = $1 AND owner_id = $2
	`

	tag, err := r.pool.Exec(ctx, query,
		contact.ContactID,
		contact.OwnerID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.PhoneNumber,
		contact.Company,
		contact.Position,
		contact.Notes,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Delete removes a contact restricted to its owner
func (r *ContactRepository) Delete(ctx context.Context, contactID, ownerID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM contacts WHERE contact_id = $1 AND owner_id = $2`, contactID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByOwner retrieves all contacts for one owner ordered by name
func (r *ContactRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE owner_id = $1 ORDER BY first_name, last_name`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*domain.Contact
	for rows.Next() {
		contact := &domain.Contact{}
		err := rows.Scan(
			&contact.ContactID,
			&contact.OwnerID,
			&contact.FirstName,
			&contact.LastName,
			&contact.Email,
			&contact.PhoneNumber,
			&contact.Company,
			&contact.Position,
			&contact.Notes,
			&contact.CreatedAt,
			&contact.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}

	return contacts, rows.Err()
}
