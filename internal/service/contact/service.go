package contact

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"ucplatform-backend/internal/domain"
	apperrors "ucplatform-backend/pkg/errors"
)

// ContactRepository persists address-book entries
type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	GetByID(ctx context.Context, contactID, ownerID uuid.UUID) (*domain.Contact, error)
	Update(ctx context.Context, contact *domain.Contact) error
	Delete(ctx context.Context, contactID, ownerID uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Contact, error)
}

// Service handles the personal contact book. Every operation is scoped to
// the owner; one user can never see another's contacts.
type Service struct {
	repo ContactRepository
}

// NewService creates a new contact service
func NewService(repo ContactRepository) *Service {
	return &Service{repo: repo}
}

// CreateInput contains new contact data
type CreateInput struct {
	Name        string
	PhoneNumber string
	Email       *string
	Company     *string
	Position    *string
	Notes       *string
}

// Create adds a contact to the owner's book
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, input *CreateInput) (*domain.Contact, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.PhoneNumber = strings.TrimSpace(input.PhoneNumber)

	if input.Name == "" {
		return nil, apperrors.MissingFieldError("name")
	}
	if input.PhoneNumber == "" {
		return nil, apperrors.MissingFieldError("phone_number")
	}

	first, last := domain.SplitName(input.Name)
	now := time.Now().UTC()
	contact := &domain.Contact{
		ContactID:   uuid.New(),
		OwnerID:     ownerID,
		FirstName:   first,
		LastName:    last,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		Company:     input.Company,
		Position:    input.Position,
		Notes:       input.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	return contact, nil
}

// Get returns one contact from the owner's book
func (s *Service) Get(ctx context.Context, contactID, ownerID uuid.UUID) (*domain.Contact, error) {
	contact, err := s.repo.GetByID(ctx, contactID, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NotFoundError("Contact")
		}
		return nil, apperrors.DatabaseError(err)
	}
	return contact, nil
}

// UpdateInput contains mutable contact fields; nil leaves a field unchanged
type UpdateInput struct {
	Name        *string
	PhoneNumber *string
	Email       *string
	Company     *string
	Position    *string
	Notes       *string
}

// Update modifies a contact in place
func (s *Service) Update(ctx context.Context, contactID, ownerID uuid.UUID, input *UpdateInput) (*domain.Contact, error) {
	contact, err := s.Get(ctx, contactID, ownerID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.ValidationError("name cannot be empty")
		}
		contact.FirstName, contact.LastName = domain.SplitName(name)
	}
	if input.PhoneNumber != nil {
		number := strings.TrimSpace(*input.PhoneNumber)
		if number == "" {
			return nil, apperrors.ValidationError("phone_number cannot be empty")
		}
		contact.PhoneNumber = number
	}
	if input.Email != nil {
		contact.Email = input.Email
	}
	if input.Company != nil {
		contact.Company = input.Company
	}
	if input.Position != nil {
		contact.Position = input.Position
	}
	if input.Notes != nil {
		contact.Notes = input.Notes
	}

	if err := s.repo.Update(ctx, contact); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NotFoundError("Contact")
		}
		return nil, apperrors.DatabaseError(err)
	}

	return contact, nil
}

// Delete removes a contact from the owner's book
func (s *Service) Delete(ctx context.Context, contactID, ownerID uuid.UUID) error {
	err := s.repo.Delete(ctx, contactID, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperrors.NotFoundError("Contact")
		}
		return apperrors.DatabaseError(err)
	}
	return nil
}

// List returns the owner's contacts ordered by name
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Contact, error) {
	contacts, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return contacts, nil
}
