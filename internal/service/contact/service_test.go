package contact

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ucplatform-backend/internal/domain"
	apperrors "ucplatform-backend/pkg/errors"
)

type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *MockContactRepository) GetByID(ctx context.Context, contactID, ownerID uuid.UUID) (*domain.Contact, error) {
	args := m.Called(ctx, contactID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockContactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *MockContactRepository) Delete(ctx context.Context, contactID, ownerID uuid.UUID) error {
	args := m.Called(ctx, contactID, ownerID)
	return args.Error(0)
}

func (m *MockContactRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Contact, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Contact), args.Error(1)
}

func TestCreate_SplitsName(t *testing.T) {
	repo := new(MockContactRepository)
	svc := NewService(repo)
	owner := uuid.New()

	var created *domain.Contact
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Contact")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.Contact)
		}).Return(nil)

	contact, err := svc.Create(context.Background(), owner, &CreateInput{
		Name:        "Jane van Dyk",
		PhoneNumber: " +31201234567 ",
	})
	require.NoError(t, err)

	assert.Equal(t, "Jane", contact.FirstName)
	assert.Equal(t, "van Dyk", contact.LastName)
	assert.Equal(t, "+31201234567", contact.PhoneNumber)
	assert.Equal(t, owner, created.OwnerID)
}

func TestCreate_RequiredFields(t *testing.T) {
	svc := NewService(new(MockContactRepository))
	owner := uuid.New()

	_, err := svc.Create(context.Background(), owner, &CreateInput{PhoneNumber: "123"})
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.GetAppError(err).StatusCode)

	_, err = svc.Create(context.Background(), owner, &CreateInput{Name: "Jane"})
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.GetAppError(err).StatusCode)
}

func TestGet_OwnerScoped(t *testing.T) {
	repo := new(MockContactRepository)
	svc := NewService(repo)
	owner := uuid.New()
	stranger := uuid.New()
	contactID := uuid.New()

	repo.On("GetByID", mock.Anything, contactID, owner).Return(&domain.Contact{
		ContactID: contactID,
		OwnerID:   owner,
	}, nil)
	repo.On("GetByID", mock.Anything, contactID, stranger).Return(nil, domain.ErrNotFound)

	_, err := svc.Get(context.Background(), contactID, owner)
	assert.NoError(t, err)

	// A stranger gets NotFound, not Forbidden, to avoid leaking existence
	_, err = svc.Get(context.Background(), contactID, stranger)
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.GetAppError(err).StatusCode)
}

func TestUpdate_PartialFields(t *testing.T) {
	repo := new(MockContactRepository)
	svc := NewService(repo)
	owner := uuid.New()
	contactID := uuid.New()

	repo.On("GetByID", mock.Anything, contactID, owner).Return(&domain.Contact{
		ContactID:   contactID,
		OwnerID:     owner,
		FirstName:   "Jane",
		LastName:    "Doe",
		PhoneNumber: "111",
	}, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	number := "222"
	updated, err := svc.Update(context.Background(), contactID, owner, &UpdateInput{
		PhoneNumber: &number,
	})
	require.NoError(t, err)
	assert.Equal(t, "222", updated.PhoneNumber)
	assert.Equal(t, "Jane", updated.FirstName) // Untouched
}

func TestDelete_NotFound(t *testing.T) {
	repo := new(MockContactRepository)
	svc := NewService(repo)
	owner := uuid.New()
	contactID := uuid.New()

	repo.On("Delete", mock.Anything, contactID, owner).Return(domain.ErrNotFound)

	err := svc.Delete(context.Background(), contactID, owner)
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.GetAppError(err).StatusCode)
}
