package voicemail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ucplatform-backend/internal/domain"
	apperrors "ucplatform-backend/pkg/errors"
	"ucplatform-backend/pkg/logger"
)

// VoicemailRepository persists voicemail metadata
type VoicemailRepository interface {
	Create(ctx context.Context, vm *domain.Voicemail) error
	GetByID(ctx context.Context, voicemailID, recipientID uuid.UUID) (*domain.Voicemail, error)
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, includeArchived bool) ([]*domain.Voicemail, error)
	MarkRead(ctx context.Context, voicemailID, recipientID uuid.UUID) error
	SetArchived(ctx context.Context, voicemailID, recipientID uuid.UUID, archived bool) error
	Delete(ctx context.Context, voicemailID, recipientID uuid.UUID) error
}

// AudioStore holds the recorded audio
type AudioStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	PresignedGetURL(ctx context.Context, objectName string) (string, error)
	Remove(ctx context.Context, objectName string) error
}

// Service handles voicemail listing and playback URLs
type Service struct {
	repo  VoicemailRepository
	audio AudioStore
}

// NewService creates a new voicemail service
func NewService(repo VoicemailRepository, audio AudioStore) *Service {
	return &Service{repo: repo, audio: audio}
}

// DepositInput describes a new recording
type DepositInput struct {
	RecipientID  uuid.UUID
	CallerNumber *string
	CallerName   *string
	Duration     int
	Audio        io.Reader
	AudioSize    int64
	ContentType  string
}

// Deposit stores the audio and records the voicemail for the recipient
func (s *Service) Deposit(ctx context.Context, input *DepositInput) (*domain.Voicemail, error) {
	if input.Audio == nil || input.AudioSize <= 0 {
		return nil, apperrors.MissingFieldError("audio")
	}
	if input.Duration < 0 {
		return nil, apperrors.ValidationError("duration cannot be negative")
	}

	vmID := uuid.New()
	objectName := fmt.Sprintf("voicemail/%s/%s.webm", input.RecipientID, vmID)

	if err := s.audio.Upload(ctx, objectName, input.Audio, input.AudioSize, input.ContentType); err != nil {
		return nil, apperrors.StorageError(err)
	}

	vm := &domain.Voicemail{
		VoicemailID:  vmID,
		RecipientID:  input.RecipientID,
		CallerNumber: input.CallerNumber,
		CallerName:   input.CallerName,
		AudioObject:  objectName,
		Duration:     input.Duration,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, vm); err != nil {
		// Best effort cleanup of the orphaned object
		if rmErr := s.audio.Remove(ctx, objectName); rmErr != nil {
			logger.Warn("failed to remove orphaned audio object",
				zap.String("object", objectName),
				zap.Error(rmErr))
		}
		return nil, apperrors.DatabaseError(err)
	}

	return vm, nil
}

// List returns the recipient's voicemails with playback URLs resolved
func (s *Service) List(ctx context.Context, recipientID uuid.UUID, includeArchived bool) ([]*domain.VoicemailResponse, error) {
	voicemails, err := s.repo.ListByRecipient(ctx, recipientID, includeArchived)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	responses := make([]*domain.VoicemailResponse, 0, len(voicemails))
	for _, vm := range voicemails {
		resp := &domain.VoicemailResponse{Voicemail: *vm}
		url, err := s.audio.PresignedGetURL(ctx, vm.AudioObject)
		if err != nil {
			// A broken object must not hide the rest of the inbox
			logger.Warn("failed to presign voicemail audio",
				zap.String("voicemail_id", vm.VoicemailID.String()),
				zap.Error(err))
		} else {
			resp.AudioURL = url
		}
		responses = append(responses, resp)
	}

	return responses, nil
}

// Get returns one voicemail with its playback URL and marks it read
func (s *Service) Get(ctx context.Context, voicemailID, recipientID uuid.UUID) (*domain.VoicemailResponse, error) {
	vm, err := s.repo.GetByID(ctx, voicemailID, recipientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NotFoundError("Voicemail")
		}
		return nil, apperrors.DatabaseError(err)
	}

	resp := &domain.VoicemailResponse{Voicemail: *vm}
	if url, err := s.audio.PresignedGetURL(ctx, vm.AudioObject); err == nil {
		resp.AudioURL = url
	}

	if !vm.IsRead {
		if err := s.repo.MarkRead(ctx, voicemailID, recipientID); err != nil {
			logger.Warn("failed to mark voicemail read",
				zap.String("voicemail_id", voicemailID.String()),
				zap.Error(err))
		} else {
			resp.IsRead = true
		}
	}

	return resp, nil
}

// SetArchived archives or restores a voicemail
func (s *Service) SetArchived(ctx context.Context, voicemailID, recipientID uuid.UUID, archived bool) error {
	err := s.repo.SetArchived(ctx, voicemailID, recipientID, archived)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperrors.NotFoundError("Voicemail")
		}
		return apperrors.DatabaseError(err)
	}
	return nil
}

// Delete removes a voicemail and its audio
func (s *Service) Delete(ctx context.Context, voicemailID, recipientID uuid.UUID) error {
	vm, err := s.repo.GetByID(ctx, voicemailID, recipientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperrors.NotFoundError("Voicemail")
		}
		return apperrors.DatabaseError(err)
	}

	if err := s.repo.Delete(ctx, voicemailID, recipientID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperrors.NotFoundError("Voicemail")
		}
		return apperrors.DatabaseError(err)
	}

	if err := s.audio.Remove(ctx, vm.AudioObject); err != nil {
		logger.Warn("failed to remove voicemail audio",
			zap.String("object", vm.AudioObject),
			zap.Error(err))
	}

	return nil
}
