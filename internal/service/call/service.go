package call

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ucplatform-backend/internal/domain"
	apperrors "ucplatform-backend/pkg/errors"
	"ucplatform-backend/pkg/logger"
	"ucplatform-backend/pkg/metrics"
)

// CallRepository persists call records
type CallRepository interface {
	Create(ctx context.Context, call *domain.Call) error
	GetByID(ctx context.Context, callID uuid.UUID) (*domain.Call, error)
	CompareAndSwapStatus(ctx context.Context, call *domain.Call, expect domain.CallStatus) (bool, error)
	Delete(ctx context.Context, callID uuid.UUID) error
	GetUserCalls(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Call, error)
	CountByStatus(ctx context.Context) (map[domain.CallStatus]int, error)
}

// UserRepository resolves user identities
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// RateRepository resolves per-country billing rates
type RateRepository interface {
	GetByCountry(ctx context.Context, countryCode string) (*domain.InternationalRate, error)
	List(ctx context.Context) ([]*domain.InternationalRate, error)
}

// TrunkRepository resolves SIP trunk configuration
type TrunkRepository interface {
	GetByID(ctx context.Context, trunkID uuid.UUID) (*domain.SIPTrunk, error)
	GetActive(ctx context.Context) (*domain.SIPTrunk, error)
	List(ctx context.Context) ([]*domain.SIPTrunk, error)
}

// Notifier delivers events to a user's channel. Delivery is best effort:
// the return value reports whether at least one session received the event.
type Notifier interface {
	SendToUser(userID uuid.UUID, event string, data interface{}) bool
}

// PresenceService handles presence side effects of the relay session
type PresenceService interface {
	UpdateStatus(ctx context.Context, userID uuid.UUID, status string) error
	Heartbeat(ctx context.Context, userID uuid.UUID) error
}

// Service handles call lifecycle and WebRTC signaling relay
type Service struct {
	callRepo  CallRepository
	userRepo  UserRepository
	rateRepo  RateRepository
	trunkRepo TrunkRepository
	notifier  Notifier
	presence  PresenceService
	metrics   *metrics.Metrics

	// Per-call locks serialize concurrent mutation of one call record
	locksMu sync.Mutex
	locks   map[uuid.UUID]*callLock
}

type callLock struct {
	mu   sync.Mutex
	refs int
}

// NewService creates a new call service
func NewService(
	callRepo CallRepository,
	userRepo UserRepository,
	rateRepo RateRepository,
	trunkRepo TrunkRepository,
	notifier Notifier,
	presence PresenceService,
	m *metrics.Metrics,
) *Service {
	return &Service{
		callRepo:  callRepo,
		userRepo:  userRepo,
		rateRepo:  rateRepo,
		trunkRepo: trunkRepo,
		notifier:  notifier,
		presence:  presence,
		metrics:   m,
		locks:     make(map[uuid.UUID]*callLock),
	}
}

// lockCall acquires the per-call mutex and returns its release function
func (s *Service) lockCall(callID uuid.UUID) func() {
	s.locksMu.Lock()
	l, ok := s.locks[callID]
	if !ok {
		l = &callLock{}
		s.locks[callID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, callID)
		}
		s.locksMu.Unlock()
	}
}

// Offer creates a call record and relays the SDP offer to the callee.
// The callee receives both the raw offer and an incoming_call notification
// carrying the caller's public profile. Returns the new call id to the
// sender even when the callee has no open session.
func (s *Service) Offer(ctx context.Context, senderID, calleeID uuid.UUID, callType string, payload json.RawMessage) (map[string]interface{}, error) {
	if callType == "" {
		callType = string(domain.CallTypeVoice)
	}
	kind := domain.CallType(callType)
	if !kind.Valid() {
		return nil, apperrors.ValidationError("invalid call_type")
	}
	if senderID == calleeID {
		return nil, apperrors.ValidationError("cannot call yourself")
	}

	caller, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.UserNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}
	if _, err := s.userRepo.GetByID(ctx, calleeID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.UserNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}

	callee := calleeID
	call := &domain.Call{
		CallID:    uuid.New(),
		CallerID:  senderID,
		CalleeID:  &callee,
		CallType:  kind,
		Status:    domain.CallStatusInitiated,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.callRepo.Create(ctx, call); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	s.metrics.CallStarted()

	profile := caller.Profile()
	s.notifier.SendToUser(calleeID, domain.EventWebRTCOffer, map[string]interface{}{
		"call_id":   call.CallID,
		"caller":    profile,
		"call_type": call.CallType,
		"payload":   payload,
	})
	delivered := s.notifier.SendToUser(calleeID, domain.EventIncomingCall, map[string]interface{}{
		"call_id":   call.CallID,
		"caller":    profile,
		"call_type": call.CallType,
	})

	// The callee's device is ringing once at least one session got the
	// offer. Best effort, a lost race leaves the record at initiated.
	if delivered {
		call.Status = domain.CallStatusRinging
		if _, err := s.callRepo.CompareAndSwapStatus(ctx, call, domain.CallStatusInitiated); err != nil {
			logger.Warn("failed to mark call ringing",
				zap.String("call_id", call.CallID.String()),
				zap.Error(err))
		}
	}

	return map[string]interface{}{"call_id": call.CallID}, nil
}

// Answer relays the SDP answer to the caller's channel only. Only the
// callee may answer; the call state is untouched, session control happens
// through AnswerCall.
func (s *Service) Answer(ctx context.Context, senderID, callID uuid.UUID, payload json.RawMessage) (map[string]interface{}, error) {
	call, err := s.getCall(ctx, callID)
	if err != nil {
		return nil, err
	}
	if !call.IsParty(senderID) {
		return nil, apperrors.NotAPartyError()
	}
	if call.CalleeID == nil || *call.CalleeID != senderID {
		return nil, apperrors.ForbiddenError("only the callee can answer")
	}

	s.notifier.SendToUser(call.CallerID, domain.EventWebRTCAnswer, map[string]interface{}{
		"call_id": call.CallID,
		"payload": payload,
	})

	return nil, nil
}

// ICECandidate forwards a candidate verbatim to the target party. No call
// state is mutated and delivery is fire and forget.
func (s *Service) ICECandidate(ctx context.Context, senderID, callID, targetID uuid.UUID, payload json.RawMessage) (map[string]interface{}, error) {
	call, err := s.getCall(ctx, callID)
	if err != nil {
		return nil, err
	}
	if !call.IsParty(senderID) {
		return nil, apperrors.NotAPartyError()
	}
	if !call.IsParty(targetID) {
		return nil, apperrors.ValidationError("target is not a party to this call")
	}

	s.notifier.SendToUser(targetID, domain.EventWebRTCICECandidate, map[string]interface{}{
		"call_id":   call.CallID,
		"sender_id": senderID,
		"payload":   payload,
	})

	return nil, nil
}

// AnswerCall transitions the call to answered and notifies the caller.
// Only the callee may accept.
func (s *Service) AnswerCall(ctx context.Context, senderID, callID uuid.UUID) (map[string]interface{}, error) {
	unlock := s.lockCall(callID)
	defer unlock()

	call, err := s.getCall(ctx, callID)
	if err != nil {
		return nil, err
	}
	if !call.IsParty(senderID) {
		return nil, apperrors.NotAPartyError()
	}
	if call.CalleeID == nil || *call.CalleeID != senderID {
		return nil, apperrors.ForbiddenError("only the callee can answer")
	}

	prev := call.Status
	if !prev.CanTransition(domain.CallStatusAnswered) {
		return nil, apperrors.InvalidTransitionError(string(prev), string(domain.CallStatusAnswered))
	}

	now := time.Now().UTC()
	call.Status = domain.CallStatusAnswered
	call.AnsweredAt = &now

	swapped, err := s.callRepo.CompareAndSwapStatus(ctx, call, prev)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if !swapped {
		// Lost a race with a concurrent transition, report against the
		// current state
		current, err := s.getCall(ctx, callID)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.InvalidTransitionError(string(current.Status), string(domain.CallStatusAnswered))
	}

	s.notifier.SendToUser(call.CallerID, domain.EventCallAnswered, map[string]interface{}{
		"call_id":     call.CallID,
		"answered_at": now,
	})

	return map[string]interface{}{"call_id": call.CallID, "status": call.Status}, nil
}

// EndCall finishes a call. Either party may hang up. An answered call
// ends, an unanswered one is recorded as missed. Ending a call that is
// already in a terminal state is an idempotent no-op, never an error.
func (s *Service) EndCall(ctx context.Context, senderID, callID uuid.UUID) (map[string]interface{}, error) {
	unlock := s.lockCall(callID)
	defer unlock()

	call, err := s.getCall(ctx, callID)
	if err != nil {
		return nil, err
	}
	if !call.IsParty(senderID) {
		return nil, apperrors.NotAPartyError()
	}

	if call.Status.Terminal() {
		return map[string]interface{}{"call_id": call.CallID, "status": call.Status}, nil
	}

	prev := call.Status
	target := domain.CallStatusMissed
	if prev == domain.CallStatusAnswered {
		target = domain.CallStatusEnded
	}

	now := time.Now().UTC()
	call.Status = target
	call.EndedAt = &now
	call.Duration = call.ComputeDuration()

	if target == domain.CallStatusEnded && call.IsInternational && call.DestinationCountry != nil {
		cost, err := s.computeCost(ctx, call)
		if err != nil {
			logger.Warn("failed to compute call cost",
				zap.String("call_id", call.CallID.String()),
				zap.Error(err))
		} else {
			call.Cost = &cost
		}
	}

	swapped, err := s.callRepo.CompareAndSwapStatus(ctx, call, prev)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if !swapped {
		current, err := s.getCall(ctx, callID)
		if err != nil {
			return nil, err
		}
		if current.Status.Terminal() {
			// The other party won the race, same outcome
			return map[string]interface{}{"call_id": current.CallID, "status": current.Status}, nil
		}
		return nil, apperrors.InvalidTransitionError(string(current.Status), string(target))
	}

	s.metrics.CallFinished(string(target), time.Duration(call.Duration)*time.Second)

	if other := call.OtherParty(senderID); other != nil {
		s.notifier.SendToUser(*other, domain.EventCallEnded, map[string]interface{}{
			"call_id":  call.CallID,
			"status":   call.Status,
			"duration": call.Duration,
			"ended_at": now,
		})
	}

	return map[string]interface{}{
		"call_id":  call.CallID,
		"status":   call.Status,
		"duration": call.Duration,
	}, nil
}

// UpdateStatus publishes a presence change for the relay session
func (s *Service) UpdateStatus(ctx context.Context, senderID uuid.UUID, status string) error {
	return s.presence.UpdateStatus(ctx, senderID, status)
}

// Heartbeat keeps the relay session's presence alive
func (s *Service) Heartbeat(ctx context.Context, senderID uuid.UUID) error {
	return s.presence.Heartbeat(ctx, senderID)
}

// ExternalCall dials an external number through the active SIP trunk.
// The dial itself is simulated, the record moves straight to ringing.
func (s *Service) ExternalCall(ctx context.Context, callerID uuid.UUID, destinationNumber, destinationCountry string, callType string) (*domain.Call, error) {
	if destinationNumber == "" {
		return nil, apperrors.MissingFieldError("destination_number")
	}
	if callType == "" {
		callType = string(domain.CallTypeVoice)
	}
	kind := domain.CallType(callType)
	if !kind.Valid() {
		return nil, apperrors.ValidationError("invalid call_type")
	}

	trunk, err := s.trunkRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NotFoundError("active SIP trunk")
		}
		return nil, apperrors.DatabaseError(err)
	}

	call := &domain.Call{
		CallID:            uuid.New(),
		CallerID:          callerID,
		CallType:          kind,
		Status:            domain.CallStatusInitiated,
		CreatedAt:         time.Now().UTC(),
		IsInternational:   destinationCountry != "",
		DestinationNumber: &destinationNumber,
		TrunkID:           &trunk.TrunkID,
	}
	if destinationCountry != "" {
		call.DestinationCountry = &destinationCountry
	}

	if err := s.callRepo.Create(ctx, call); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	s.metrics.CallStarted()

	// Simulated trunk dial
	time.Sleep(100 * time.Millisecond)

	call.Status = domain.CallStatusRinging
	if _, err := s.callRepo.CompareAndSwapStatus(ctx, call, domain.CallStatusInitiated); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	return call, nil
}

// TestTrunk runs a simulated connectivity check against a trunk
func (s *Service) TestTrunk(ctx context.Context, trunkID uuid.UUID) (map[string]interface{}, error) {
	trunk, err := s.trunkRepo.GetByID(ctx, trunkID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NotFoundError("SIP trunk")
		}
		return nil, apperrors.DatabaseError(err)
	}
	if !trunk.IsActive {
		return nil, apperrors.ConflictError("trunk is not active")
	}

	// Simulated OPTIONS ping
	start := time.Now()
	time.Sleep(50 * time.Millisecond)
	latency := time.Since(start)

	return map[string]interface{}{
		"trunk_id":   trunk.TrunkID,
		"name":       trunk.Name,
		"reachable":  true,
		"latency_ms": latency.Milliseconds(),
	}, nil
}

// ListTrunks returns all configured SIP trunks
func (s *Service) ListTrunks(ctx context.Context) ([]*domain.SIPTrunk, error) {
	trunks, err := s.trunkRepo.List(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return trunks, nil
}

// ListRates returns the active international rate table, so clients can
// show the per-minute price before an external call is placed
func (s *Service) ListRates(ctx context.Context) ([]*domain.InternationalRate, error) {
	rates, err := s.rateRepo.List(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return rates, nil
}

// GetCall returns one call. Only a party or an admin may read it.
func (s *Service) GetCall(ctx context.Context, requesterID uuid.UUID, requesterRole string, callID uuid.UUID) (*domain.Call, error) {
	call, err := s.getCall(ctx, callID)
	if err != nil {
		return nil, err
	}
	if requesterRole != domain.RoleAdmin && !call.IsParty(requesterID) {
		return nil, apperrors.NotAPartyError()
	}
	return call, nil
}

// IsParty reports whether userID is the caller or the callee of the call
func (s *Service) IsParty(ctx context.Context, callID, userID uuid.UUID) (bool, error) {
	call, err := s.getCall(ctx, callID)
	if err != nil {
		return false, err
	}
	return call.IsParty(userID), nil
}

// UserCalls returns the calls visible to one user, newest first
func (s *Service) UserCalls(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Call, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	calls, err := s.callRepo.GetUserCalls(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return calls, nil
}

// DeleteCall removes a call record. Admin only.
func (s *Service) DeleteCall(ctx context.Context, requesterRole string, callID uuid.UUID) error {
	if requesterRole != domain.RoleAdmin {
		return apperrors.ForbiddenError("admin role required")
	}

	err := s.callRepo.Delete(ctx, callID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperrors.CallNotFoundError()
		}
		return apperrors.DatabaseError(err)
	}
	return nil
}

// CountByStatus returns call totals per status for the admin dashboard
func (s *Service) CountByStatus(ctx context.Context) (map[domain.CallStatus]int, error) {
	counts, err := s.callRepo.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return counts, nil
}

func (s *Service) getCall(ctx context.Context, callID uuid.UUID) (*domain.Call, error) {
	call, err := s.callRepo.GetByID(ctx, callID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.CallNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}
	return call, nil
}

// computeCost bills whole minutes, rounded up
func (s *Service) computeCost(ctx context.Context, call *domain.Call) (float64, error) {
	rate, err := s.rateRepo.GetByCountry(ctx, *call.DestinationCountry)
	if err != nil {
		return 0, fmt.Errorf("rate lookup for %s: %w", *call.DestinationCountry, err)
	}

	minutes := math.Ceil(float64(call.Duration) / 60)
	if minutes < 1 {
		minutes = 1
	}
	return rate.RatePerMinute * minutes, nil
}
