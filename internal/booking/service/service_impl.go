package service

import (
	"context"
	"strings"
	"time"

	bookingdomain "github.com/futautah-hue/balo-website/internal/booking/domain"
	"github.com/futautah-hue/balo-website/internal/clock"
	notificationdomain "github.com/futautah-hue/balo-website/internal/notification/domain"
	"github.com/futautah-hue/balo-website/internal/observability/metrics"
	"github.com/futautah-hue/balo-website/internal/providers/escrow"
	"github.com/futautah-hue/balo-website/internal/ratelimit"
	recorddomain "github.com/futautah-hue/balo-website/internal/recordstore/domain"
	"github.com/futautah-hue/balo-website/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const writeLockTTL = 10 * time.Second

type Service struct {
	log   *zap.Logger
	clock clock.Clock

	store     recorddomain.Store
	escrow    escrow.Provider
	publisher notificationdomain.Publisher
	locker    *ratelimit.Locker
	metrics   *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	Clock clock.Clock

	Store     recorddomain.Store
	Escrow    escrow.Provider
	Publisher notificationdomain.Publisher
	Locker    *ratelimit.Locker `optional:"true"`
	Metrics   *metrics.Metrics  `optional:"true"`
}

func NewService(p ServiceParam) bookingdomain.Service {
	return &Service{
		log:   p.Log.Named("booking.service"),
		clock: p.Clock,

		store:     p.Store,
		escrow:    p.Escrow,
		publisher: p.Publisher,
		locker:    p.Locker,
		metrics:   p.Metrics,
	}
}

// Confirm implements domain.Service.
func (s *Service) Confirm(ctx context.Context, req bookingdomain.ConfirmRequest) (bookingdomain.ConfirmResponse, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return bookingdomain.ConfirmResponse{}, bookingdomain.ErrUnauthenticated
	}

	kind, ok := bookingdomain.ParseKind(req.Kind)
	bookingID := strings.TrimSpace(req.BookingID)
	if !ok || bookingID == "" {
		return bookingdomain.ConfirmResponse{}, bookingdomain.ErrInvalidRequest
	}

	// The whole collection is read, mutated and written back as one unit, so
	// writes for the same user are serialized when redis is available. Without
	// it the contract degrades to last-writer-wins.
	release := s.acquireWriteLock(ctx, userID)
	defer release()

	collection, err := s.store.Get(ctx, userID, kind.CollectionName())
	if err != nil {
		return bookingdomain.ConfirmResponse{}, err
	}
	if len(collection) == 0 {
		return bookingdomain.ConfirmResponse{}, bookingdomain.ErrBookingNotFound
	}

	idx, found := bookingdomain.FindBooking(collection, bookingID)
	if !found {
		return bookingdomain.ConfirmResponse{}, bookingdomain.ErrBookingNotFound
	}

	booking, ok := bookingdomain.DecodeBooking(collection[idx])
	if !ok {
		return bookingdomain.ConfirmResponse{}, bookingdomain.ErrBookingNotFound
	}

	if booking.Status == bookingdomain.StatusCompleted {
		s.metrics.RecordBookingConfirmation(ctx, string(kind), string(bookingdomain.StageAlreadyCompleted))
		return bookingdomain.ConfirmResponse{
			Stage:  bookingdomain.StageAlreadyCompleted,
			Status: bookingdomain.StatusCompleted,
		}, nil
	}

	now := s.clock.Now()
	switch booking.RoleOf(userID) {
	case bookingdomain.RoleClient:
		if booking.ClientConfirmed != nil {
			return bookingdomain.ConfirmResponse{}, bookingdomain.ErrAlreadyConfirmed
		}
		booking.SetClientConfirmed(now)
	default:
		// Provider, plus legacy bookings without party ids recorded. Those
		// are treated as provider confirmations.
		if booking.ProviderConfirmed != nil {
			return bookingdomain.ConfirmResponse{}, bookingdomain.ErrAlreadyConfirmed
		}
		booking.SetProviderConfirmed(now)
	}

	if booking.ProviderConfirmed != nil && booking.ClientConfirmed != nil {
		booking.SetStatus(bookingdomain.StatusCompleted)
		collection[idx] = booking.Encode()
		if err := s.store.Put(ctx, userID, kind.CollectionName(), collection); err != nil {
			return bookingdomain.ConfirmResponse{}, err
		}

		s.releaseEscrow(ctx, bookingID, kind, booking)
		s.publisher.Publish(ctx, notificationdomain.BookingConfirmedEvent{
			ProviderID: booking.ProviderID,
			StudentID:  booking.ClientID,
			BookingID:  bookingID,
			Kind:       string(kind),
			Amount:     booking.Amount,
			Currency:   booking.Currency,
			Gateway:    booking.Gateway,
		})

		s.metrics.RecordBookingConfirmation(ctx, string(kind), string(bookingdomain.StageFullyCompleted))
		s.log.Info("booking fully completed",
			zap.String("booking_id", bookingID),
			zap.String("kind", string(kind)),
		)
		return bookingdomain.ConfirmResponse{
			Stage:  bookingdomain.StageFullyCompleted,
			Status: bookingdomain.StatusCompleted,
		}, nil
	}

	booking.SetStatus(bookingdomain.StatusAwaitingOther)
	collection[idx] = booking.Encode()
	if err := s.store.Put(ctx, userID, kind.CollectionName(), collection); err != nil {
		return bookingdomain.ConfirmResponse{}, err
	}

	s.metrics.RecordBookingConfirmation(ctx, string(kind), string(bookingdomain.StageSelfConfirmed))
	return bookingdomain.ConfirmResponse{
		Stage:  bookingdomain.StageSelfConfirmed,
		Status: bookingdomain.StatusAwaitingOther,
	}, nil
}

// releaseEscrow settles a completed booking. Failures are logged and counted,
// never surfaced; the persisted status stays the source of truth.
func (s *Service) releaseEscrow(ctx context.Context, bookingID string, kind bookingdomain.Kind, booking bookingdomain.Booking) {
	if s.escrow == nil {
		return
	}
	if err := s.escrow.Release(ctx, bookingID, string(kind), booking.Encode()); err != nil {
		s.metrics.RecordEscrowFailure(ctx, string(kind))
		s.log.Error("escrow release failed",
			zap.String("booking_id", bookingID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}

func (s *Service) acquireWriteLock(ctx context.Context, userID string) func() {
	if s.locker == nil {
		return func() {}
	}

	key := "booking:write:" + userID
	token, acquired, err := s.locker.TryLock(ctx, key, writeLockTTL)
	if err != nil {
		s.log.Warn("write lock unavailable", zap.Error(err))
		return func() {}
	}
	if !acquired {
		s.log.Warn("concurrent write on user collection", zap.String("user_id", userID))
		return func() {}
	}

	return func() {
		if err := s.locker.Release(ctx, key, token); err != nil {
			s.log.Warn("write lock release failed", zap.Error(err))
		}
	}
}
