package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/advocate-booking/internal/access"
	"github.com/iliyamo/advocate-booking/internal/model"
	"github.com/iliyamo/advocate-booking/internal/monitoring"
	"github.com/iliyamo/advocate-booking/internal/queue"
	"github.com/iliyamo/advocate-booking/internal/repository"
)

// BookingService creates consultation requests and moves them through the
// booking state machine.
type BookingService struct {
	Accounts  AccountStore
	Profiles  ProfileStore
	Bookings  BookingStore
	Documents DocumentStore
	Reviews   ReviewStore
	Events    EventPublisher
	Log       *zap.Logger
	Now       func() time.Time
}

func NewBookingService(accounts AccountStore, profiles ProfileStore, bookings BookingStore, docs DocumentStore,
	reviews ReviewStore, events EventPublisher, log *zap.Logger) *BookingService {
	return &BookingService{
		Accounts: accounts, Profiles: profiles, Bookings: bookings, Documents: docs,
		Reviews: reviews, Events: events, Log: log, Now: func() time.Time { return time.Now().UTC() },
	}
}

// BookingRequest is the raw client input for a new booking.
type BookingRequest struct {
	Date    string
	Time    string
	Purpose string
	Notes   string
}

// BookingDetail is a booking with everything attached to it.
type BookingDetail struct {
	Booking   model.Booking
	Documents []model.Document
	Review    *model.Review
}

// AdvocateDashboard lists the advocate's bookings next to its profile.
type AdvocateDashboard struct {
	Profile  *model.AdvocateProfile
	Bookings []model.Booking
}

// Create books advocateID for the client.  The client must hold the client
// role and the advocate must be an active advocate.  No overlap check is
// made against other bookings of the advocate.
func (s *BookingService) Create(ctx context.Context, client model.Account, advocateID uint64, in BookingRequest) (model.Booking, error) {
	if !client.IsClient() {
		return model.Booking{}, ErrForbidden
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return model.Booking{}, err
	}
	clock, err := parseClock(in.Time)
	if err != nil {
		return model.Booking{}, err
	}
	purpose, err := checkPurpose(in.Purpose)
	if err != nil {
		return model.Booking{}, err
	}
	adv, err := s.Accounts.GetByID(ctx, advocateID)
	if err != nil {
		return model.Booking{}, notFound(err)
	}
	if !adv.IsAdvocate() {
		return model.Booking{}, ErrNotFound
	}
	if !adv.IsActiveAdvocate() {
		return model.Booking{}, ErrAdvocateInactive
	}

	b := model.Booking{
		ClientID:   client.ID,
		AdvocateID: adv.ID,
		Date:       date,
		Time:       clock,
		Purpose:    purpose,
		Notes:      strings.TrimSpace(in.Notes),
		Status:     model.StatusPending,
	}
	if err := s.Bookings.Create(ctx, &b); err != nil {
		return model.Booking{}, err
	}
	monitoring.BookingsCreated.Inc()
	s.Log.Info("booking created",
		zap.Uint64("booking_id", b.ID), zap.Uint64("client_id", b.ClientID), zap.Uint64("advocate_id", b.AdvocateID))

	ev := queue.NewEvent(queue.BookingCreated)
	ev.BookingID, ev.ClientID, ev.AdvocateID, ev.Status = b.ID, b.ClientID, b.AdvocateID, string(b.Status)
	publish(ctx, s.Log, s.Events, ev)
	return b, nil
}

// Transition moves a booking to target on behalf of actor.  Only the
// booking's advocate may change its status; any other actor fails with
// ErrForbidden and an edge outside the state machine with
// ErrInvalidTransition.  The check and the write happen under the booking
// row lock, so concurrent transitions of one booking are serialized.
func (s *BookingService) Transition(ctx context.Context, actor model.Account, bookingID uint64, target string, meetingLink string) (model.Booking, error) {
	if !actor.IsAdvocate() {
		return model.Booking{}, ErrForbidden
	}
	status, ok := model.ParseBookingStatus(strings.ToLower(strings.TrimSpace(target)))
	if !ok {
		return model.Booking{}, invalid("unknown status %q", target)
	}
	link, err := checkMeetingLink(meetingLink)
	if err != nil {
		return model.Booking{}, err
	}

	var from model.BookingStatus
	b, err := s.Bookings.Mutate(ctx, bookingID, func(b *model.Booking) error {
		if !access.CanTransition(actor, *b, status) {
			return ErrForbidden
		}
		from = b.Status
		if !b.Transition(status, link, s.Now()) {
			return ErrInvalidTransition
		}
		return nil
	})
	if err != nil {
		return model.Booking{}, notFound(err)
	}
	monitoring.BookingTransitions.WithLabelValues(string(b.Status)).Inc()
	s.Log.Info("booking status changed",
		zap.Uint64("booking_id", b.ID), zap.String("from", string(from)), zap.String("to", string(b.Status)))

	ev := queue.NewEvent(queue.BookingStatusChanged)
	ev.BookingID, ev.ClientID, ev.AdvocateID, ev.Status = b.ID, b.ClientID, b.AdvocateID, string(b.Status)
	publish(ctx, s.Log, s.Events, ev)
	return b, nil
}

// ListForClient returns the client's bookings, newest first.
func (s *BookingService) ListForClient(ctx context.Context, client model.Account) ([]model.Booking, error) {
	if !client.IsClient() {
		return nil, ErrForbidden
	}
	return s.Bookings.ListByClient(ctx, client.ID)
}

// ListForAdvocate returns the advocate's bookings, newest first, and its
// profile when one exists.
func (s *BookingService) ListForAdvocate(ctx context.Context, advocate model.Account) (AdvocateDashboard, error) {
	if !advocate.IsAdvocate() {
		return AdvocateDashboard{}, ErrForbidden
	}
	list, err := s.Bookings.ListByAdvocate(ctx, advocate.ID)
	if err != nil {
		return AdvocateDashboard{}, err
	}
	out := AdvocateDashboard{Bookings: list}
	p, err := s.Profiles.GetByAccountID(ctx, advocate.ID)
	switch {
	case err == nil:
		out.Profile = &p
	case !errors.Is(err, repository.ErrNotFound):
		return AdvocateDashboard{}, err
	}
	return out, nil
}

// Detail returns a booking with its documents and review to one of its
// parties.
func (s *BookingService) Detail(ctx context.Context, actor model.Account, bookingID uint64) (BookingDetail, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return BookingDetail{}, notFound(err)
	}
	if !access.CanManageBooking(actor, b) {
		return BookingDetail{}, ErrForbidden
	}
	docs, err := s.Documents.ListByBooking(ctx, b.ID)
	if err != nil {
		return BookingDetail{}, err
	}
	out := BookingDetail{Booking: b, Documents: docs}
	rv, err := s.Reviews.GetByBooking(ctx, b.ID)
	switch {
	case err == nil:
		out.Review = &rv
	case !errors.Is(err, repository.ErrNotFound):
		return BookingDetail{}, err
	}
	return out, nil
}
