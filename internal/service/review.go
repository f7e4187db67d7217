package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/advocate-booking/internal/access"
	"github.com/iliyamo/advocate-booking/internal/model"
	"github.com/iliyamo/advocate-booking/internal/monitoring"
	"github.com/iliyamo/advocate-booking/internal/queue"
	"github.com/iliyamo/advocate-booking/internal/repository"
)

// ReviewService records client reviews and keeps advocate ratings current.
type ReviewService struct {
	Reviews ReviewStore
	Events  EventPublisher
	Log     *zap.Logger
}

func NewReviewService(reviews ReviewStore, events EventPublisher, log *zap.Logger) *ReviewService {
	return &ReviewService{Reviews: reviews, Events: events, Log: log}
}

// Submit stores the client's review of a completed booking and returns it
// with the advocate's recomputed rating.  Checks run with the booking row
// locked: a non-client or another client gets ErrForbidden, a booking that
// already has a review ErrAlreadyReviewed, an unfinished booking
// ErrNotCompleted and a rating outside 1..5 ErrInvalidInput.
func (s *ReviewService) Submit(ctx context.Context, actor model.Account, bookingID uint64, rating int, comment string) (model.Review, decimal.Decimal, error) {
	if !actor.IsClient() {
		return model.Review{}, decimal.Zero, ErrForbidden
	}
	comment = strings.TrimSpace(comment)
	rv, avg, err := s.Reviews.Submit(ctx, bookingID, func(b model.Booking, reviewed bool) (model.Review, error) {
		switch {
		case !access.IsReviewer(actor, b):
			return model.Review{}, ErrForbidden
		case reviewed:
			return model.Review{}, ErrAlreadyReviewed
		case b.Status != model.StatusCompleted:
			return model.Review{}, ErrNotCompleted
		case !model.ValidRating(rating):
			return model.Review{}, invalid("rating must be between %d and %d", model.MinRating, model.MaxRating)
		case !access.CanReview(actor, b, reviewed):
			return model.Review{}, ErrForbidden
		}
		return model.Review{BookingID: b.ID, ClientID: b.ClientID, AdvocateID: b.AdvocateID, Rating: rating, Comment: comment}, nil
	})
	if errors.Is(err, repository.ErrConflict) {
		return model.Review{}, decimal.Zero, ErrAlreadyReviewed
	}
	if err != nil {
		return model.Review{}, decimal.Zero, notFound(err)
	}
	monitoring.ReviewsSubmitted.Inc()
	s.Log.Info("review submitted",
		zap.Uint64("booking_id", rv.BookingID), zap.Uint64("advocate_id", rv.AdvocateID),
		zap.Int("rating", rv.Rating), zap.String("advocate_rating", avg.StringFixed(2)))

	ev := queue.NewEvent(queue.ReviewSubmitted)
	ev.BookingID, ev.ClientID, ev.AdvocateID, ev.Rating = rv.BookingID, rv.ClientID, rv.AdvocateID, avg.StringFixed(2)
	publish(ctx, s.Log, s.Events, ev)
	return rv, avg, nil
}

// ListForAdvocate returns the advocate's reviews, newest first.
func (s *ReviewService) ListForAdvocate(ctx context.Context, advocateID uint64) ([]model.Review, error) {
	return s.Reviews.ListByAdvocate(ctx, advocateID)
}
