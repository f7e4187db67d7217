package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/advocate-booking/internal/model"
)

// ReviewRepo stores reviews and keeps the advocate's derived rating in
// step with them.
type ReviewRepo struct{ db *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewColumns = "id, booking_id, client_id, advocate_id, rating, comment, created_at"

func scanReview(s rowScanner) (model.Review, error) {
	var rv model.Review
	err := s.Scan(&rv.ID, &rv.BookingID, &rv.ClientID, &rv.AdvocateID, &rv.Rating, &rv.Comment, &rv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Review{}, ErrNotFound
	}
	return rv, err
}

// ReviewBuilder decides, with the booking row locked, whether a review may
// be written and returns it.  reviewed reports whether one already exists.
type ReviewBuilder func(b model.Booking, reviewed bool) (model.Review, error)

// Submit inserts a review and recomputes the advocate's rating in a single
// transaction:
//
//   1. lock the booking row and look for an existing review,
//   2. let build validate and construct the review,
//   3. lock the advocate's profile row (creating it if missing),
//   4. insert the review and write ROUND(AVG(rating), 2) back to the profile.
//
// Locking the profile row serializes reviews of the same advocate across
// different bookings, and the average is taken with a locking read so it
// always sees every committed review.  It returns the stored review and the
// new rating.
func (r *ReviewRepo) Submit(ctx context.Context, bookingID uint64, build ReviewBuilder) (model.Review, decimal.Decimal, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Review{}, decimal.Zero, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := scanBooking(tx.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ? FOR UPDATE", bookingID))
	if err != nil {
		return model.Review{}, decimal.Zero, err
	}
	var existing uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM reviews WHERE booking_id = ? FOR UPDATE", bookingID).Scan(&existing)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.Review{}, decimal.Zero, err
	}
	rv, err := build(b, existing != 0)
	if err != nil {
		return model.Review{}, decimal.Zero, err
	}

	var locked uint64
	err = tx.QueryRowContext(ctx, "SELECT account_id FROM advocate_profiles WHERE account_id = ? FOR UPDATE", b.AdvocateID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		err = insertProfileTx(ctx, tx, &model.AdvocateProfile{AccountID: b.AdvocateID})
	}
	if err != nil {
		return model.Review{}, decimal.Zero, err
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO reviews (booking_id, client_id, advocate_id, rating, comment) VALUES (?, ?, ?, ?, ?)",
		b.ID, b.ClientID, b.AdvocateID, rv.Rating, rv.Comment)
	if err != nil {
		if _, dup := duplicateKey(err); dup {
			return model.Review{}, decimal.Zero, ErrConflict
		}
		return model.Review{}, decimal.Zero, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Review{}, decimal.Zero, err
	}

	var avg decimal.NullDecimal
	if err := tx.QueryRowContext(ctx,
		"SELECT ROUND(AVG(rating), 2) FROM reviews WHERE advocate_id = ? LOCK IN SHARE MODE", b.AdvocateID).Scan(&avg); err != nil {
		return model.Review{}, decimal.Zero, err
	}
	rating := decimal.Zero
	if avg.Valid {
		rating = avg.Decimal
	}
	if _, err := tx.ExecContext(ctx, "UPDATE advocate_profiles SET rating = ? WHERE account_id = ?", rating, b.AdvocateID); err != nil {
		return model.Review{}, decimal.Zero, err
	}

	saved, err := scanReview(tx.QueryRowContext(ctx, "SELECT "+reviewColumns+" FROM reviews WHERE id = ?", id))
	if err != nil {
		return model.Review{}, decimal.Zero, err
	}
	if err := tx.Commit(); err != nil {
		return model.Review{}, decimal.Zero, err
	}
	committed = true
	return saved, rating, nil
}

// GetByBooking returns the review of a booking or ErrNotFound.
func (r *ReviewRepo) GetByBooking(ctx context.Context, bookingID uint64) (model.Review, error) {
	return scanReview(r.db.QueryRowContext(ctx, "SELECT "+reviewColumns+" FROM reviews WHERE booking_id = ?", bookingID))
}

// ListByAdvocate returns the advocate's reviews, newest first.
func (r *ReviewRepo) ListByAdvocate(ctx context.Context, advocateID uint64) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE advocate_id = ? ORDER BY created_at DESC, id DESC", advocateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
