package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/advocate-booking/internal/model"
)

// BookingRepo provides persistence for consultation bookings.  Status
// changes go exclusively through Mutate, which holds a row lock on the
// booking for the whole read-modify-write cycle.  All timestamps are UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying sql.DB for callers that need to begin a
// transaction spanning several repositories.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingColumns = "id, client_id, advocate_id, date, time, purpose, notes, status, meeting_link, created_at, updated_at"

// scanBooking reads one bookings row.  TIME columns are not converted by
// parseTime and arrive as "HH:MM:SS"; they are trimmed to "HH:MM".
func scanBooking(s rowScanner) (model.Booking, error) {
	var (
		b      model.Booking
		clock  string
		status string
	)
	err := s.Scan(&b.ID, &b.ClientID, &b.AdvocateID, &b.Date, &clock, &b.Purpose, &b.Notes,
		&status, &b.MeetingLink, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	if err != nil {
		return model.Booking{}, err
	}
	b.Status = model.BookingStatus(status)
	b.Time = trimClock(clock)
	return b, nil
}

func trimClock(s string) string {
	if parts := strings.Split(s, ":"); len(parts) >= 2 {
		return parts[0] + ":" + parts[1]
	}
	return s
}

// Create inserts a new booking in the pending state and populates the
// generated ID and DB-default fields on b.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	now := time.Now().UTC()
	const q = `INSERT INTO bookings (client_id, advocate_id, date, time, purpose, notes, status, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, b.ClientID, b.AdvocateID, b.Date.Format("2006-01-02"), b.Time+":00",
		b.Purpose, b.Notes, model.StatusPending, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	saved, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*b = saved
	return nil
}

// GetByID returns a booking by primary key or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id))
}

// ListByClient returns the client's bookings, newest first.
func (r *BookingRepo) ListByClient(ctx context.Context, clientID uint64) ([]model.Booking, error) {
	return r.list(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE client_id = ? ORDER BY created_at DESC, id DESC", clientID)
}

// ListByAdvocate returns the advocate's bookings, newest first.
func (r *BookingRepo) ListByAdvocate(ctx context.Context, advocateID uint64) ([]model.Booking, error) {
	return r.list(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE advocate_id = ? ORDER BY created_at DESC, id DESC", advocateID)
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Mutate locks the booking row (SELECT ... FOR UPDATE), hands a copy to fn
// and persists status, meeting link and updated_at together if fn returns
// nil.  Any error from fn rolls the transaction back and is returned as is,
// so a rejected change leaves the row untouched.  Concurrent calls on the
// same booking are serialized by the lock.
func (r *BookingRepo) Mutate(ctx context.Context, id uint64, fn func(b *model.Booking) error) (model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Booking{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	b, err := scanBooking(tx.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ? FOR UPDATE", id))
	if err != nil {
		return model.Booking{}, err
	}
	if err := fn(&b); err != nil {
		return model.Booking{}, err
	}
	const upd = `UPDATE bookings SET status = ?, meeting_link = ?, updated_at = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, upd, b.Status, b.MeetingLink, b.UpdatedAt.UTC(), b.ID); err != nil {
		return model.Booking{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Booking{}, err
	}
	committed = true
	return b, nil
}
