package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/advocate-booking/internal/model"
)

var (
	day = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	now = time.Date(2025, 1, 9, 8, 0, 0, 0, time.UTC)

	errRejected = errors.New("rejected")
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func q(sql string) string { return regexp.QuoteMeta(sql) }

func columns(list string) []string { return strings.Split(list, ", ") }

func bookingRows(status string) *sqlmock.Rows {
	return sqlmock.NewRows(columns(bookingColumns)).
		AddRow(7, 1, 2, day, "10:00:00", "Contract review", "", status, "", now, now)
}

// decimalArg matches a decimal bound as its string form.
type decimalArg string

func (d decimalArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	got, err := decimal.NewFromString(s)
	return err == nil && got.Equal(decimal.RequireFromString(string(d)))
}

const lockBooking = "FROM bookings WHERE id = ? FOR UPDATE"

func TestMutateWritesStatusAndLinkTogether(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q(lockBooking)).WithArgs(7).WillReturnRows(bookingRows("pending"))
	mock.ExpectExec(q("UPDATE bookings SET status = ?, meeting_link = ?, updated_at = ? WHERE id = ?")).
		WithArgs("accepted", "https://meet/abc", sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	b, err := NewBookingRepo(db).Mutate(context.Background(), 7, func(b *model.Booking) error {
		require.True(t, b.Transition(model.StatusAccepted, "https://meet/abc", now.Add(time.Hour)))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, b.Status)
	assert.Equal(t, "10:00", b.Time)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMutateRejectionRollsBackWithoutUpdate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q(lockBooking)).WithArgs(7).WillReturnRows(bookingRows("completed"))
	mock.ExpectRollback()

	_, err := NewBookingRepo(db).Mutate(context.Background(), 7, func(*model.Booking) error { return errRejected })
	assert.ErrorIs(t, err, errRejected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMutateUnknownBooking(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q(lockBooking)).WithArgs(8).WillReturnRows(sqlmock.NewRows(columns(bookingColumns)))
	mock.ExpectRollback()

	_, err := NewBookingRepo(db).Mutate(context.Background(), 8, func(*model.Booking) error {
		t.Fatal("callback must not run for a missing booking")
		return nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

// expectReviewLocks queues the locking reads Submit performs before it
// calls the builder.
func expectReviewLocks(mock sqlmock.Sqlmock, status string) {
	mock.ExpectBegin()
	mock.ExpectQuery(q(lockBooking)).WithArgs(7).WillReturnRows(bookingRows(status))
	mock.ExpectQuery(q("SELECT id FROM reviews WHERE booking_id = ? FOR UPDATE")).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
}

func buildReview(b model.Booking, reviewed bool) (model.Review, error) {
	if reviewed || b.Status != model.StatusCompleted {
		return model.Review{}, errRejected
	}
	return model.Review{Rating: 4, Comment: "clear advice"}, nil
}

func TestSubmitRecomputesRatingBeforeCommit(t *testing.T) {
	db, mock := newMock(t)
	expectReviewLocks(mock, "completed")
	mock.ExpectQuery(q("SELECT account_id FROM advocate_profiles WHERE account_id = ? FOR UPDATE")).WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"account_id"}).AddRow(2))
	mock.ExpectExec(q("INSERT INTO reviews")).WithArgs(7, 1, 2, 4, "clear advice").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(q("SELECT ROUND(AVG(rating), 2) FROM reviews WHERE advocate_id = ? LOCK IN SHARE MODE")).WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow("4.50"))
	mock.ExpectExec(q("UPDATE advocate_profiles SET rating = ? WHERE account_id = ?")).WithArgs(decimalArg("4.50"), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("FROM reviews WHERE id = ?")).WithArgs(11).
		WillReturnRows(sqlmock.NewRows(columns(reviewColumns)).AddRow(11, 7, 1, 2, 4, "clear advice", now))
	mock.ExpectCommit()

	rv, rating, err := NewReviewRepo(db).Submit(context.Background(), 7, buildReview)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), rv.ID)
	assert.True(t, rating.Equal(decimal.RequireFromString("4.5")), rating.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitCreatesMissingProfile(t *testing.T) {
	db, mock := newMock(t)
	expectReviewLocks(mock, "completed")
	mock.ExpectQuery(q("FROM advocate_profiles WHERE account_id = ? FOR UPDATE")).WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"account_id"}))
	mock.ExpectExec(q("INSERT INTO advocate_profiles")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO reviews")).WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectQuery(q("SELECT ROUND(AVG(rating), 2)")).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow("4.00"))
	mock.ExpectExec(q("UPDATE advocate_profiles SET rating = ?")).WithArgs(decimalArg("4"), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("FROM reviews WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(columns(reviewColumns)).AddRow(12, 7, 1, 2, 4, "clear advice", now))
	mock.ExpectCommit()

	_, rating, err := NewReviewRepo(db).Submit(context.Background(), 7, buildReview)
	require.NoError(t, err)
	assert.True(t, rating.Equal(decimal.NewFromInt(4)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitBuilderRejectionWritesNothing(t *testing.T) {
	db, mock := newMock(t)
	expectReviewLocks(mock, "accepted")
	mock.ExpectRollback()

	_, _, err := NewReviewRepo(db).Submit(context.Background(), 7, buildReview)
	assert.ErrorIs(t, err, errRejected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitDuplicateReviewIsConflict(t *testing.T) {
	db, mock := newMock(t)
	expectReviewLocks(mock, "completed")
	mock.ExpectQuery(q("FROM advocate_profiles WHERE account_id = ? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"account_id"}).AddRow(2))
	mock.ExpectExec(q("INSERT INTO reviews")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7' for key 'reviews.uq_reviews_booking'"})
	mock.ExpectRollback()

	_, _, err := NewReviewRepo(db).Submit(context.Background(), 7, buildReview)
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

const lockPayment = "FROM advocate_payments WHERE order_id = ? AND account_id = ? FOR UPDATE"

func paymentRows(status string) *sqlmock.Rows {
	return sqlmock.NewRows(columns(paymentColumns)).
		AddRow(5, 3, "order_A", nil, nil, "999.00", status, now, now)
}

func TestSettlePaidActivatesAdvocate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q(lockPayment)).WithArgs("order_A", 3).WillReturnRows(paymentRows("pending"))
	mock.ExpectExec(q("UPDATE advocate_payments SET payment_id = ?, signature = ?, status = ? WHERE id = ?")).
		WithArgs("pay_1", "sig", "paid", 5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE accounts SET is_active_advocate = 1 WHERE id = ? AND role = ?")).
		WithArgs(3, "advocate").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := NewPaymentRepo(db).Settle(context.Background(), 3, "order_A", func(p *model.AdvocatePayment) error {
		assert.True(t, p.Amount.Equal(decimal.NewFromInt(999)))
		p.PaymentID, p.Signature, p.Status = "pay_1", "sig", model.PaymentPaid
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, p.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleFailureIsPersistedAndReturned(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q(lockPayment)).WithArgs("order_A", 3).WillReturnRows(paymentRows("pending"))
	mock.ExpectExec(q("UPDATE advocate_payments SET")).
		WithArgs("pay_1", "forged", "failed", 5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := NewPaymentRepo(db).Settle(context.Background(), 3, "order_A", func(p *model.AdvocatePayment) error {
		p.PaymentID, p.Signature, p.Status = "pay_1", "forged", model.PaymentFailed
		return errRejected
	})
	assert.ErrorIs(t, err, errRejected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleRejectionWithoutFailureRollsBack(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q(lockPayment)).WithArgs("order_A", 3).WillReturnRows(paymentRows("pending"))
	mock.ExpectRollback()

	_, err := NewPaymentRepo(db).Settle(context.Background(), 3, "order_A", func(*model.AdvocatePayment) error {
		return errRejected
	})
	assert.ErrorIs(t, err, errRejected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchEscapesWildcards(t *testing.T) {
	assert.Equal(t, "%100!%!_off!!%", containsPattern("100%_off!"))

	db, mock := newMock(t)
	pat := containsPattern("%")
	mock.ExpectQuery(q("SELECT COUNT(*)")).WithArgs("advocate", pat, pat, pat, pat, pat).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectQuery(q("LIMIT ? OFFSET ?")).WithArgs("advocate", pat, pat, pat, pat, pat, 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"account_id"}))

	items, total, err := NewProfileRepo(db).Search(context.Background(), AdvocateSearchQuery{Text: "%", Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
	require.NoError(t, mock.ExpectationsWereMet())
}
