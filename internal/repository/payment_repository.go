package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/advocate-booking/internal/model"
)

// PaymentRepo persists advocate registration fee orders.
type PaymentRepo struct{ db *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = "id, account_id, order_id, payment_id, signature, amount, status, created_at, updated_at"

func scanPayment(s rowScanner) (model.AdvocatePayment, error) {
	var (
		p         model.AdvocatePayment
		paymentID sql.NullString
		signature sql.NullString
		status    string
	)
	err := s.Scan(&p.ID, &p.AccountID, &p.OrderID, &paymentID, &signature, &p.Amount, &status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AdvocatePayment{}, ErrNotFound
	}
	if err != nil {
		return model.AdvocatePayment{}, err
	}
	p.PaymentID = paymentID.String
	p.Signature = signature.String
	p.Status = model.PaymentStatus(status)
	return p, nil
}

// Create records a pending order.
func (r *PaymentRepo) Create(ctx context.Context, p *model.AdvocatePayment) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO advocate_payments (account_id, order_id, amount, status) VALUES (?, ?, ?, ?)",
		p.AccountID, p.OrderID, p.Amount, model.PaymentPending)
	if err != nil {
		if _, dup := duplicateKey(err); dup {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	saved, err := scanPayment(r.db.QueryRowContext(ctx, "SELECT "+paymentColumns+" FROM advocate_payments WHERE id = ?", id))
	if err != nil {
		return err
	}
	*p = saved
	return nil
}

// Settle locks the account's order row, lets fn decide the outcome and
// stores it.  When the payment ends up paid the advocate is activated in
// the same transaction.  An fn error aborts without changes unless the row
// was marked failed, in which case the failure is persisted and fn's error
// is still returned.
func (r *PaymentRepo) Settle(ctx context.Context, accountID uint64, orderID string, fn func(p *model.AdvocatePayment) error) (model.AdvocatePayment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.AdvocatePayment{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	p, err := scanPayment(tx.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM advocate_payments WHERE order_id = ? AND account_id = ? FOR UPDATE", orderID, accountID))
	if err != nil {
		return model.AdvocatePayment{}, err
	}
	before := p.Status
	fnErr := fn(&p)
	if fnErr != nil && p.Status != model.PaymentFailed {
		return model.AdvocatePayment{}, fnErr
	}
	if p.Status != before || fnErr == nil {
		if _, err := tx.ExecContext(ctx,
			"UPDATE advocate_payments SET payment_id = ?, signature = ?, status = ? WHERE id = ?",
			nullable(p.PaymentID), nullable(p.Signature), p.Status, p.ID); err != nil {
			return model.AdvocatePayment{}, err
		}
	}
	if p.Status == model.PaymentPaid {
		if _, err := tx.ExecContext(ctx,
			"UPDATE accounts SET is_active_advocate = 1 WHERE id = ? AND role = ?", accountID, model.RoleAdvocate); err != nil {
			return model.AdvocatePayment{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.AdvocatePayment{}, err
	}
	committed = true
	return p, fnErr
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
