package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/advocate-booking/internal/model"
)

// AccountRepo persists client and advocate accounts in the single
// `accounts` table and rebuilds the role variant on every read.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

const accountColumns = "id,role,name,email,phone,bar_number,password_hash,is_active,is_active_advocate,created_at,updated_at"

// CreateClient inserts a client account and fills in its ID.
func (r *AccountRepo) CreateClient(ctx context.Context, a *model.Account) error {
	a.Email = normalizeEmail(a.Email)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts (role, name, email, phone, password_hash, is_active) VALUES (?,?,?,?,?,?)",
		model.RoleClient, a.Name, a.Email, a.Phone, a.PasswordHash, a.IsActive)
	if err != nil {
		return accountConflict(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// CreateAdvocate inserts an advocate account together with its empty
// profile in one transaction.  Nothing is written when either insert fails.
func (r *AccountRepo) CreateAdvocate(ctx context.Context, a *model.Account, p *model.AdvocateProfile) error {
	a.Email = normalizeEmail(a.Email)
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO accounts (role, name, email, phone, bar_number, password_hash, is_active, is_active_advocate) VALUES (?,?,?,?,?,?,?,?)",
		model.RoleAdvocate, a.Name, a.Email, a.Phone, a.Advocate.BarNumber, a.PasswordHash, a.IsActive, a.Advocate.Active)
	if err != nil {
		return accountConflict(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.AccountID = uint64(id)
	if err := insertProfileTx(ctx, tx, p); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	a.ID = uint64(id)
	return nil
}

// GetByEmail fetches an account of the given role by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, role model.Role, email string) (model.Account, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE email=? AND role=? LIMIT 1",
		normalizeEmail(email), role)
	return scanAccount(row)
}

// GetByBarNumber fetches an advocate by bar-registration number.
func (r *AccountRepo) GetByBarNumber(ctx context.Context, barNumber string) (model.Account, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE bar_number=? AND role=? LIMIT 1",
		strings.TrimSpace(barNumber), model.RoleAdvocate)
	return scanAccount(row)
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id=? LIMIT 1", id)
	return scanAccount(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanAccount reads one accounts row and attaches the variant payload
// matching its role.
func scanAccount(s rowScanner) (model.Account, error) {
	var (
		a        model.Account
		role     string
		bar      sql.NullString
		activeAd bool
	)
	err := s.Scan(&a.ID, &role, &a.Name, &a.Email, &a.Phone, &bar, &a.PasswordHash, &a.IsActive, &activeAd, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, ErrNotFound
	}
	if err != nil {
		return model.Account{}, err
	}
	a.Role = model.Role(role)
	switch a.Role {
	case model.RoleAdvocate:
		a.Advocate = &model.AdvocateDetails{BarNumber: bar.String, Active: activeAd}
	default:
		a.Client = &model.ClientDetails{}
	}
	return a, nil
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }
