package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/advocate-booking/internal/model"
)

// ProfileRepo manages `advocate_profiles` rows and the public advocate
// listings built on top of them.
type ProfileRepo struct{ db *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{db: db} }

const profileColumns = "p.account_id, p.specialization, p.experience_years, p.location, p.bio, p.consultation_fee, p.rating, p.total_cases, p.updated_at"

func insertProfileTx(ctx context.Context, tx *sql.Tx, p *model.AdvocateProfile) error {
	if p.ConsultationFee.IsZero() {
		p.ConsultationFee = model.DefaultConsultationFee
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO advocate_profiles (account_id, specialization, experience_years, location, bio, consultation_fee)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.AccountID, p.Specialization, p.ExperienceYears, p.Location, p.Bio, p.ConsultationFee)
	return err
}

func scanProfile(s rowScanner) (model.AdvocateProfile, error) {
	var p model.AdvocateProfile
	err := s.Scan(&p.AccountID, &p.Specialization, &p.ExperienceYears, &p.Location, &p.Bio,
		&p.ConsultationFee, &p.Rating, &p.TotalCases, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AdvocateProfile{}, ErrNotFound
	}
	return p, err
}

// GetByAccountID returns the advocate's profile or ErrNotFound.
func (r *ProfileRepo) GetByAccountID(ctx context.Context, accountID uint64) (model.AdvocateProfile, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM advocate_profiles p WHERE p.account_id = ?", accountID)
	return scanProfile(row)
}

// Upsert creates the profile when missing or overwrites its editable fields,
// and with activate set also marks the owning advocate active.  Rating and
// total case count are left untouched.
func (r *ProfileRepo) Upsert(ctx context.Context, accountID uint64, u model.ProfileUpdate, activate bool) (model.AdvocateProfile, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.AdvocateProfile{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const q = `INSERT INTO advocate_profiles (account_id, specialization, experience_years, location, bio, consultation_fee)
	           VALUES (?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE specialization = VALUES(specialization),
	                                   experience_years = VALUES(experience_years),
	                                   location = VALUES(location),
	                                   bio = VALUES(bio),
	                                   consultation_fee = VALUES(consultation_fee)`
	if _, err := tx.ExecContext(ctx, q, accountID, u.Specialization, u.ExperienceYears, u.Location, u.Bio, u.ConsultationFee); err != nil {
		return model.AdvocateProfile{}, err
	}
	if activate {
		if _, err := tx.ExecContext(ctx, "UPDATE accounts SET is_active_advocate = 1 WHERE id = ? AND role = ?", accountID, model.RoleAdvocate); err != nil {
			return model.AdvocateProfile{}, err
		}
	}
	p, err := scanProfile(tx.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM advocate_profiles p WHERE p.account_id = ?", accountID))
	if err != nil {
		return model.AdvocateProfile{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.AdvocateProfile{}, err
	}
	committed = true
	return p, nil
}

// AdvocateSearchQuery defines the filter & pagination for advocate search.
type AdvocateSearchQuery struct {
	Text     string
	Page     int
	PageSize int
}

const cardSelect = `SELECT a.id, a.role, a.name, a.email, a.phone, a.bar_number, a.password_hash, a.is_active, a.is_active_advocate, a.created_at, a.updated_at,
	       ` + profileColumns + `
	FROM accounts a
	JOIN advocate_profiles p ON p.account_id = a.id`

func scanCard(s rowScanner) (model.AdvocateCard, error) {
	var (
		c        model.AdvocateCard
		role     string
		bar      sql.NullString
		activeAd bool
	)
	a := &c.Account
	p := &c.Profile
	if err := s.Scan(&a.ID, &role, &a.Name, &a.Email, &a.Phone, &bar, &a.PasswordHash, &a.IsActive, &activeAd, &a.CreatedAt, &a.UpdatedAt,
		&p.AccountID, &p.Specialization, &p.ExperienceYears, &p.Location, &p.Bio, &p.ConsultationFee, &p.Rating, &p.TotalCases, &p.UpdatedAt); err != nil {
		return c, err
	}
	a.Role = model.Role(role)
	a.Advocate = &model.AdvocateDetails{BarNumber: bar.String, Active: activeAd}
	return c, nil
}

// likeEscaper neutralizes LIKE wildcards using '!' as the escape character.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern builds a LIKE pattern matching text literally anywhere.
func containsPattern(text string) string { return "%" + likeEscaper.Replace(text) + "%" }

// Search lists active advocates whose name, email, location, specialization
// or bar number contains the query text (case-insensitive).  An empty text
// matches every active advocate.  It returns the page and the total count.
func (r *ProfileRepo) Search(ctx context.Context, q AdvocateSearchQuery) ([]model.AdvocateCard, int64, error) {
	where := []string{"a.role = ?", "a.is_active = 1", "a.is_active_advocate = 1"}
	args := []any{model.RoleAdvocate}
	if t := strings.ToLower(strings.TrimSpace(q.Text)); t != "" {
		like := containsPattern(t)
		where = append(where, `(LOWER(a.name) LIKE ? ESCAPE '!' OR LOWER(a.email) LIKE ? ESCAPE '!'
		                        OR LOWER(p.location) LIKE ? ESCAPE '!' OR LOWER(p.specialization) LIKE ? ESCAPE '!'
		                        OR LOWER(a.bar_number) LIKE ? ESCAPE '!')`)
		args = append(args, like, like, like, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := `SELECT COUNT(*) FROM accounts a JOIN advocate_profiles p ON p.account_id = a.id WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	dataSQL := cardSelect + ` WHERE ` + cond + ` ORDER BY p.rating DESC, a.id ASC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, dataSQL, append(args, size, (page-1)*size)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.AdvocateCard, 0, size)
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// Featured returns up to limit active advocates for the home listing.
func (r *ProfileRepo) Featured(ctx context.Context, limit int) ([]model.AdvocateCard, error) {
	rows, err := r.db.QueryContext(ctx,
		cardSelect+` WHERE a.role = ? AND a.is_active = 1 AND a.is_active_advocate = 1 ORDER BY p.rating DESC, a.id ASC LIMIT ?`,
		model.RoleAdvocate, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.AdvocateCard, 0, limit)
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCard returns a single advocate with its profile, active or not.
func (r *ProfileRepo) GetCard(ctx context.Context, accountID uint64) (model.AdvocateCard, error) {
	c, err := scanCard(r.db.QueryRowContext(ctx, cardSelect+` WHERE a.id = ? AND a.role = ?`, accountID, model.RoleAdvocate))
	if errors.Is(err, sql.ErrNoRows) {
		return model.AdvocateCard{}, ErrNotFound
	}
	return c, err
}
