package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/advocate-booking/internal/model"
)

// DocumentRepo stores document metadata.  The file bytes live in the
// blob store; only the object key is kept here.
type DocumentRepo struct{ db *sql.DB }

func NewDocumentRepo(db *sql.DB) *DocumentRepo { return &DocumentRepo{db: db} }

const documentColumns = "id, booking_id, uploaded_by, title, description, object_key, file_name, size_bytes, uploaded_at"

func scanDocument(s rowScanner) (model.Document, error) {
	var d model.Document
	err := s.Scan(&d.ID, &d.BookingID, &d.UploadedBy, &d.Title, &d.Description, &d.ObjectKey, &d.FileName, &d.SizeBytes, &d.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Document{}, ErrNotFound
	}
	return d, err
}

// Create inserts a document row and populates its ID and upload time.
func (r *DocumentRepo) Create(ctx context.Context, d *model.Document) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (booking_id, uploaded_by, title, description, object_key, file_name, size_bytes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.BookingID, d.UploadedBy, d.Title, d.Description, d.ObjectKey, d.FileName, d.SizeBytes)
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
	*d = saved
	return nil
}

// GetByID returns a document or ErrNotFound.
func (r *DocumentRepo) GetByID(ctx context.Context, id uint64) (model.Document, error) {
	return scanDocument(r.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id))
}

// ListByBooking returns the booking's documents in upload order.
func (r *DocumentRepo) ListByBooking(ctx context.Context, bookingID uint64) ([]model.Document, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE booking_id = ? ORDER BY uploaded_at, id", bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
