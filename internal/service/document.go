package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/advocate-booking/internal/access"
	"github.com/iliyamo/advocate-booking/internal/model"
	"github.com/iliyamo/advocate-booking/internal/monitoring"
	"github.com/iliyamo/advocate-booking/internal/storage"
)

// DocumentService attaches files to bookings and serves them back to the
// booking's parties.
type DocumentService struct {
	Bookings  BookingStore
	Documents DocumentStore
	Blobs     BlobStore
	MaxBytes  int64
	Log       *zap.Logger
}

func NewDocumentService(bookings BookingStore, docs DocumentStore, blobs BlobStore, maxBytes int64, log *zap.Logger) *DocumentService {
	return &DocumentService{Bookings: bookings, Documents: docs, Blobs: blobs, MaxBytes: maxBytes, Log: log}
}

// Upload is one incoming file.
type Upload struct {
	Title       string
	Description string
	FileName    string
	Body        io.Reader
}

func (s *DocumentService) booking(ctx context.Context, actor model.Account, bookingID uint64) (model.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return model.Booking{}, notFound(err)
	}
	if !access.CanManageBooking(actor, b) {
		return model.Booking{}, ErrForbidden
	}
	return b, nil
}

// Upload stores the file and records it against the booking.  The stored
// object is removed again when the record cannot be written.
func (s *DocumentService) Upload(ctx context.Context, actor model.Account, bookingID uint64, up Upload) (model.Document, error) {
	b, err := s.booking(ctx, actor, bookingID)
	if err != nil {
		return model.Document{}, err
	}
	title := strings.TrimSpace(up.Title)
	if title == "" || len(title) > maxTitleLen {
		return model.Document{}, invalid("title is required")
	}
	name := filepath.Base(strings.TrimSpace(up.FileName))
	if name == "." || name == "/" || name == "" {
		return model.Document{}, invalid("file is required")
	}

	key := storage.DocumentKey(b.ID, name)
	size, err := s.Blobs.Put(ctx, key, up.Body, s.MaxBytes)
	if errors.Is(err, storage.ErrTooLarge) {
		return model.Document{}, invalid("file exceeds %d bytes", s.MaxBytes)
	}
	if err != nil {
		return model.Document{}, err
	}
	d := model.Document{
		BookingID:   b.ID,
		UploadedBy:  actor.ID,
		Title:       title,
		Description: strings.TrimSpace(up.Description),
		ObjectKey:   key,
		FileName:    name,
		SizeBytes:   size,
	}
	if err := s.Documents.Create(ctx, &d); err != nil {
		if derr := s.Blobs.Delete(context.WithoutCancel(ctx), key); derr != nil {
			s.Log.Warn("orphaned document object", zap.String("key", key), zap.Error(derr))
		}
		return model.Document{}, err
	}
	monitoring.DocumentsUploaded.Inc()
	s.Log.Info("document uploaded", zap.Uint64("booking_id", b.ID), zap.Uint64("document_id", d.ID), zap.Int64("size", size))
	return d, nil
}

// List returns the booking's documents.
func (s *DocumentService) List(ctx context.Context, actor model.Account, bookingID uint64) ([]model.Document, error) {
	b, err := s.booking(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	return s.Documents.ListByBooking(ctx, b.ID)
}

// Open returns a document and a reader over its bytes.  The caller closes
// the reader.
func (s *DocumentService) Open(ctx context.Context, actor model.Account, documentID uint64) (model.Document, io.ReadCloser, error) {
	d, err := s.Documents.GetByID(ctx, documentID)
	if err != nil {
		return model.Document{}, nil, notFound(err)
	}
	if _, err := s.booking(ctx, actor, d.BookingID); err != nil {
		return model.Document{}, nil, err
	}
	rc, err := s.Blobs.Open(ctx, d.ObjectKey)
	if errors.Is(err, storage.ErrNotFound) {
		return model.Document{}, nil, ErrNotFound
	}
	if err != nil {
		return model.Document{}, nil, err
	}
	return d, rc, nil
}
