package service

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/advocate-booking/internal/model"
	"github.com/iliyamo/advocate-booking/internal/payment"
	"github.com/iliyamo/advocate-booking/internal/queue"
	"github.com/iliyamo/advocate-booking/internal/repository"
)

// The interfaces below are satisfied by the MySQL repositories, the local
// blob store, the payment client and the RabbitMQ publisher.

type AccountStore interface {
	CreateClient(ctx context.Context, a *model.Account) error
	CreateAdvocate(ctx context.Context, a *model.Account, p *model.AdvocateProfile) error
	GetByEmail(ctx context.Context, role model.Role, email string) (model.Account, error)
	GetByBarNumber(ctx context.Context, barNumber string) (model.Account, error)
	GetByID(ctx context.Context, id uint64) (model.Account, error)
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, accountID uint64, tokenHash string, exp time.Time) error
	Consume(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForAccount(ctx context.Context, accountID uint64) error
}

type ProfileStore interface {
	GetByAccountID(ctx context.Context, accountID uint64) (model.AdvocateProfile, error)
	Upsert(ctx context.Context, accountID uint64, u model.ProfileUpdate, activate bool) (model.AdvocateProfile, error)
	Search(ctx context.Context, q repository.AdvocateSearchQuery) ([]model.AdvocateCard, int64, error)
	Featured(ctx context.Context, limit int) ([]model.AdvocateCard, error)
	GetCard(ctx context.Context, accountID uint64) (model.AdvocateCard, error)
}

type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (model.Booking, error)
	ListByClient(ctx context.Context, clientID uint64) ([]model.Booking, error)
	ListByAdvocate(ctx context.Context, advocateID uint64) ([]model.Booking, error)
	Mutate(ctx context.Context, id uint64, fn func(b *model.Booking) error) (model.Booking, error)
}

type ReviewStore interface {
	Submit(ctx context.Context, bookingID uint64, build repository.ReviewBuilder) (model.Review, decimal.Decimal, error)
	GetByBooking(ctx context.Context, bookingID uint64) (model.Review, error)
	ListByAdvocate(ctx context.Context, advocateID uint64) ([]model.Review, error)
}

type DocumentStore interface {
	Create(ctx context.Context, d *model.Document) error
	GetByID(ctx context.Context, id uint64) (model.Document, error)
	ListByBooking(ctx context.Context, bookingID uint64) ([]model.Document, error)
}

// BlobStore holds document bytes behind opaque keys.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, maxBytes int64) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type PaymentStore interface {
	Create(ctx context.Context, p *model.AdvocatePayment) error
	Settle(ctx context.Context, accountID uint64, orderID string, fn func(p *model.AdvocatePayment) error) (model.AdvocatePayment, error)
}

// Gateway is the external payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal) (payment.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// EventPublisher delivers domain events after they have been committed.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}
