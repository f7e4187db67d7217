package handler

import (
	"context"
	"io"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/advocate-booking/internal/model"
	"github.com/iliyamo/advocate-booking/internal/service"
)

// The handler layer depends on these views of the services so each HTTP
// surface can be exercised against stubs.

type Identity interface {
	RegisterClient(ctx context.Context, in service.ClientRegistration) (model.Account, error)
	RegisterAdvocate(ctx context.Context, in service.AdvocateRegistration) (model.Account, error)
	Authenticate(ctx context.Context, role model.Role, loginKey, password string) (model.Account, error)
	IssueTokens(ctx context.Context, a model.Account) (service.TokenPair, error)
	Refresh(ctx context.Context, raw string) (service.TokenPair, error)
	Logout(ctx context.Context, accountID uint64, raw string) error
	Account(ctx context.Context, id uint64) (model.Account, error)
}

type Bookings interface {
	Create(ctx context.Context, client model.Account, advocateID uint64, in service.BookingRequest) (model.Booking, error)
	Transition(ctx context.Context, actor model.Account, bookingID uint64, target, meetingLink string) (model.Booking, error)
	ListForClient(ctx context.Context, client model.Account) ([]model.Booking, error)
	ListForAdvocate(ctx context.Context, advocate model.Account) (service.AdvocateDashboard, error)
	Detail(ctx context.Context, actor model.Account, bookingID uint64) (service.BookingDetail, error)
}

type Reviews interface {
	Submit(ctx context.Context, actor model.Account, bookingID uint64, rating int, comment string) (model.Review, decimal.Decimal, error)
}

type Profiles interface {
	UpdateProfile(ctx context.Context, actor model.Account, u model.ProfileUpdate) (model.AdvocateProfile, error)
	Search(ctx context.Context, text string, page, pageSize int) (service.SearchResult, error)
	Featured(ctx context.Context) ([]model.AdvocateCard, error)
	Detail(ctx context.Context, advocateID uint64) (service.AdvocateDetail, error)
}

type Documents interface {
	Upload(ctx context.Context, actor model.Account, bookingID uint64, up service.Upload) (model.Document, error)
	List(ctx context.Context, actor model.Account, bookingID uint64) ([]model.Document, error)
	Open(ctx context.Context, actor model.Account, documentID uint64) (model.Document, io.ReadCloser, error)
}

type Payments interface {
	CreateRegistrationOrder(ctx context.Context, actor model.Account) (model.AdvocatePayment, error)
	ConfirmRegistrationPayment(ctx context.Context, actor model.Account, orderID, paymentID, signature string) (model.AdvocatePayment, error)
}
