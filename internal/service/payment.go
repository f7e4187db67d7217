package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/advocate-booking/internal/model"
	"github.com/iliyamo/advocate-booking/internal/monitoring"
	"github.com/iliyamo/advocate-booking/internal/queue"
	"github.com/iliyamo/advocate-booking/internal/repository"
)

// PaymentService collects the advocate registration fee and activates the
// advocate once the provider confirms it.
type PaymentService struct {
	Payments PaymentStore
	Gateway  Gateway
	Fee      decimal.Decimal
	Events   EventPublisher
	Log      *zap.Logger
}

func NewPaymentService(payments PaymentStore, gw Gateway, fee decimal.Decimal, events EventPublisher, log *zap.Logger) *PaymentService {
	return &PaymentService{Payments: payments, Gateway: gw, Fee: fee, Events: events, Log: log}
}

// CreateRegistrationOrder opens a provider order for the fee and records it
// as pending.
func (s *PaymentService) CreateRegistrationOrder(ctx context.Context, actor model.Account) (model.AdvocatePayment, error) {
	if !actor.IsAdvocate() {
		return model.AdvocatePayment{}, ErrForbidden
	}
	if s.Gateway == nil || !s.Fee.IsPositive() {
		return model.AdvocatePayment{}, invalid("registration payments are disabled")
	}
	if actor.IsActiveAdvocate() {
		return model.AdvocatePayment{}, invalid("advocate is already active")
	}
	o, err := s.Gateway.CreateOrder(ctx, s.Fee)
	if err != nil {
		return model.AdvocatePayment{}, err
	}
	p := model.AdvocatePayment{AccountID: actor.ID, OrderID: o.ID, Amount: s.Fee, Status: model.PaymentPending}
	if err := s.Payments.Create(ctx, &p); err != nil {
		return model.AdvocatePayment{}, err
	}
	s.Log.Info("registration order created", zap.Uint64("account_id", actor.ID), zap.String("order_id", o.ID))
	return p, nil
}

// ConfirmRegistrationPayment verifies the provider callback and, when it is
// genuine, marks the order paid and activates the advocate together.
// Confirming an already paid order returns it unchanged.  A bad signature
// marks the order failed and returns ErrPaymentInvalid.
func (s *PaymentService) ConfirmRegistrationPayment(ctx context.Context, actor model.Account, orderID, paymentID, signature string) (model.AdvocatePayment, error) {
	if !actor.IsAdvocate() {
		return model.AdvocatePayment{}, ErrForbidden
	}
	if s.Gateway == nil {
		return model.AdvocatePayment{}, invalid("registration payments are disabled")
	}
	orderID, paymentID, signature = strings.TrimSpace(orderID), strings.TrimSpace(paymentID), strings.TrimSpace(signature)
	if orderID == "" || paymentID == "" || signature == "" {
		return model.AdvocatePayment{}, invalid("order id, payment id and signature are required")
	}
	activated := false
	p, err := s.Payments.Settle(ctx, actor.ID, orderID, func(p *model.AdvocatePayment) error {
		if p.Status == model.PaymentPaid {
			return nil
		}
		if !s.Gateway.VerifySignature(p.OrderID, paymentID, signature) {
			p.Status = model.PaymentFailed
			return ErrPaymentInvalid
		}
		p.PaymentID, p.Signature, p.Status = paymentID, signature, model.PaymentPaid
		activated = true
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return model.AdvocatePayment{}, ErrNotFound
	}
	if err != nil {
		if errors.Is(err, ErrPaymentInvalid) {
			s.Log.Warn("registration payment rejected", zap.Uint64("account_id", actor.ID), zap.String("order_id", orderID))
		}
		return model.AdvocatePayment{}, err
	}
	if activated {
		monitoring.AdvocatesActivated.Inc()
		s.Log.Info("advocate activated", zap.Uint64("account_id", actor.ID), zap.String("order_id", orderID))
		ev := queue.NewEvent(queue.AdvocateActivated)
		ev.AdvocateID = actor.ID
		publish(ctx, s.Log, s.Events, ev)
	}
	return p, nil
}
