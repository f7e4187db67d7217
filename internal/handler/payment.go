package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PaymentHandler drives the advocate registration fee checkout.
type PaymentHandler struct {
	IDs      Identity
	Payments Payments
	KeyID    string // public key id the checkout widget needs
	Currency string
	Log      *zap.Logger
}

func NewPaymentHandler(ids Identity, payments Payments, keyID string, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{IDs: ids, Payments: payments, KeyID: keyID, Currency: "INR", Log: log}
}

type verifyReq struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// CreateOrder: POST /v1/advocate/payments/order
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*requestTimeout)
	defer cancel()
	me, err := actor(ctx, c, h.IDs)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	p, err := h.Payments.CreateRegistrationOrder(ctx, me)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"order_id": p.OrderID,
		"amount":   p.Amount.StringFixed(2),
		"currency": h.Currency,
		"key_id":   h.KeyID,
		"status":   p.Status,
	})
}

// Verify: POST /v1/advocate/payments/verify
func (h *PaymentHandler) Verify(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	me, err := actor(ctx, c, h.IDs)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	p, err := h.Payments.ConfirmRegistrationPayment(ctx, me, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"order_id": p.OrderID, "status": p.Status, "active": true})
}
