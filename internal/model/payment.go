package model

import (
    "time"

    "github.com/shopspring/decimal"
)

type PaymentStatus string

const (
    PaymentPending PaymentStatus = "pending"
    PaymentPaid    PaymentStatus = "paid"
    PaymentFailed  PaymentStatus = "failed"
)

// AdvocatePayment records the registration fee order of an advocate and
// the provider's confirmation once the callback arrives.
type AdvocatePayment struct {
    ID        uint64
    AccountID uint64
    OrderID   string
    PaymentID string
    Signature string
    Amount    decimal.Decimal
    Status    PaymentStatus
    CreatedAt time.Time
    UpdatedAt time.Time
}
