// Package payment talks to the payment provider used for the advocate
// registration fee.  The wire format follows Razorpay's orders API.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the provider-side order created for a payment.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // minor units (paise)
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Razorpay is a minimal orders client plus the callback signature check.
type Razorpay struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Currency  string
	HTTP      *http.Client
}

func NewRazorpay(keyID, keySecret, baseURL string) *Razorpay {
	return &Razorpay{
		KeyID:     keyID,
		KeySecret: keySecret,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Currency:  "INR",
		HTTP:      &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateOrder registers an order for amount (major units) and returns it.
func (r *Razorpay) CreateOrder(ctx context.Context, amount decimal.Decimal) (Order, error) {
	body, err := json.Marshal(map[string]any{
		"amount":   amount.Shift(2).Round(0).IntPart(),
		"currency": r.Currency,
		"receipt":  "adv_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20],
	})
	if err != nil {
		return Order{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return Order{}, err
	}
	req.SetBasicAuth(r.KeyID, r.KeySecret)
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.HTTP.Do(req)
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return Order{}, fmt.Errorf("create order: provider returned %d", resp.StatusCode)
	}
	var o Order
	if err := json.NewDecoder(resp.Body).Decode(&o); err != nil {
		return Order{}, fmt.Errorf("decode order: %w", err)
	}
	if o.ID == "" {
		return Order{}, fmt.Errorf("create order: empty order id")
	}
	return o, nil
}

// VerifySignature checks the callback signature, which is the hex
// HMAC-SHA256 of "order_id|payment_id" keyed with the API secret.
func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	want := Sign(r.KeySecret, orderID, paymentID)
	return hmac.Equal([]byte(want), []byte(strings.ToLower(signature)))
}

// Sign computes the signature the provider sends for an order/payment pair.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
