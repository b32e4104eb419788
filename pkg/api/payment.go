package api

import (
	"context"
	"fmt"
	"net/http"
	"sort"
)

// Package is a purchasable credit bundle
type Package struct {
	Key         string  `json:"-"`
	Name        string  `json:"name"`
	Credits     int     `json:"credits"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	Badge       string  `json:"badge,omitempty"`
}

// Order is a created payment-gateway order awaiting checkout
type Order struct {
	OrderID  string `json:"order_id"`
	Amount   int    `json:"amount"` // minor units
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
	Package  string `json:"package"`
	Credits  int    `json:"credits"`
}

// PaymentProof is what the checkout returns and the backend verifies
type PaymentProof struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// PaymentResult reports credits granted by a verified payment
type PaymentResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	CreditsAdded int    `json:"credits_added"`
	TotalCredits int    `json:"total_credits"`
}

// Credits is the user's balance
type Credits struct {
	IsPremium      bool      `json:"is_premium"`
	MessageCredits int       `json:"message_credits"`
	TotalPurchased int       `json:"total_purchased"`
	TotalSpent     float64   `json:"total_spent"`
	LastPurchase   Timestamp `json:"last_purchase"`
}

// Purchase is one paid order
type Purchase struct {
	ID        FlexID    `json:"id"`
	Package   string    `json:"package"`
	Credits   int       `json:"credits"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Date      Timestamp `json:"date"`
	PaymentID string    `json:"payment_id"`
}

// Packages lists credit bundles ordered by price
func (c *Client) Packages(ctx context.Context) ([]Package, error) {
	var out struct {
		Packages map[string]Package `json:"packages"`
		Currency string             `json:"currency"`
	}
	if err := c.call(ctx, http.MethodGet, "/payment/packages", nil, nil, &out, authNone); err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	pkgs := make([]Package, 0, len(out.Packages))
	for key, p := range out.Packages {
		p.Key = key
		if p.Currency == "" {
			p.Currency = out.Currency
		}
		pkgs = append(pkgs, p)
	}
	sort.Slice(pkgs, func(i, j int) bool {
		if pkgs[i].Price == pkgs[j].Price {
			return pkgs[i].Key < pkgs[j].Key
		}
		return pkgs[i].Price < pkgs[j].Price
	})
	return pkgs, nil
}

// CreateOrder opens a gateway order for the named package
func (c *Client) CreateOrder(ctx context.Context, packageKey string) (*Order, error) {
	var out Order
	body := map[string]string{"package": packageKey}
	if err := c.call(ctx, http.MethodPost, "/payment/create-order", nil, body, &out, authRequired); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return &out, nil
}

// VerifyPayment submits the checkout signature and returns granted credits
func (c *Client) VerifyPayment(ctx context.Context, proof PaymentProof) (*PaymentResult, error) {
	var out PaymentResult
	if err := c.call(ctx, http.MethodPost, "/payment/verify", nil, proof, &out, authRequired); err != nil {
		return nil, fmt.Errorf("payment verification failed: %w", err)
	}
	return &out, nil
}

// Credits returns the user's balance
func (c *Client) Credits(ctx context.Context) (*Credits, error) {
	var out Credits
	if err := c.call(ctx, http.MethodGet, "/user/credits", nil, nil, &out, authRequired); err != nil {
		return nil, fmt.Errorf("failed to load credits: %w", err)
	}
	return &out, nil
}

// PurchaseHistory returns paid purchases, newest first
func (c *Client) PurchaseHistory(ctx context.Context) ([]Purchase, error) {
	var out struct {
		Purchases []Purchase `json:"purchases"`
	}
	if err := c.call(ctx, http.MethodGet, "/user/purchase-history", nil, nil, &out, authRequired); err != nil {
		return nil, fmt.Errorf("failed to load purchase history: %w", err)
	}
	return out.Purchases, nil
}
