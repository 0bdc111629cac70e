package models

import "time"

// Payment records a settled order. Rows are append-only and there is at most
// one per order.
type Payment struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	OrderID       string    `json:"order_id"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	CreatedAt     time.Time `json:"created_at"`
}

// PaymentRecord is what the client reports after confirming an intent.
type PaymentRecord struct {
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
}

// PaymentIntent is the processor-side staged transaction.
type PaymentIntent struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}
