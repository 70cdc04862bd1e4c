package domain

import "time"

type TransactionStatus string

const (
	StatusSucceeded TransactionStatus = "succeeded"
	StatusPending   TransactionStatus = "pending"
	StatusFailed    TransactionStatus = "failed"
	StatusCanceled  TransactionStatus = "canceled"
	StatusRefunded  TransactionStatus = "refunded"
)

type TransactionType string

const (
	TypeCharge     TransactionType = "charge"
	TypePayment    TransactionType = "payment"
	TypeRefund     TransactionType = "refund"
	TypePayout     TransactionType = "payout"
	TypeAdjustment TransactionType = "adjustment"
	TypeFee        TransactionType = "fee"
	TypeTransfer   TransactionType = "transfer"
	TypeOther      TransactionType = "other"
)

// Transaction is one record from the processor's export. Amounts are signed
// integer minor units (cents): charges positive, refunds and payouts negative
// by convention. OccurredAt is the processor's authoritative timestamp, always
// UTC; it is the only field period boundaries are computed against.
type Transaction struct {
	ExternalID    string            `json:"external_id"`
	AccountID     string            `json:"account_id"`
	Amount        int64             `json:"amount"`
	Fee           int64             `json:"fee"`
	Currency      string            `json:"currency"`
	Status        TransactionStatus `json:"status"`
	Type          TransactionType   `json:"type"`
	OccurredAt    time.Time         `json:"occurred_at"`
	Description   string            `json:"description,omitempty"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	ImportedAt    time.Time         `json:"imported_at"`
}

// IsRevenue reports whether the transaction contributes to gross revenue.
func (t *Transaction) IsRevenue() bool {
	return t.Type == TypeCharge || t.Type == TypePayment
}
