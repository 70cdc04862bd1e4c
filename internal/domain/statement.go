package domain

import "time"

// MonthlyStatement is the persisted close for one (account, year, month).
// All money fields are signed integer minor units.
//
// ClosingBalance = OpeningBalance + ActivityBalance - PayoutsAbsolute,
// and becomes the next month's OpeningBalance. CalculatedBalance always holds
// the value derived from transactions; ClosingBalance can diverge from it only
// on the operator reconciliation path, in which case BalanceDiscrepancy
// records the signed difference.
type MonthlyStatement struct {
	AccountID string `json:"account_id"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Currency  string `json:"currency"`

	OpeningBalance int64 `json:"opening_balance"`
	ClosingBalance int64 `json:"closing_balance"`

	// GrossRevenue is activity volume: charge amounts plus the absolute
	// value of refund amounts.
	GrossRevenue    int64 `json:"gross_revenue"`
	Refunds         int64 `json:"refunds"`
	NetRevenue      int64 `json:"net_revenue"`
	ProcessingFees  int64 `json:"processing_fees"`
	ActivityBalance int64 `json:"activity_balance"`
	OtherActivity   int64 `json:"other_activity"`

	Payouts         int64 `json:"payouts"`
	PayoutsAbsolute int64 `json:"payouts_absolute"`

	CalculatedBalance int64 `json:"calculated_balance"`

	TransactionCount int `json:"transaction_count"`
	PaymentCount     int `json:"payment_count"`
	PayoutCount      int `json:"payout_count"`
	RefundCount      int `json:"refund_count"`

	IsReconciled        bool   `json:"is_reconciled"`
	BalanceDiscrepancy  int64  `json:"balance_discrepancy"`
	ReconciliationNotes string `json:"reconciliation_notes,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}
