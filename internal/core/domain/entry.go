package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntryKind classifies the balance effect of a ledger entry.
type EntryKind string

const (
	EntryKindCredit            EntryKind = "credit"
	EntryKindDebit             EntryKind = "debit"
	EntryKindTransferOut       EntryKind = "transfer_out"
	EntryKindTransferIn        EntryKind = "transfer_in"
	EntryKindWithdrawalHold    EntryKind = "withdrawal_hold"
	EntryKindWithdrawalSettled EntryKind = "withdrawal_settled"
	EntryKindRefundHold        EntryKind = "refund_hold"
	EntryKindRefundSettled     EntryKind = "refund_settled"
	EntryKindManualAdjustment  EntryKind = "manual_adjustment"
)

// EntryStatus is the display status of an entry in account history.
type EntryStatus string

const (
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusPending   EntryStatus = "pending"
)

// LedgerEntry is an immutable append-only record of a balance-affecting event.
// Amount is always positive except for manual adjustments, which carry their sign.
type LedgerEntry struct {
	EntryID           uuid.UUID   `json:"entry_id"`
	AccountID         int64       `json:"account_id"`
	Kind              EntryKind   `json:"kind"`
	Amount            int64       `json:"amount"`
	GrossAmount       *int64      `json:"gross_amount,omitempty"` // Pre-fee amount for fee-bearing operations
	Description       string      `json:"description"`
	CounterpartyID    *int64      `json:"counterparty_id,omitempty"`
	CounterpartyName  *string     `json:"counterparty_name,omitempty"`
	ExternalReference *string     `json:"external_reference,omitempty"` // Gateway transaction id
	Status            EntryStatus `json:"status"`
	CreatedAt         time.Time   `json:"created_at"`
}

// SignedAmount returns the entry's effect on the account balance.
// Settlement entries confirm an external payout of funds already held,
// so they contribute zero.
func (e *LedgerEntry) SignedAmount() int64 {
	switch e.Kind {
	case EntryKindCredit, EntryKindTransferIn:
		return e.Amount
	case EntryKindDebit, EntryKindTransferOut, EntryKindWithdrawalHold, EntryKindRefundHold:
		return -e.Amount
	case EntryKindWithdrawalSettled, EntryKindRefundSettled:
		return 0
	case EntryKindManualAdjustment:
		return e.Amount
	}
	return 0
}
