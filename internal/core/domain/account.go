package domain

import "time"

// Account holds a member's balance and payout destination.
// Accounts are created implicitly on first reference and never deleted;
// AccountID is the opaque numeric identifier assigned by the chat platform.
type Account struct {
	AccountID         int64     `json:"account_id"`
	Balance           int64     `json:"balance"` // In centavos
	PayoutDestination *string   `json:"payout_destination,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// HasPayoutDestination reports whether a PIX key is configured.
func (a *Account) HasPayoutDestination() bool {
	return a.PayoutDestination != nil && *a.PayoutDestination != ""
}
