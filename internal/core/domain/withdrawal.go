package domain

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle state of a withdrawal or refund request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
	RequestStatusExpired  RequestStatus = "expired"
)

// WithdrawalRequest tracks a member cashing out their own balance.
// The gross Amount is debited from the balance at creation time; NetAmount
// is what the gateway actually pays out after the fee.
type WithdrawalRequest struct {
	ID                uuid.UUID     `json:"id"`
	AccountID         int64         `json:"account_id"`
	Amount            int64         `json:"amount"` // Gross, already held
	Fee               int64         `json:"fee"`
	NetAmount         int64         `json:"net_amount"`
	PayoutDestination string        `json:"payout_destination"`
	Status            RequestStatus `json:"status"`
	ApproverID        *int64        `json:"approver_id,omitempty"`
	GatewayPayoutID   *string       `json:"gateway_payout_id,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	ResolvedAt        *time.Time    `json:"resolved_at,omitempty"`
}

// IsPending reports whether the request still awaits a decision.
func (w *WithdrawalRequest) IsPending() bool {
	return w.Status == RequestStatusPending
}
