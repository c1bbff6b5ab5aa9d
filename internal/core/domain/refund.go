package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefundRequest tracks a refund funded by one account and paid out to an
// external beneficiary. The beneficiary has no ledger account; BeneficiaryRef
// is their chat-platform identifier and the payout goes straight to the
// supplied PIX key.
type RefundRequest struct {
	ID                uuid.UUID     `json:"id"`
	FundingAccountID  int64         `json:"funding_account_id"`
	BeneficiaryRef    int64         `json:"beneficiary_ref"`
	Amount            int64         `json:"amount"` // Gross, debited from the funding account
	Fee               int64         `json:"fee"`
	NetAmount         int64         `json:"net_amount"`
	PayoutDestination string        `json:"payout_destination"`
	Reason            string        `json:"reason"`
	Status            RequestStatus `json:"status"`
	ApproverID        *int64        `json:"approver_id,omitempty"`
	GatewayPayoutID   *string       `json:"gateway_payout_id,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	ResolvedAt        *time.Time    `json:"resolved_at,omitempty"`
}

// IsPending reports whether the request still awaits a decision.
func (r *RefundRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}
