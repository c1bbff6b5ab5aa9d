package dto

import (
	"time"

	"pix-ledger/internal/core/domain"
)

// LoginRequest is the request body for operator login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// CreditRequest is the request body for a manual credit.
type CreditRequest struct {
	AccountID   int64  `json:"account_id" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description" binding:"required,max=200"`
}

// DebitRequest is the request body for a manual debit.
type DebitRequest struct {
	AccountID   int64  `json:"account_id" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description" binding:"required,max=200"`
}

// TransferRequest is the request body for a member-to-member transfer.
type TransferRequest struct {
	FromAccountID int64  `json:"from_account_id" binding:"required"`
	ToAccountID   int64  `json:"to_account_id" binding:"required"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	Description   string `json:"description" binding:"max=200"`
}

// SetPayoutDestinationRequest registers a member's PIX key.
type SetPayoutDestinationRequest struct {
	Destination string `json:"destination" binding:"required,pix_key"`
}

// BalanceResponse is the response for a balance query.
type BalanceResponse struct {
	AccountID int64 `json:"account_id"`
	Balance   int64 `json:"balance"` // centavos
}

// EntryResponse is one ledger entry in history output.
type EntryResponse struct {
	EntryID           string  `json:"entry_id"`
	Kind              string  `json:"kind"`
	Amount            int64   `json:"amount"`
	GrossAmount       *int64  `json:"gross_amount,omitempty"`
	Description       string  `json:"description"`
	CounterpartyID    *int64  `json:"counterparty_id,omitempty"`
	ExternalReference *string `json:"external_reference,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

// HistoryResponse wraps an account's recent entries, newest first.
type HistoryResponse struct {
	AccountID int64           `json:"account_id"`
	Entries   []EntryResponse `json:"entries"`
}

// CreateWithdrawalRequest is the request body for opening a withdrawal.
type CreateWithdrawalRequest struct {
	AccountID int64 `json:"account_id" binding:"required"`
	Amount    int64 `json:"amount" binding:"required,gt=0"`
}

// DecisionRequest carries the acting approver for approve/reject calls.
type DecisionRequest struct {
	ApproverID int64  `json:"approver_id" binding:"required"`
	Reason     string `json:"reason,omitempty" binding:"max=200"`
}

// ForceReverseRequest carries the operator forcing a reversal.
type ForceReverseRequest struct {
	OperatorID int64 `json:"operator_id" binding:"required"`
}

// WithdrawalResponse is the response body for withdrawal operations.
type WithdrawalResponse struct {
	ID                string `json:"id"`
	AccountID         int64  `json:"account_id"`
	Amount            int64  `json:"amount"`
	Fee               int64  `json:"fee"`
	NetAmount         int64  `json:"net_amount"`
	PayoutDestination string `json:"payout_destination"`
	Status            string `json:"status"`
	ApproverID        *int64 `json:"approver_id,omitempty"`
	GatewayPayoutID   *string `json:"gateway_payout_id,omitempty"`
	CreatedAt         string `json:"created_at"`
	ResolvedAt        *string `json:"resolved_at,omitempty"`
}

// CreateRefundRequest is the request body for opening a refund.
type CreateRefundRequest struct {
	FundingAccountID int64  `json:"funding_account_id" binding:"required"`
	BeneficiaryRef   int64  `json:"beneficiary_ref" binding:"required"`
	Amount           int64  `json:"amount" binding:"required,gt=0"`
	PayoutKey        string `json:"payout_key" binding:"required,pix_key"`
	Reason           string `json:"reason" binding:"required,max=200"`
}

// RefundResponse is the response body for refund operations.
type RefundResponse struct {
	ID                string  `json:"id"`
	FundingAccountID  int64   `json:"funding_account_id"`
	BeneficiaryRef    int64   `json:"beneficiary_ref"`
	Amount            int64   `json:"amount"`
	Fee               int64   `json:"fee"`
	NetAmount         int64   `json:"net_amount"`
	PayoutDestination string  `json:"payout_destination"`
	Reason            string  `json:"reason"`
	Status            string  `json:"status"`
	ApproverID        *int64  `json:"approver_id,omitempty"`
	GatewayPayoutID   *string `json:"gateway_payout_id,omitempty"`
	CreatedAt         string  `json:"created_at"`
	ResolvedAt        *string `json:"resolved_at,omitempty"`
}

// AddApproverRequest registers an approver account.
type AddApproverRequest struct {
	AccountID int64 `json:"account_id" binding:"required"`
	AddedBy   int64 `json:"added_by" binding:"required"`
}

// ApproverResponse is one approver in list output.
type ApproverResponse struct {
	AccountID int64  `json:"account_id"`
	AddedBy   int64  `json:"added_by"`
	AddedAt   string `json:"added_at"`
}

// PaymentConfirmedEvent is the inbound gateway webhook body.
type PaymentConfirmedEvent struct {
	Event     string `json:"event" binding:"required"`
	Reference string `json:"reference" binding:"required,max=100"`
	AccountID int64  `json:"account_id" binding:"required"`
	Amount    int64  `json:"amount" binding:"required,gt=0"`
}

// FromWithdrawal maps a domain withdrawal request to its response shape.
func FromWithdrawal(req *domain.WithdrawalRequest) WithdrawalResponse {
	return WithdrawalResponse{
		ID:                req.ID.String(),
		AccountID:         req.AccountID,
		Amount:            req.Amount,
		Fee:               req.Fee,
		NetAmount:         req.NetAmount,
		PayoutDestination: req.PayoutDestination,
		Status:            string(req.Status),
		ApproverID:        req.ApproverID,
		GatewayPayoutID:   req.GatewayPayoutID,
		CreatedAt:         req.CreatedAt.Format(time.RFC3339),
		ResolvedAt:        formatTimePtr(req.ResolvedAt),
	}
}

// FromRefund maps a domain refund request to its response shape.
func FromRefund(req *domain.RefundRequest) RefundResponse {
	return RefundResponse{
		ID:                req.ID.String(),
		FundingAccountID:  req.FundingAccountID,
		BeneficiaryRef:    req.BeneficiaryRef,
		Amount:            req.Amount,
		Fee:               req.Fee,
		NetAmount:         req.NetAmount,
		PayoutDestination: req.PayoutDestination,
		Reason:            req.Reason,
		Status:            string(req.Status),
		ApproverID:        req.ApproverID,
		GatewayPayoutID:   req.GatewayPayoutID,
		CreatedAt:         req.CreatedAt.Format(time.RFC3339),
		ResolvedAt:        formatTimePtr(req.ResolvedAt),
	}
}

// FromEntry maps a ledger entry to its response shape.
func FromEntry(entry *domain.LedgerEntry) EntryResponse {
	return EntryResponse{
		EntryID:           entry.EntryID.String(),
		Kind:              string(entry.Kind),
		Amount:            entry.Amount,
		GrossAmount:       entry.GrossAmount,
		Description:       entry.Description,
		CounterpartyID:    entry.CounterpartyID,
		ExternalReference: entry.ExternalReference,
		CreatedAt:         entry.CreatedAt.Format(time.RFC3339),
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
