package ports

import (
	"context"
	"time"

	"pix-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Ledger Store ---

// EntryOpts carries optional fields for a ledger entry written by a
// balance mutation.
type EntryOpts struct {
	Kind              domain.EntryKind // Defaults to credit/debit per operation
	GrossAmount       *int64
	CounterpartyID    *int64
	CounterpartyName  *string
	ExternalReference *string
}

// LedgerService is the only component allowed to change account balances.
// Every mutating call runs under the process-wide critical section and a
// storage-level write-locking transaction.
type LedgerService interface {
	Credit(ctx context.Context, accountID int64, amount int64, description string, opts EntryOpts) (*domain.LedgerEntry, error)
	Debit(ctx context.Context, accountID int64, amount int64, description string, opts EntryOpts) (*domain.LedgerEntry, error)
	Transfer(ctx context.Context, fromID, toID int64, amount int64, description string) error
	Balance(ctx context.Context, accountID int64) (int64, error)
	History(ctx context.Context, accountID int64, limit int) ([]domain.LedgerEntry, error)
	SetPayoutDestination(ctx context.Context, accountID int64, destination string) error
	Account(ctx context.Context, accountID int64) (*domain.Account, error)

	// Mutate takes the process-wide ledger lock, begins a write transaction,
	// runs fn and commits. Workflow services use it to keep a balance change
	// and their own request-row writes in one atomic unit of work.
	Mutate(ctx context.Context, fn func(tx pgx.Tx) error) error
	// CreditTx and DebitTx are the in-transaction primitives behind
	// Credit/Debit; they MUST only run inside Mutate.
	CreditTx(ctx context.Context, tx pgx.Tx, accountID int64, amount int64, description string, opts EntryOpts) (*domain.LedgerEntry, error)
	DebitTx(ctx context.Context, tx pgx.Tx, accountID int64, amount int64, description string, opts EntryOpts) (*domain.LedgerEntry, error)
	// AppendTx writes a zero-balance-effect entry (settlement records).
	AppendTx(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error
}

// --- Workflow services ---

// WithdrawalService runs the debit-then-hold-then-settle state machine for a
// member cashing out their own balance.
type WithdrawalService interface {
	Create(ctx context.Context, accountID int64, amount int64) (*domain.WithdrawalRequest, error)
	Approve(ctx context.Context, id uuid.UUID, approverID int64) (*domain.WithdrawalRequest, error)
	Reject(ctx context.Context, id uuid.UUID, approverID int64, reason string) (*domain.WithdrawalRequest, error)
	// ForceReverse is the operator escape hatch for a stuck request: same
	// restorative credit as expiry.
	ForceReverse(ctx context.Context, id uuid.UUID, operatorID int64) (*domain.WithdrawalRequest, error)
	ExpireOlderThan(ctx context.Context, lifetime time.Duration) (int, error)
	ListPending(ctx context.Context) ([]domain.WithdrawalRequest, error)
}

// RefundService mirrors WithdrawalService with a funding account paying and
// an external beneficiary receiving the payout.
type RefundService interface {
	Create(ctx context.Context, fundingAccountID, beneficiaryRef int64, amount int64, payoutKey, reason string) (*domain.RefundRequest, error)
	Approve(ctx context.Context, id uuid.UUID, approverID int64) (*domain.RefundRequest, error)
	Reject(ctx context.Context, id uuid.UUID, approverID int64, reason string) (*domain.RefundRequest, error)
	ForceReverse(ctx context.Context, id uuid.UUID, operatorID int64) (*domain.RefundRequest, error)
	ListPending(ctx context.Context) ([]domain.RefundRequest, error)
}

// ApproverService manages the registry of accounts allowed to decide
// withdrawal and refund requests.
type ApproverService interface {
	Add(ctx context.Context, accountID, addedBy int64) (*domain.Approver, error)
	Remove(ctx context.Context, accountID int64) error
	List(ctx context.Context) ([]domain.Approver, error)
}

// PaymentEventService consumes gateway "payment confirmed" events and credits
// completed sales, deduplicating by gateway reference.
type PaymentEventService interface {
	ConfirmPayment(ctx context.Context, accountID int64, amount int64, gatewayReference string) (*domain.LedgerEntry, error)
}

// --- External collaborators ---

// PayoutGateway issues real-money payouts. Any error is a definitive failure;
// the caller must restore the held balance.
type PayoutGateway interface {
	CreatePayout(ctx context.Context, destination string, amount int64, memo string) (*domain.PayoutResult, error)
}

// Notifier informs the outside world of workflow events. Implementations must
// not block the caller on delivery.
type Notifier interface {
	WithdrawalRequested(ctx context.Context, req *domain.WithdrawalRequest)
	WithdrawalResolved(ctx context.Context, req *domain.WithdrawalRequest, reason string)
	RefundRequested(ctx context.Context, req *domain.RefundRequest)
	RefundResolved(ctx context.Context, req *domain.RefundRequest, reason string)
	PaymentConfirmed(ctx context.Context, entry *domain.LedgerEntry)
}

// ProcessingGuard prevents two concurrent approval decisions from both
// executing the settlement path for the same request.
type ProcessingGuard interface {
	// Acquire marks the key as in-processing. Returns false if another
	// decision already holds the marker.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// CooldownStore throttles approver actions.
type CooldownStore interface {
	// Allow reports whether the approver may act now, recording the action
	// if allowed.
	Allow(ctx context.Context, approverID int64, window time.Duration) (bool, error)
}

// --- Ops surface (operator authentication) ---

// TokenService handles JWT token operations for the operator API.
type TokenService interface {
	Generate(operator string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Operator string
}

// HashService verifies operator password hashes (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// AuthService authenticates operators for the ops HTTP surface.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// SignatureService handles HMAC-SHA256 signing for webhook payloads.
type SignatureService interface {
	Sign(secret string, payload string) string
	Verify(secret string, payload string, signature string) bool
}
