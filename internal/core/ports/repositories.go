package ports

import (
	"context"
	"time"

	"pix-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepository defines persistence operations for accounts.
// Methods accepting pgx.Tx run inside ledger transaction blocks with
// row-level locking; only the ledger service may call UpdateBalance.
type AccountRepository interface {
	Get(ctx context.Context, accountID int64) (*domain.Account, error)
	// GetForUpdate creates the account if it does not exist, then fetches it
	// with a pessimistic row lock. MUST be called within a transaction.
	GetForUpdate(ctx context.Context, tx pgx.Tx, accountID int64) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, accountID int64, balance int64) error
	SetPayoutDestination(ctx context.Context, accountID int64, destination string) error
}

// EntryRepository defines persistence for the append-only ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error
	History(ctx context.Context, accountID int64, limit int) ([]domain.LedgerEntry, error)
	// ExternalReferenceExists reports whether a credit for the gateway
	// reference has already been recorded (inbound webhook dedupe).
	ExternalReferenceExists(ctx context.Context, reference string) (bool, error)
}

// WithdrawalRepository defines persistence for withdrawal requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, tx pgx.Tx, req *domain.WithdrawalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error)
	// Resolve transitions a pending request to a terminal status. Returns
	// false without error when the request was not pending (lost race).
	Resolve(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.RequestStatus, approverID *int64, payoutID *string) (bool, error)
	ListPending(ctx context.Context) ([]domain.WithdrawalRequest, error)
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]domain.WithdrawalRequest, error)
}

// RefundRepository defines persistence for refund requests.
type RefundRepository interface {
	Create(ctx context.Context, tx pgx.Tx, req *domain.RefundRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RefundRequest, error)
	Resolve(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.RequestStatus, approverID *int64, payoutID *string) (bool, error)
	ListPending(ctx context.Context) ([]domain.RefundRequest, error)
}

// ApproverRepository defines persistence for the approver registry.
type ApproverRepository interface {
	Add(ctx context.Context, approver *domain.Approver) error
	Remove(ctx context.Context, accountID int64) (bool, error)
	IsApprover(ctx context.Context, accountID int64) (bool, error)
	List(ctx context.Context) ([]domain.Approver, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
