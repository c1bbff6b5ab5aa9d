package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pix-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WithdrawalRepo implements ports.WithdrawalRepository.
type WithdrawalRepo struct {
	pool Pool
}

// NewWithdrawalRepo creates a new WithdrawalRepo.
func NewWithdrawalRepo(pool Pool) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool}
}

const withdrawalColumns = `id, account_id, amount, fee, net_amount, payout_destination,
	status, approver_id, gateway_payout_id, created_at, resolved_at`

// Create inserts a withdrawal request within a transaction, alongside the
// hold debit it belongs to.
func (r *WithdrawalRepo) Create(ctx context.Context, tx pgx.Tx, req *domain.WithdrawalRequest) error {
	query := `INSERT INTO withdrawal_requests
		(id, account_id, amount, fee, net_amount, payout_destination, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		req.ID, req.AccountID, req.Amount, req.Fee, req.NetAmount,
		req.PayoutDestination, req.Status, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert withdrawal request: %w", err)
	}
	return nil
}

// GetByID fetches a withdrawal request. Returns nil when not found.
func (r *WithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1`

	req := &domain.WithdrawalRequest{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID, &req.AccountID, &req.Amount, &req.Fee, &req.NetAmount,
		&req.PayoutDestination, &req.Status, &req.ApproverID,
		&req.GatewayPayoutID, &req.CreatedAt, &req.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get withdrawal request: %w", err)
	}
	return req, nil
}

// Resolve transitions a pending request to a terminal status. The status
// guard in the WHERE clause makes the transition first-writer-wins: a second
// decision sees zero rows affected and gets false back.
func (r *WithdrawalRepo) Resolve(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.RequestStatus, approverID *int64, payoutID *string) (bool, error) {
	query := `UPDATE withdrawal_requests
		SET status = $1, approver_id = $2, gateway_payout_id = $3, resolved_at = NOW()
		WHERE id = $4 AND status = 'pending'`

	tag, err := tx.Exec(ctx, query, status, approverID, payoutID, id)
	if err != nil {
		return false, fmt.Errorf("resolve withdrawal request: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListPending returns all pending requests, oldest first.
func (r *WithdrawalRepo) ListPending(ctx context.Context) ([]domain.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests
		WHERE status = 'pending' ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query pending withdrawals: %w", err)
	}
	defer rows.Close()

	return scanWithdrawals(rows)
}

// ListPendingOlderThan returns pending requests created before the cutoff,
// for the expiry sweep.
func (r *WithdrawalRepo) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]domain.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests
		WHERE status = 'pending' AND created_at < $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query expired withdrawals: %w", err)
	}
	defer rows.Close()

	return scanWithdrawals(rows)
}

func scanWithdrawals(rows pgx.Rows) ([]domain.WithdrawalRequest, error) {
	var reqs []domain.WithdrawalRequest
	for rows.Next() {
		var req domain.WithdrawalRequest
		err := rows.Scan(
			&req.ID, &req.AccountID, &req.Amount, &req.Fee, &req.NetAmount,
			&req.PayoutDestination, &req.Status, &req.ApproverID,
			&req.GatewayPayoutID, &req.CreatedAt, &req.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan withdrawal request: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate withdrawal requests: %w", err)
	}
	return reqs, nil
}
