package postgres

import (
	"context"
	"errors"
	"fmt"

	"pix-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RefundRepo implements ports.RefundRepository.
type RefundRepo struct {
	pool Pool
}

// NewRefundRepo creates a new RefundRepo.
func NewRefundRepo(pool Pool) *RefundRepo {
	return &RefundRepo{pool: pool}
}

const refundColumns = `id, funding_account_id, beneficiary_ref, amount, fee, net_amount,
	payout_destination, reason, status, approver_id, gateway_payout_id, created_at, resolved_at`

// Create inserts a refund request within a transaction.
func (r *RefundRepo) Create(ctx context.Context, tx pgx.Tx, req *domain.RefundRequest) error {
	query := `INSERT INTO refund_requests
		(id, funding_account_id, beneficiary_ref, amount, fee, net_amount,
		 payout_destination, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := tx.Exec(ctx, query,
		req.ID, req.FundingAccountID, req.BeneficiaryRef, req.Amount, req.Fee,
		req.NetAmount, req.PayoutDestination, req.Reason, req.Status, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert refund request: %w", err)
	}
	return nil
}

// GetByID fetches a refund request. Returns nil when not found.
func (r *RefundRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.RefundRequest, error) {
	query := `SELECT ` + refundColumns + ` FROM refund_requests WHERE id = $1`

	req := &domain.RefundRequest{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID, &req.FundingAccountID, &req.BeneficiaryRef, &req.Amount, &req.Fee,
		&req.NetAmount, &req.PayoutDestination, &req.Reason, &req.Status,
		&req.ApproverID, &req.GatewayPayoutID, &req.CreatedAt, &req.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get refund request: %w", err)
	}
	return req, nil
}

// Resolve transitions a pending refund to a terminal status, first-writer-wins.
func (r *RefundRepo) Resolve(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.RequestStatus, approverID *int64, payoutID *string) (bool, error) {
	query := `UPDATE refund_requests
		SET status = $1, approver_id = $2, gateway_payout_id = $3, resolved_at = NOW()
		WHERE id = $4 AND status = 'pending'`

	tag, err := tx.Exec(ctx, query, status, approverID, payoutID, id)
	if err != nil {
		return false, fmt.Errorf("resolve refund request: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListPending returns all pending refunds, oldest first.
func (r *RefundRepo) ListPending(ctx context.Context) ([]domain.RefundRequest, error) {
	query := `SELECT ` + refundColumns + ` FROM refund_requests
		WHERE status = 'pending' ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query pending refunds: %w", err)
	}
	defer rows.Close()

	var reqs []domain.RefundRequest
	for rows.Next() {
		var req domain.RefundRequest
		err := rows.Scan(
			&req.ID, &req.FundingAccountID, &req.BeneficiaryRef, &req.Amount, &req.Fee,
			&req.NetAmount, &req.PayoutDestination, &req.Reason, &req.Status,
			&req.ApproverID, &req.GatewayPayoutID, &req.CreatedAt, &req.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan refund request: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate refund requests: %w", err)
	}
	return reqs, nil
}
