package postgres

import (
	"context"
	"fmt"

	"pix-ledger/internal/core/domain"
)

// ApproverRepo implements ports.ApproverRepository.
type ApproverRepo struct {
	pool Pool
}

// NewApproverRepo creates a new ApproverRepo.
func NewApproverRepo(pool Pool) *ApproverRepo {
	return &ApproverRepo{pool: pool}
}

// Add registers an account as an approver. Adding twice is a no-op.
func (r *ApproverRepo) Add(ctx context.Context, a *domain.Approver) error {
	query := `INSERT INTO approvers (account_id, added_by, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, a.AccountID, a.AddedBy, a.AddedAt); err != nil {
		return fmt.Errorf("insert approver: %w", err)
	}
	return nil
}

// Remove deregisters an approver. Returns false when the account was not an
// approver.
func (r *ApproverRepo) Remove(ctx context.Context, accountID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM approvers WHERE account_id = $1`, accountID)
	if err != nil {
		return false, fmt.Errorf("delete approver: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// IsApprover reports whether the account may decide requests.
func (r *ApproverRepo) IsApprover(ctx context.Context, accountID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM approvers WHERE account_id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, accountID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check approver: %w", err)
	}
	return exists, nil
}

// List returns all registered approvers.
func (r *ApproverRepo) List(ctx context.Context) ([]domain.Approver, error) {
	rows, err := r.pool.Query(ctx, `SELECT account_id, added_by, added_at FROM approvers ORDER BY added_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query approvers: %w", err)
	}
	defer rows.Close()

	var approvers []domain.Approver
	for rows.Next() {
		var a domain.Approver
		if err := rows.Scan(&a.AccountID, &a.AddedBy, &a.AddedAt); err != nil {
			return nil, fmt.Errorf("scan approver: %w", err)
		}
		approvers = append(approvers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate approvers: %w", err)
	}
	return approvers, nil
}
