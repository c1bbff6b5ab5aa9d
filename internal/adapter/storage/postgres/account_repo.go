package postgres

import (
	"context"
	"errors"
	"fmt"

	"pix-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Get fetches an account without locking. Returns nil when the account has
// never been touched by the ledger.
func (r *AccountRepo) Get(ctx context.Context, accountID int64) (*domain.Account, error) {
	query := `SELECT account_id, balance, payout_destination, created_at, updated_at
		FROM accounts WHERE account_id = $1`

	a := &domain.Account{}
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&a.AccountID, &a.Balance, &a.PayoutDestination, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// GetForUpdate fetches an account with a pessimistic row lock, creating it
// with a zero balance first if it does not exist. MUST be called within a
// transaction.
func (r *AccountRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, accountID int64) (*domain.Account, error) {
	insert := `INSERT INTO accounts (account_id, balance, created_at, updated_at)
		VALUES ($1, 0, NOW(), NOW())
		ON CONFLICT (account_id) DO NOTHING`

	if _, err := tx.Exec(ctx, insert, accountID); err != nil {
		return nil, fmt.Errorf("ensure account: %w", err)
	}

	query := `SELECT account_id, balance, payout_destination, created_at, updated_at
		FROM accounts WHERE account_id = $1 FOR UPDATE`

	a := &domain.Account{}
	err := tx.QueryRow(ctx, query, accountID).Scan(
		&a.AccountID, &a.Balance, &a.PayoutDestination, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get account for update: %w", err)
	}
	return a, nil
}

// UpdateBalance sets the account balance within a transaction.
func (r *AccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, accountID int64, balance int64) error {
	query := `UPDATE accounts SET balance = $1, updated_at = NOW() WHERE account_id = $2`

	tag, err := tx.Exec(ctx, query, balance, accountID)
	if err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %d", accountID)
	}
	return nil
}

// SetPayoutDestination stores the account's PIX payout key, creating the
// account row if needed.
func (r *AccountRepo) SetPayoutDestination(ctx context.Context, accountID int64, destination string) error {
	query := `INSERT INTO accounts (account_id, balance, payout_destination, created_at, updated_at)
		VALUES ($1, 0, $2, NOW(), NOW())
		ON CONFLICT (account_id) DO UPDATE
		SET payout_destination = EXCLUDED.payout_destination, updated_at = NOW()`

	if _, err := r.pool.Exec(ctx, query, accountID, destination); err != nil {
		return fmt.Errorf("set payout destination: %w", err)
	}
	return nil
}
