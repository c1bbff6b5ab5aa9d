package postgres

import (
	"context"
	"fmt"

	"pix-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// EntryRepo implements ports.EntryRepository. Ledger entries are append-only;
// there is deliberately no update or delete.
type EntryRepo struct {
	pool Pool
}

// NewEntryRepo creates a new EntryRepo.
func NewEntryRepo(pool Pool) *EntryRepo {
	return &EntryRepo{pool: pool}
}

// Create appends a ledger entry within a transaction.
func (r *EntryRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries
		(entry_id, account_id, kind, amount, gross_amount, description,
		 counterparty_id, counterparty_name, external_reference, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := tx.Exec(ctx, query,
		e.EntryID, e.AccountID, e.Kind, e.Amount, e.GrossAmount, e.Description,
		e.CounterpartyID, e.CounterpartyName, e.ExternalReference, e.Status, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// History returns the most recent entries for an account, newest first.
func (r *EntryRepo) History(ctx context.Context, accountID int64, limit int) ([]domain.LedgerEntry, error) {
	query := `SELECT entry_id, account_id, kind, amount, gross_amount, description,
		counterparty_id, counterparty_name, external_reference, status, created_at
		FROM ledger_entries WHERE account_id = $1
		ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("query entry history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ExternalReferenceExists reports whether a credit for the gateway reference
// has already been recorded. Settlement entries reuse the column for payout
// ids, so only credit rows count.
func (r *EntryRepo) ExternalReferenceExists(ctx context.Context, reference string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM ledger_entries WHERE external_reference = $1 AND kind = 'credit')`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, reference).Scan(&exists); err != nil {
		return false, fmt.Errorf("check external reference: %w", err)
	}
	return exists, nil
}

func scanEntries(rows pgx.Rows) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		err := rows.Scan(
			&e.EntryID, &e.AccountID, &e.Kind, &e.Amount, &e.GrossAmount, &e.Description,
			&e.CounterpartyID, &e.CounterpartyName, &e.ExternalReference, &e.Status, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}
