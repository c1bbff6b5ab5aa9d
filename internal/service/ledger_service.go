package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pix-ledger/internal/core/domain"
	"pix-ledger/internal/core/ports"
	"pix-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService. It is the single owner of
// account balances: every mutation runs under the process-wide mutex and a
// write transaction that locks the touched account rows, so balance reads and
// writes can never interleave across concurrent requests.
type LedgerServiceImpl struct {
	mu          sync.Mutex
	accountRepo ports.AccountRepository
	entryRepo   ports.EntryRepository
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	accountRepo ports.AccountRepository,
	entryRepo ports.EntryRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		transactor:  transactor,
		log:         log,
	}
}

// Mutate takes the ledger lock, begins a write transaction, runs fn and
// commits. Workflow services pass closures combining balance primitives with
// their own request-row writes; everything inside fn is one atomic unit.
func (s *LedgerServiceImpl) Mutate(ctx context.Context, fn func(tx pgx.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrStorageFailure(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := fn(dbTx); err != nil {
		return err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.ErrStorageFailure(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// Credit adds funds to an account, creating it on first touch.
func (s *LedgerServiceImpl) Credit(ctx context.Context, accountID int64, amount int64, description string, opts ports.EntryOpts) (*domain.LedgerEntry, error) {
	var entry *domain.LedgerEntry
	err := s.Mutate(ctx, func(tx pgx.Tx) error {
		var err error
		entry, err = s.CreditTx(ctx, tx, accountID, amount, description, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Debit removes funds from an account, refusing to go below zero.
func (s *LedgerServiceImpl) Debit(ctx context.Context, accountID int64, amount int64, description string, opts ports.EntryOpts) (*domain.LedgerEntry, error) {
	var entry *domain.LedgerEntry
	err := s.Mutate(ctx, func(tx pgx.Tx) error {
		var err error
		entry, err = s.DebitTx(ctx, tx, accountID, amount, description, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Transfer atomically moves funds between two accounts, writing a paired
// transfer_out/transfer_in entry on each side.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, fromID, toID int64, amount int64, description string) error {
	if fromID == toID {
		return apperror.Validation("cannot transfer to the same account")
	}

	return s.Mutate(ctx, func(tx pgx.Tx) error {
		_, err := s.DebitTx(ctx, tx, fromID, amount, description, ports.EntryOpts{
			Kind:           domain.EntryKindTransferOut,
			CounterpartyID: &toID,
		})
		if err != nil {
			return err
		}
		_, err = s.CreditTx(ctx, tx, toID, amount, description, ports.EntryOpts{
			Kind:           domain.EntryKindTransferIn,
			CounterpartyID: &fromID,
		})
		return err
	})
}

// CreditTx is the in-transaction credit primitive. MUST only run inside Mutate.
func (s *LedgerServiceImpl) CreditTx(ctx context.Context, tx pgx.Tx, accountID int64, amount int64, description string, opts ports.EntryOpts) (*domain.LedgerEntry, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	account, err := s.accountRepo.GetForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("lock account: %w", err))
	}

	if err := s.accountRepo.UpdateBalance(ctx, tx, accountID, account.Balance+amount); err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("update balance: %w", err))
	}

	kind := opts.Kind
	if kind == "" {
		kind = domain.EntryKindCredit
	}
	entry := buildEntry(accountID, kind, amount, description, opts)

	if err := s.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("create entry: %w", err))
	}

	s.log.Info().
		Int64("account_id", accountID).
		Int64("amount", amount).
		Str("kind", string(kind)).
		Int64("new_balance", account.Balance+amount).
		Msg("account credited")

	return entry, nil
}

// DebitTx is the in-transaction debit primitive. MUST only run inside Mutate.
func (s *LedgerServiceImpl) DebitTx(ctx context.Context, tx pgx.Tx, accountID int64, amount int64, description string, opts ports.EntryOpts) (*domain.LedgerEntry, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	account, err := s.accountRepo.GetForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("lock account: %w", err))
	}

	if account.Balance < amount {
		return nil, apperror.ErrInsufficientBalance()
	}

	if err := s.accountRepo.UpdateBalance(ctx, tx, accountID, account.Balance-amount); err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("update balance: %w", err))
	}

	kind := opts.Kind
	if kind == "" {
		kind = domain.EntryKindDebit
	}
	entry := buildEntry(accountID, kind, amount, description, opts)

	if err := s.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("create entry: %w", err))
	}

	s.log.Info().
		Int64("account_id", accountID).
		Int64("amount", amount).
		Str("kind", string(kind)).
		Int64("new_balance", account.Balance-amount).
		Msg("account debited")

	return entry, nil
}

// AppendTx writes a zero-balance-effect entry (settlement records).
func (s *LedgerServiceImpl) AppendTx(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error {
	if err := s.entryRepo.Create(ctx, tx, entry); err != nil {
		return apperror.ErrStorageFailure(fmt.Errorf("create entry: %w", err))
	}
	return nil
}

// Balance returns the current balance; an account never touched is zero.
func (s *LedgerServiceImpl) Balance(ctx context.Context, accountID int64) (int64, error) {
	account, err := s.accountRepo.Get(ctx, accountID)
	if err != nil {
		return 0, apperror.ErrStorageFailure(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return 0, nil
	}
	return account.Balance, nil
}

// History returns the most recent entries for an account, newest first.
func (s *LedgerServiceImpl) History(ctx context.Context, accountID int64, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	entries, err := s.entryRepo.History(ctx, accountID, limit)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("get history: %w", err))
	}
	return entries, nil
}

// SetPayoutDestination stores the account's PIX key for later payouts.
func (s *LedgerServiceImpl) SetPayoutDestination(ctx context.Context, accountID int64, destination string) error {
	if destination == "" {
		return apperror.Validation("payout destination cannot be empty")
	}
	if err := s.accountRepo.SetPayoutDestination(ctx, accountID, destination); err != nil {
		return apperror.ErrStorageFailure(fmt.Errorf("set payout destination: %w", err))
	}
	return nil
}

// Account returns the account record, or nil if it was never touched.
func (s *LedgerServiceImpl) Account(ctx context.Context, accountID int64) (*domain.Account, error) {
	account, err := s.accountRepo.Get(ctx, accountID)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("get account: %w", err))
	}
	return account, nil
}

func buildEntry(accountID int64, kind domain.EntryKind, amount int64, description string, opts ports.EntryOpts) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		EntryID:           uuid.New(),
		AccountID:         accountID,
		Kind:              kind,
		Amount:            amount,
		GrossAmount:       opts.GrossAmount,
		Description:       description,
		CounterpartyID:    opts.CounterpartyID,
		CounterpartyName:  opts.CounterpartyName,
		ExternalReference: opts.ExternalReference,
		Status:            domain.EntryStatusCompleted,
		CreatedAt:         time.Now().UTC(),
	}
}
