package integration

import (
	"context"
	"sort"
	"sync"
	"time"

	"pix-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Account Repo ---

type inMemoryAccountRepo struct {
	mu       sync.RWMutex
	accounts map[int64]*domain.Account
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{accounts: make(map[int64]*domain.Account)}
}

func (r *inMemoryAccountRepo) Get(ctx context.Context, accountID int64) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[accountID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryAccountRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, accountID int64) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	if !ok {
		a = &domain.Account{
			AccountID: accountID,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		r.accounts[accountID] = a
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryAccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, accountID int64, balance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	if !ok {
		a = &domain.Account{AccountID: accountID, CreatedAt: time.Now().UTC()}
		r.accounts[accountID] = a
	}
	a.Balance = balance
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryAccountRepo) SetPayoutDestination(ctx context.Context, accountID int64, destination string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	if !ok {
		a = &domain.Account{AccountID: accountID, CreatedAt: time.Now().UTC()}
		r.accounts[accountID] = a
	}
	a.PayoutDestination = &destination
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Entry Repo ---

type inMemoryEntryRepo struct {
	mu      sync.RWMutex
	entries []domain.LedgerEntry
}

func newInMemoryEntryRepo() *inMemoryEntryRepo {
	return &inMemoryEntryRepo{}
}

func (r *inMemoryEntryRepo) Create(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *inMemoryEntryRepo) History(ctx context.Context, accountID int64, limit int) ([]domain.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.LedgerEntry
	for _, e := range r.entries {
		if e.AccountID == accountID {
			result = append(result, e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *inMemoryEntryRepo) ExternalReferenceExists(ctx context.Context, reference string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.ExternalReference != nil && *e.ExternalReference == reference && e.Kind == domain.EntryKindCredit {
			return true, nil
		}
	}
	return false, nil
}

// all returns a snapshot of every entry (test assertions only).
func (r *inMemoryEntryRepo) all() []domain.LedgerEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.LedgerEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// --- In-Memory Withdrawal Repo ---

type inMemoryWithdrawalRepo struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*domain.WithdrawalRequest
}

func newInMemoryWithdrawalRepo() *inMemoryWithdrawalRepo {
	return &inMemoryWithdrawalRepo{requests: make(map[uuid.UUID]*domain.WithdrawalRequest)}
}

func (r *inMemoryWithdrawalRepo) Create(ctx context.Context, tx pgx.Tx, req *domain.WithdrawalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *inMemoryWithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (r *inMemoryWithdrawalRepo) Resolve(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.RequestStatus, approverID *int64, payoutID *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.Status != domain.RequestStatusPending {
		return false, nil
	}
	now := time.Now().UTC()
	req.Status = status
	req.ApproverID = approverID
	req.GatewayPayoutID = payoutID
	req.ResolvedAt = &now
	return true, nil
}

func (r *inMemoryWithdrawalRepo) ListPending(ctx context.Context) ([]domain.WithdrawalRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.WithdrawalRequest
	for _, req := range r.requests {
		if req.Status == domain.RequestStatusPending {
			result = append(result, *req)
		}
	}
	return result, nil
}

func (r *inMemoryWithdrawalRepo) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]domain.WithdrawalRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.WithdrawalRequest
	for _, req := range r.requests {
		if req.Status == domain.RequestStatusPending && req.CreatedAt.Before(cutoff) {
			result = append(result, *req)
		}
	}
	return result, nil
}

// --- In-Memory Refund Repo ---

type inMemoryRefundRepo struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*domain.RefundRequest
}

func newInMemoryRefundRepo() *inMemoryRefundRepo {
	return &inMemoryRefundRepo{requests: make(map[uuid.UUID]*domain.RefundRequest)}
}

func (r *inMemoryRefundRepo) Create(ctx context.Context, tx pgx.Tx, req *domain.RefundRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *inMemoryRefundRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.RefundRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (r *inMemoryRefundRepo) Resolve(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.RequestStatus, approverID *int64, payoutID *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.Status != domain.RequestStatusPending {
		return false, nil
	}
	now := time.Now().UTC()
	req.Status = status
	req.ApproverID = approverID
	req.GatewayPayoutID = payoutID
	req.ResolvedAt = &now
	return true, nil
}

func (r *inMemoryRefundRepo) ListPending(ctx context.Context) ([]domain.RefundRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.RefundRequest
	for _, req := range r.requests {
		if req.Status == domain.RequestStatusPending {
			result = append(result, *req)
		}
	}
	return result, nil
}

// --- In-Memory Approver Repo ---

type inMemoryApproverRepo struct {
	mu        sync.RWMutex
	approvers map[int64]*domain.Approver
}

func newInMemoryApproverRepo() *inMemoryApproverRepo {
	return &inMemoryApproverRepo{approvers: make(map[int64]*domain.Approver)}
}

func (r *inMemoryApproverRepo) Add(ctx context.Context, approver *domain.Approver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.approvers[approver.AccountID]; ok {
		return nil
	}
	cp := *approver
	r.approvers[approver.AccountID] = &cp
	return nil
}

func (r *inMemoryApproverRepo) Remove(ctx context.Context, accountID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.approvers[accountID]; !ok {
		return false, nil
	}
	delete(r.approvers, accountID)
	return true, nil
}

func (r *inMemoryApproverRepo) IsApprover(ctx context.Context, accountID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.approvers[accountID]
	return ok, nil
}

func (r *inMemoryApproverRepo) List(ctx context.Context) ([]domain.Approver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Approver
	for _, a := range r.approvers {
		result = append(result, *a)
	}
	return result, nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing. The real
// atomicity comes from the ledger mutex serializing mutations.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
