package postgres

import (
	"context"
	"testing"
	"time"

	"pix-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withdrawalTestColumns() []string {
	return []string{
		"id", "account_id", "amount", "fee", "net_amount", "payout_destination",
		"status", "approver_id", "gateway_payout_id", "created_at", "resolved_at",
	}
}

func newTestWithdrawal(accountID int64) *domain.WithdrawalRequest {
	return &domain.WithdrawalRequest{
		ID:                uuid.New(),
		AccountID:         accountID,
		Amount:            5_000,
		Fee:               500,
		NetAmount:         4_500,
		PayoutDestination: "user@example.com",
		Status:            domain.RequestStatusPending,
		CreatedAt:         time.Now().UTC().Truncate(time.Microsecond),
	}
}

func withdrawalRow(req *domain.WithdrawalRequest) *pgxmock.Rows {
	return pgxmock.NewRows(withdrawalTestColumns()).AddRow(
		req.ID, req.AccountID, req.Amount, req.Fee, req.NetAmount,
		req.PayoutDestination, req.Status, req.ApproverID,
		req.GatewayPayoutID, req.CreatedAt, req.ResolvedAt,
	)
}

func TestWithdrawalRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWithdrawalRepo(mock)
	req := newTestWithdrawal(42)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO withdrawal_requests").
		WithArgs(req.ID, req.AccountID, req.Amount, req.Fee, req.NetAmount,
			req.PayoutDestination, req.Status, req.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, req)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawalRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWithdrawalRepo(mock)
	req := newTestWithdrawal(42)

	mock.ExpectQuery("SELECT .+ FROM withdrawal_requests WHERE id").
		WithArgs(req.ID).
		WillReturnRows(withdrawalRow(req))

	result, err := repo.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, req.ID, result.ID)
	assert.Equal(t, int64(4_500), result.NetAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawalRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWithdrawalRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM withdrawal_requests WHERE id").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(withdrawalTestColumns()))

	result, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawalRepo_Resolve(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWithdrawalRepo(mock)
	id := uuid.New()
	approverID := int64(7)
	payoutID := "payout-abc"

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE withdrawal_requests").
		WithArgs(domain.RequestStatusApproved, &approverID, &payoutID, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	ok, err := repo.Resolve(context.Background(), tx, id, domain.RequestStatusApproved, &approverID, &payoutID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawalRepo_Resolve_LostRace(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWithdrawalRepo(mock)
	id := uuid.New()
	approverID := int64(7)

	// Another decision already moved the row out of pending: 0 rows affected.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE withdrawal_requests").
		WithArgs(domain.RequestStatusRejected, &approverID, (*string)(nil), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	ok, err := repo.Resolve(context.Background(), tx, id, domain.RequestStatusRejected, &approverID, nil)
	require.NoError(t, err)
	assert.False(t, ok, "losing the resolve race must not be an error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawalRepo_ListPending(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWithdrawalRepo(mock)
	req := newTestWithdrawal(42)

	mock.ExpectQuery("SELECT .+ FROM withdrawal_requests").
		WillReturnRows(withdrawalRow(req))

	reqs, err := repo.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, domain.RequestStatusPending, reqs[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawalRepo_ListPendingOlderThan(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWithdrawalRepo(mock)
	req := newTestWithdrawal(42)
	cutoff := time.Now().Add(-24 * time.Hour)

	mock.ExpectQuery("SELECT .+ FROM withdrawal_requests").
		WithArgs(cutoff).
		WillReturnRows(withdrawalRow(req))

	reqs, err := repo.ListPendingOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
