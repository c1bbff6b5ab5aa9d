package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerEntry_SignedAmount(t *testing.T) {
	tests := []struct {
		kind   EntryKind
		amount int64
		want   int64
	}{
		{EntryKindCredit, 1000, 1000},
		{EntryKindTransferIn, 250, 250},
		{EntryKindDebit, 1000, -1000},
		{EntryKindTransferOut, 250, -250},
		{EntryKindWithdrawalHold, 5000, -5000},
		{EntryKindRefundHold, 1600, -1600},
		{EntryKindWithdrawalSettled, 4500, 0},
		{EntryKindRefundSettled, 1500, 0},
		{EntryKindManualAdjustment, 300, 300},
		{EntryKindManualAdjustment, -300, -300},
	}

	for _, tt := range tests {
		e := &LedgerEntry{Kind: tt.kind, Amount: tt.amount}
		assert.Equal(t, tt.want, e.SignedAmount(), "kind %s", tt.kind)
	}
}

func TestAccount_HasPayoutDestination(t *testing.T) {
	a := &Account{AccountID: 1}
	assert.False(t, a.HasPayoutDestination())

	empty := ""
	a.PayoutDestination = &empty
	assert.False(t, a.HasPayoutDestination())

	key := "member@example.com"
	a.PayoutDestination = &key
	assert.True(t, a.HasPayoutDestination())
}

func TestWithdrawalRequest_IsPending(t *testing.T) {
	w := &WithdrawalRequest{Status: RequestStatusPending}
	assert.True(t, w.IsPending())

	for _, s := range []RequestStatus{RequestStatusApproved, RequestStatusRejected, RequestStatusExpired} {
		w.Status = s
		assert.False(t, w.IsPending())
	}
}

func TestDetectPixKeyType(t *testing.T) {
	tests := []struct {
		key  string
		want PixKeyType
	}{
		{"member@example.com", PixKeyTypeEmail},
		{"12345678901", PixKeyTypeCPF},
		{"12345678901234", PixKeyTypeCNPJ},
		{"+5511999990000", PixKeyTypePhone},
		{"9a6df0aa-71f2-4c9e-8e2f-3f1a6f0e9b77", PixKeyTypeRandom},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectPixKeyType(tt.key), "key %q", tt.key)
	}
}
