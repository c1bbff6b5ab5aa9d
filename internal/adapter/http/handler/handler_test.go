package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pix-ledger/internal/adapter/http/dto"
	"pix-ledger/internal/core/domain"
	"pix-ledger/internal/core/ports/mocks"
	"pix-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func jsonRequest(t *testing.T, w *httptest.ResponseRecorder, method, path string, body any) *gin.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, path, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c
}

func responseData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}

// --- Auth Handler Tests ---

func TestLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	expiry := time.Now().Add(24 * time.Hour)
	mockAuth.EXPECT().Login(gomock.Any(), "ops", "password123").Return("jwt-token", expiry, nil)

	w := httptest.NewRecorder()
	c := jsonRequest(t, w, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{
		Username: "ops",
		Password: "password123",
	})
	h.Login(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, "jwt-token", data["token"])
	assert.Equal(t, float64(expiry.Unix()), data["expiry"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Login(gomock.Any(), "ops", "wrong").
		Return("", time.Time{}, apperror.ErrInvalidCredentials())

	w := httptest.NewRecorder()
	c := jsonRequest(t, w, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{
		Username: "ops",
		Password: "wrong",
	})
	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_001")
}

// --- Account Handler Tests ---

func TestGetBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewAccountHandler(mockLedger)

	mockLedger.EXPECT().Balance(gomock.Any(), int64(42)).Return(int64(12345), nil)

	w := httptest.NewRecorder()
	c := jsonRequest(t, w, http.MethodGet, "/api/v1/accounts/42/balance", nil)
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	h.GetBalance(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, float64(12345), data["balance"])
}

func TestGetBalance_BadAccountID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewAccountHandler(mockLedger)

	w := httptest.NewRecorder()
	c := jsonRequest(t, w, http.MethodGet, "/api/v1/accounts/abc/balance", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.GetBalance(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCredit_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewAccountHandler(mockLedger)

	entry := &domain.LedgerEntry{
		EntryID:   uuid.New(),
		AccountID: 42,
		Kind:      domain.EntryKindCredit,
		Amount:    500,
		CreatedAt: time.Now().UTC(),
	}
	mockLedger.EXPECT().Credit(gomock.Any(), int64(42), int64(500), "monthly bonus", gomock.Any()).
		Return(entry, nil)

	w := httptest.NewRecorder()
	c := jsonRequest(t, w, http.MethodPost, "/api/v1/ledger/credit", dto.CreditRequest{
		AccountID:   42,
		Amount:      500,
		Description: "monthly bonus",
	})
	h.Credit(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := responseData(t, w)
	assert.Equal(t, entry.EntryID.String(), data["entry_id"])
	assert.Equal(t, "credit", data["kind"])
}

func TestDebit_InsufficientBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewAccountHandler(mockLedger)

	mockLedger.EXPECT().Debit(gomock.Any(), int64(42), int64(99999), gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrInsufficientBalance())

	w := httptest.NewRecorder()
	c := jsonRequest(t, w, http.MethodPost, "/api/v1/ledger/debit", dto.DebitRequest{
		AccountID:   42,
		Amount:      99999,
		Description: "fine",
	})
	h.Debit(c)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "LED_001")
}

func TestTransfer_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewAccountHandler(mockLedger)

	// Negative amount fails binding before the service is touched.
	w := httptest.NewRecorder()
	c := jsonRequest(t, w, http.MethodPost, "/api/v1/ledger/transfer", dto.TransferRequest{
		FromAccountID: 1,
		ToAccountID:   2,
		Amount:        -5,
	})
	h.Transfer(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Withdrawal Handler Tests ---

func TestCreateWithdrawal_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWithdrawalService(ctrl)
	h := NewWithdrawalHandler(mockSvc)

	req := &domain.WithdrawalRequest{
		ID:                uuid.New(),
		AccountID:         42,
		Amount:            10000,
		Fee:               500,
		NetAmount:         9500,
		PayoutDestination: "member@example.com",
		Status:            domain.RequestStatusPending,
		CreatedAt:         time.Now().UTC(),
	}
	mockSvc.EXPECT().Create(gomock.Any(), int64(42), int64(10000)).Return(req, nil)

	w := httptest.NewRecorder()
	c := jsonRequest(t, w, http.MethodPost, "/api/v1/withdrawals", dto.CreateWithdrawalRequest{
		AccountID: 42,
		Amount:    10000,
	})
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := responseData(t, w)
	assert.Equal(t, req.ID.String(), data["id"])
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, float64(9500), data["net_amount"])
}

func TestApproveWithdrawal_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWithdrawalService(ctrl)
	h := NewWithdrawalHandler(mockSvc)

	id := uuid.New()
	approverID := int64(7)
	payoutID := "mp-123"
	mockSvc.EXPECT().Approve(gomock.Any(), id, approverID).Return(&domain.WithdrawalRequest{
		ID:              id,
		AccountID:       42,
		Status:          domain.RequestStatusApproved,
		ApproverID:      &approverID,
		GatewayPayoutID: &payoutID,
	}, nil)

	w := httptest.NewRecorder()
	c := jsonRequest(t, w, http.MethodPost, "/api/v1/withdrawals/"+id.String()+"/approve", dto.DecisionRequest{
		ApproverID: 7,
	})
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	h.Approve(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, "approved", data["status"])
	assert.Equal(t, "mp-123", data["gateway_payout_id"])
}

func TestApproveWithdrawal_AlreadyProcessed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWithdrawalService(ctrl)
	h := NewWithdrawalHandler(mockSvc)

	id := uuid.New()
	mockSvc.EXPECT().Approve(gomock.Any(), id, int64(7)).Return(nil, apperror.ErrAlreadyProcessed())

	w := httptest.NewRecorder()
	c := jsonRequest(t, w, http.MethodPost, "/api/v1/withdrawals/"+id.String()+"/approve", dto.DecisionRequest{
		ApproverID: 7,
	})
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	h.Approve(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "LED_003")
}

func TestApproveWithdrawal_BadID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockWithdrawalService(ctrl)
	h := NewWithdrawalHandler(mockSvc)

	w := httptest.NewRecorder()
	c := jsonRequest(t, w, http.MethodPost, "/api/v1/withdrawals/nope/approve", dto.DecisionRequest{ApproverID: 7})
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	h.Approve(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Refund Handler Tests ---

func TestCreateRefund_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockRefundService(ctrl)
	h := NewRefundHandler(mockSvc)

	req := &domain.RefundRequest{
		ID:                uuid.New(),
		FundingAccountID:  10,
		BeneficiaryRef:    555,
		Amount:            5000,
		Fee:               100,
		NetAmount:         4900,
		PayoutDestination: "12345678901",
		Reason:            "order 99 cancelled",
		Status:            domain.RequestStatusPending,
		CreatedAt:         time.Now().UTC(),
	}
	mockSvc.EXPECT().Create(gomock.Any(), int64(10), int64(555), int64(5000), "12345678901", "order 99 cancelled").
		Return(req, nil)

	w := httptest.NewRecorder()
	c := jsonRequest(t, w, http.MethodPost, "/api/v1/refunds", dto.CreateRefundRequest{
		FundingAccountID: 10,
		BeneficiaryRef:   555,
		Amount:           5000,
		PayoutKey:        "12345678901",
		Reason:           "order 99 cancelled",
	})
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := responseData(t, w)
	assert.Equal(t, float64(4900), data["net_amount"])
}

func TestForceReverseRefund_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockRefundService(ctrl)
	h := NewRefundHandler(mockSvc)

	id := uuid.New()
	operatorID := int64(1)
	mockSvc.EXPECT().ForceReverse(gomock.Any(), id, operatorID).Return(&domain.RefundRequest{
		ID:               id,
		FundingAccountID: 10,
		Status:           domain.RequestStatusRejected,
		ApproverID:       &operatorID,
	}, nil)

	w := httptest.NewRecorder()
	c := jsonRequest(t, w, http.MethodPost, "/api/v1/refunds/"+id.String()+"/force-reverse", dto.ForceReverseRequest{
		OperatorID: 1,
	})
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	h.ForceReverse(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, "rejected", data["status"])
}

func TestCreateRefund_BadPixKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockRefundService(ctrl)
	h := NewRefundHandler(mockSvc)

	w := httptest.NewRecorder()
	c := jsonRequest(t, w, http.MethodPost, "/api/v1/refunds", dto.CreateRefundRequest{
		FundingAccountID: 10,
		BeneficiaryRef:   555,
		Amount:           5000,
		PayoutKey:        "not a pix key",
		Reason:           "x",
	})
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Webhook Handler Tests ---

func TestPaymentEvent_Credited(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockPaymentEventService(ctrl)
	h := NewWebhookHandler(mockSvc, zerolog.Nop())

	entry := &domain.LedgerEntry{EntryID: uuid.New(), AccountID: 42, Amount: 2500}
	mockSvc.EXPECT().ConfirmPayment(gomock.Any(), int64(42), int64(2500), "mp-evt-001").Return(entry, nil)

	w := httptest.NewRecorder()
	c := jsonRequest(t, w, http.MethodPost, "/api/v1/webhooks/payments", dto.PaymentConfirmedEvent{
		Event:     EventPaymentConfirmed,
		Reference: "mp-evt-001",
		AccountID: 42,
		Amount:    2500,
	})
	h.PaymentEvent(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, "credited", data["status"])
}

func TestPaymentEvent_DuplicateAcknowledged(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockPaymentEventService(ctrl)
	h := NewWebhookHandler(mockSvc, zerolog.Nop())

	mockSvc.EXPECT().ConfirmPayment(gomock.Any(), int64(42), int64(2500), "mp-evt-001").
		Return(nil, apperror.ErrDuplicateReference())

	w := httptest.NewRecorder()
	c := jsonRequest(t, w, http.MethodPost, "/api/v1/webhooks/payments", dto.PaymentConfirmedEvent{
		Event:     EventPaymentConfirmed,
		Reference: "mp-evt-001",
		AccountID: 42,
		Amount:    2500,
	})
	h.PaymentEvent(c)

	// A redelivery is acked so the gateway stops retrying.
	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, "already_processed", data["status"])
}

func TestPaymentEvent_UnknownEventIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockPaymentEventService(ctrl)
	h := NewWebhookHandler(mockSvc, zerolog.Nop())

	w := httptest.NewRecorder()
	c := jsonRequest(t, w, http.MethodPost, "/api/v1/webhooks/payments", dto.PaymentConfirmedEvent{
		Event:     "payment.failed",
		Reference: "mp-evt-002",
		AccountID: 42,
		Amount:    2500,
	})
	h.PaymentEvent(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, "ignored", data["status"])
}

// --- Approver Handler Tests ---

func TestAddApprover(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockApproverService(ctrl)
	h := NewApproverHandler(mockSvc)

	mockSvc.EXPECT().Add(gomock.Any(), int64(7), int64(1)).Return(&domain.Approver{
		AccountID: 7,
		AddedBy:   1,
		AddedAt:   time.Now().UTC(),
	}, nil)

	w := httptest.NewRecorder()
	c := jsonRequest(t, w, http.MethodPost, "/api/v1/approvers", dto.AddApproverRequest{
		AccountID: 7,
		AddedBy:   1,
	})
	h.Add(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := responseData(t, w)
	assert.Equal(t, float64(7), data["account_id"])
}

func TestRemoveApprover_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockApproverService(ctrl)
	h := NewApproverHandler(mockSvc)

	mockSvc.EXPECT().Remove(gomock.Any(), int64(7)).Return(apperror.ErrNotFound("approver"))

	w := httptest.NewRecorder()
	c := jsonRequest(t, w, http.MethodDelete, "/api/v1/approvers/7", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	h.Remove(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
