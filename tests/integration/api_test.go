package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"pix-ledger/config"
	httpHandler "pix-ledger/internal/adapter/http/handler"
	redisStorage "pix-ledger/internal/adapter/storage/redis"
	"pix-ledger/internal/core/domain"
	"pix-ledger/internal/service"
	"pix-ledger/pkg/apperror"
	"pix-ledger/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds the full application stack on in-memory storage: miniredis
// behind the processing guard and cooldown store, map-backed repos behind the
// services, a stub payout gateway, and the real HTTP layer on top.

const (
	testWebhookSecret = "test-webhook-secret"
	testOperatorPass  = "OperatorPass123!"
)

type stubGateway struct {
	mu    sync.Mutex
	fail  bool
	calls int
}

func (g *stubGateway) setFail(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = fail
}

func (g *stubGateway) CreatePayout(ctx context.Context, destination string, amount int64, memo string) (*domain.PayoutResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.fail {
		return nil, apperror.ErrGatewayFailure(errors.New("stub gateway down"))
	}
	return &domain.PayoutResult{
		PayoutID: fmt.Sprintf("stub-payout-%d", g.calls),
		Status:   domain.PayoutStatusQueued,
	}, nil
}

type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis

	ledgerSvc     *service.LedgerServiceImpl
	withdrawalSvc *service.WithdrawalServiceImpl
	refundSvc     *service.RefundServiceImpl
	paymentSvc    *service.PaymentEventServiceImpl
	approverRepo  *inMemoryApproverRepo
	accountRepo   *inMemoryAccountRepo
	entryRepo     *inMemoryEntryRepo
	gateway       *stubGateway
	sigSvc        *service.HMACSignatureService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	processingGuard := redisStorage.NewProcessingGuard(rdb)
	cooldownStore := redisStorage.NewCooldownStore(rdb)

	sigSvc := service.NewHMACSignatureService()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "pix-ledger-test")

	passwordHash, err := hashSvc.Hash(testOperatorPass)
	require.NoError(t, err)

	accountRepo := newInMemoryAccountRepo()
	entryRepo := newInMemoryEntryRepo()
	withdrawalRepo := newInMemoryWithdrawalRepo()
	refundRepo := newInMemoryRefundRepo()
	approverRepo := newInMemoryApproverRepo()
	transactor := newInMemoryTransactor()

	log := logger.New("error", false)
	gw := &stubGateway{}
	notifier := service.NewWebhookNotifier(config.NotifyConfig{}, sigSvc, http.DefaultClient, log)

	fees := config.FeesConfig{WithdrawalFee: 500, RefundFee: 100, RefundMinNet: 1}
	// Cooldown disabled so tests can issue back-to-back decisions.
	workflow := config.WorkflowConfig{ApproverCooldown: 0, ProcessingTTL: 2 * time.Minute}

	authSvc := service.NewAuthService(config.OperatorConfig{
		Username:     "ops",
		PasswordHash: passwordHash,
	}, hashSvc, tokenSvc)
	ledgerSvc := service.NewLedgerService(accountRepo, entryRepo, transactor, log)
	withdrawalSvc := service.NewWithdrawalService(
		ledgerSvc, withdrawalRepo, approverRepo, gw, processingGuard, cooldownStore, notifier, fees, workflow, log)
	refundSvc := service.NewRefundService(
		ledgerSvc, refundRepo, approverRepo, gw, processingGuard, cooldownStore, notifier, fees, workflow, log)
	approverSvc := service.NewApproverService(approverRepo, log)
	paymentSvc := service.NewPaymentEventService(ledgerSvc, entryRepo, notifier, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:       authSvc,
		LedgerSvc:     ledgerSvc,
		WithdrawalSvc: withdrawalSvc,
		RefundSvc:     refundSvc,
		ApproverSvc:   approverSvc,
		PaymentSvc:    paymentSvc,
		TokenSvc:      tokenSvc,
		SigSvc:        sigSvc,
		WebhookSecret: testWebhookSecret,
		Logger:        log,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testApp{
		server:        server,
		redis:         mr,
		ledgerSvc:     ledgerSvc,
		withdrawalSvc: withdrawalSvc,
		refundSvc:     refundSvc,
		paymentSvc:    paymentSvc,
		approverRepo:  approverRepo,
		accountRepo:   accountRepo,
		entryRepo:     entryRepo,
		gateway:       gw,
		sigSvc:        sigSvc,
	}
}

func (a *testApp) login(t *testing.T) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":"ops","password":"%s"}`, testOperatorPass)
	resp, err := http.Post(a.server.URL+"/api/v1/auth/login", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result.Data.Token
}

func (a *testApp) doJSON(t *testing.T, method, path, token, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, a.server.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&parsed)
	return resp, parsed
}

// --- HTTP-level tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_LoginAndAuthGate(t *testing.T) {
	app := newTestApp(t)

	// No token => 401
	resp, _ := app.doJSON(t, http.MethodGet, "/api/v1/accounts/42/balance", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Bad credentials => 401
	resp2, err := http.Post(app.server.URL+"/api/v1/auth/login", "application/json",
		bytes.NewBufferString(`{"username":"ops","password":"wrong"}`))
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)

	// Good login => token works
	token := app.login(t)
	resp3, parsed := app.doJSON(t, http.MethodGet, "/api/v1/accounts/42/balance", token, "")
	assert.Equal(t, http.StatusOK, resp3.StatusCode)
	data := parsed["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["balance"])
}

func TestIntegration_CreditDebitHistory(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t)

	resp, _ := app.doJSON(t, http.MethodPost, "/api/v1/ledger/credit", token,
		`{"account_id":42,"amount":10000,"description":"initial funding"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = app.doJSON(t, http.MethodPost, "/api/v1/ledger/debit", token,
		`{"account_id":42,"amount":2500,"description":"shop purchase"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, parsed := app.doJSON(t, http.MethodGet, "/api/v1/accounts/42/balance", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(7500), parsed["data"].(map[string]interface{})["balance"])

	resp, parsed = app.doJSON(t, http.MethodGet, "/api/v1/accounts/42/history?limit=5", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	entries := parsed["data"].(map[string]interface{})["entries"].([]interface{})
	assert.Len(t, entries, 2)
	// Newest first.
	assert.Equal(t, "debit", entries[0].(map[string]interface{})["kind"])
}

func TestIntegration_WithdrawalLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t)

	// Fund and register a payout key.
	resp, _ := app.doJSON(t, http.MethodPost, "/api/v1/ledger/credit", token,
		`{"account_id":42,"amount":20000,"description":"funding"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = app.doJSON(t, http.MethodPut, "/api/v1/accounts/42/payout-destination", token,
		`{"destination":"member@example.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Register the approver.
	resp, _ = app.doJSON(t, http.MethodPost, "/api/v1/approvers", token,
		`{"account_id":7,"added_by":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Open the withdrawal: hold debited immediately.
	resp, parsed := app.doJSON(t, http.MethodPost, "/api/v1/withdrawals", token,
		`{"account_id":42,"amount":10000}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	reqID := parsed["data"].(map[string]interface{})["id"].(string)

	resp, parsed = app.doJSON(t, http.MethodGet, "/api/v1/accounts/42/balance", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(10000), parsed["data"].(map[string]interface{})["balance"])

	// Approve pays out the net amount.
	resp, parsed = app.doJSON(t, http.MethodPost, "/api/v1/withdrawals/"+reqID+"/approve", token,
		`{"approver_id":7}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := parsed["data"].(map[string]interface{})
	assert.Equal(t, "approved", data["status"])
	assert.NotEmpty(t, data["gateway_payout_id"])

	// Second approve is refused.
	resp, _ = app.doJSON(t, http.MethodPost, "/api/v1/withdrawals/"+reqID+"/approve", token,
		`{"approver_id":7}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestIntegration_WebhookPaymentConfirmed(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t)

	body := `{"event":"payment.confirmed","reference":"mp-evt-100","account_id":42,"amount":2500}`
	sig := app.sigSvc.Sign(testWebhookSecret, body)

	post := func(signature string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/webhooks/payments",
			bytes.NewBufferString(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Signature", signature)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	// Unsigned/garbage signature is refused before the handler runs.
	assert.Equal(t, http.StatusUnauthorized, post("bad-signature").StatusCode)

	// Signed event credits the seller.
	assert.Equal(t, http.StatusOK, post(sig).StatusCode)
	resp, parsed := app.doJSON(t, http.MethodGet, "/api/v1/accounts/42/balance", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2500), parsed["data"].(map[string]interface{})["balance"])

	// Redelivery is acknowledged but credits nothing.
	assert.Equal(t, http.StatusOK, post(sig).StatusCode)
	resp, parsed = app.doJSON(t, http.MethodGet, "/api/v1/accounts/42/balance", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2500), parsed["data"].(map[string]interface{})["balance"])
}
