package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pix-ledger/config"
	"pix-ledger/internal/core/domain"
	"pix-ledger/pkg/apperror"
	"pix-ledger/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGatewayConfig(baseURL string) config.GatewayConfig {
	return config.GatewayConfig{
		BaseURL:      baseURL,
		ClientID:     "test-ci",
		ClientSecret: "test-cs",
		Timeout:      2 * time.Second,
	}
}

func TestMisticPayClient_CreatePayout(t *testing.T) {
	var gotReq withdrawRequest
	var gotCI, gotCS string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transactions/withdraw", r.URL.Path)
		gotCI = r.Header.Get("ci")
		gotCS = r.Header.Get("cs")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(withdrawResponse{ID: "payout-123", Status: "QUEUED"})
	}))
	defer srv.Close()

	client := NewMisticPayClient(testGatewayConfig(srv.URL), logger.New("error", false))

	result, err := client.CreatePayout(context.Background(), "user@example.com", 4_500, "withdrawal")
	require.NoError(t, err)
	assert.Equal(t, "payout-123", result.PayoutID)
	assert.Equal(t, domain.PayoutStatusQueued, result.Status)

	assert.Equal(t, "test-ci", gotCI)
	assert.Equal(t, "test-cs", gotCS)
	assert.Equal(t, string(domain.PixKeyTypeEmail), gotReq.KeyType)
	assert.Equal(t, "user@example.com", gotReq.Key)
	assert.InDelta(t, 45.00, gotReq.Amount, 0.001, "centavos must be converted to reais")
}

func TestMisticPayClient_CreatePayout_Completed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(withdrawResponse{ID: "payout-456", Status: "COMPLETED"})
	}))
	defer srv.Close()

	client := NewMisticPayClient(testGatewayConfig(srv.URL), logger.New("error", false))

	result, err := client.CreatePayout(context.Background(), "11999990000", 1_000, "refund")
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutStatusCompleted, result.Status)
}

func TestMisticPayClient_CreatePayout_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"insufficient gateway balance"}`))
	}))
	defer srv.Close()

	client := NewMisticPayClient(testGatewayConfig(srv.URL), logger.New("error", false))

	result, err := client.CreatePayout(context.Background(), "user@example.com", 4_500, "withdrawal")
	assert.Nil(t, result)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GWY_001", appErr.Code)
}

func TestMisticPayClient_CreatePayout_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Closed before use: connection refused.

	client := NewMisticPayClient(testGatewayConfig(srv.URL), logger.New("error", false))

	result, err := client.CreatePayout(context.Background(), "user@example.com", 4_500, "withdrawal")
	assert.Nil(t, result)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GWY_001", appErr.Code)
}

func TestMisticPayClient_CreatePayout_InvalidAmount(t *testing.T) {
	client := NewMisticPayClient(testGatewayConfig("http://unused"), logger.New("error", false))

	_, err := client.CreatePayout(context.Background(), "user@example.com", 0, "withdrawal")
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "LED_005", appErr.Code)
}

func TestMisticPayClient_CreatePayout_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not-json"))
	}))
	defer srv.Close()

	client := NewMisticPayClient(testGatewayConfig(srv.URL), logger.New("error", false))

	_, err := client.CreatePayout(context.Background(), "user@example.com", 1_000, "withdrawal")
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GWY_001", appErr.Code)
}
