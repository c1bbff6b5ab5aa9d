package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pix-ledger/config"
	"pix-ledger/internal/core/domain"
	"pix-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// MisticPayClient implements ports.PayoutGateway against the MisticPay API.
// Requests authenticate with the ci/cs header pair.
type MisticPayClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   HTTPClient
	log          zerolog.Logger
}

// NewMisticPayClient creates a MisticPay payout client.
func NewMisticPayClient(cfg config.GatewayConfig, log zerolog.Logger) *MisticPayClient {
	return &MisticPayClient{
		baseURL:      cfg.BaseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		log:          log,
	}
}

// NewMisticPayClientWithHTTP creates a client with a custom HTTP client
// (useful for testing).
func NewMisticPayClientWithHTTP(cfg config.GatewayConfig, httpClient HTTPClient, log zerolog.Logger) *MisticPayClient {
	c := NewMisticPayClient(cfg, log)
	c.httpClient = httpClient
	return c
}

type withdrawRequest struct {
	KeyType     string  `json:"key_type"`
	Key         string  `json:"key"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

type withdrawResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreatePayout sends real money to a PIX key. The key type is detected from
// the destination's shape. Any error return is a definitive failure: nothing
// was paid and the caller must restore the held balance.
func (c *MisticPayClient) CreatePayout(ctx context.Context, destination string, amount int64, memo string) (*domain.PayoutResult, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	body := withdrawRequest{
		KeyType: string(domain.DetectPixKeyType(destination)),
		Key:     destination,
		// The API takes decimal reais, the ledger holds centavos.
		Amount:      float64(amount) / 100,
		Description: memo,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal payout request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transactions/withdraw", bytes.NewReader(payload))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("build payout request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("ci", c.clientID)
	req.Header.Set("cs", c.clientSecret)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.ErrGatewayFailure(fmt.Errorf("payout request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperror.ErrGatewayFailure(fmt.Errorf("read payout response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn().
			Int("status", resp.StatusCode).
			Dur("elapsed", time.Since(started)).
			Str("body", string(respBody)).
			Msg("gateway payout refused")
		return nil, apperror.ErrGatewayFailure(fmt.Errorf("payout refused: status %d", resp.StatusCode))
	}

	var wr withdrawResponse
	if err := json.Unmarshal(respBody, &wr); err != nil {
		return nil, apperror.ErrGatewayFailure(fmt.Errorf("decode payout response: %w", err))
	}

	status := domain.PayoutStatusQueued
	if wr.Status == "COMPLETED" {
		status = domain.PayoutStatusCompleted
	}

	c.log.Info().
		Str("payout_id", wr.ID).
		Str("status", string(status)).
		Int64("amount", amount).
		Dur("elapsed", time.Since(started)).
		Msg("gateway payout accepted")

	return &domain.PayoutResult{PayoutID: wr.ID, Status: status}, nil
}
