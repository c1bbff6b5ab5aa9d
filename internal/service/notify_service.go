package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"pix-ledger/config"
	"pix-ledger/internal/core/domain"
	"pix-ledger/internal/core/ports"

	"github.com/rs/zerolog"
)

// notifyRetryIntervals defines the delivery retry backoff.
var notifyRetryIntervals = []time.Duration{
	15 * time.Second,
	60 * time.Second,
	2 * time.Minute,
	5 * time.Minute,
}

// Notification event types.
const (
	EventWithdrawalRequested = "WITHDRAWAL_REQUESTED"
	EventWithdrawalResolved  = "WITHDRAWAL_RESOLVED"
	EventRefundRequested     = "REFUND_REQUESTED"
	EventRefundResolved      = "REFUND_RESOLVED"
	EventPaymentConfirmed    = "PAYMENT_CONFIRMED"
)

// NotifyPayload is the JSON structure delivered to the configured endpoints.
type NotifyPayload struct {
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
	Signature string          `json:"signature"`
	Timestamp int64           `json:"timestamp"`
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// webhookNotifier implements ports.Notifier by POSTing signed events to the
// configured endpoints. Delivery runs in a goroutine with retries; callers
// never block on it, and a dead endpoint never fails a workflow.
type webhookNotifier struct {
	cfg        config.NotifyConfig
	sigSvc     ports.SignatureService
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewWebhookNotifier creates the outbound notifier.
func NewWebhookNotifier(cfg config.NotifyConfig, sigSvc ports.SignatureService, httpClient HTTPClient, log zerolog.Logger) ports.Notifier {
	return &webhookNotifier{
		cfg:        cfg,
		sigSvc:     sigSvc,
		httpClient: httpClient,
		log:        log,
	}
}

func (n *webhookNotifier) WithdrawalRequested(ctx context.Context, req *domain.WithdrawalRequest) {
	n.dispatch(n.cfg.ApproverURL, EventWithdrawalRequested, req)
}

func (n *webhookNotifier) WithdrawalResolved(ctx context.Context, req *domain.WithdrawalRequest, reason string) {
	n.dispatch(n.cfg.RequesterURL, EventWithdrawalResolved, struct {
		*domain.WithdrawalRequest
		Reason string `json:"reason,omitempty"`
	}{req, reason})
}

func (n *webhookNotifier) RefundRequested(ctx context.Context, req *domain.RefundRequest) {
	n.dispatch(n.cfg.ApproverURL, EventRefundRequested, req)
}

func (n *webhookNotifier) RefundResolved(ctx context.Context, req *domain.RefundRequest, reason string) {
	n.dispatch(n.cfg.RequesterURL, EventRefundResolved, struct {
		*domain.RefundRequest
		Reason string `json:"reason,omitempty"`
	}{req, reason})
}

func (n *webhookNotifier) PaymentConfirmed(ctx context.Context, entry *domain.LedgerEntry) {
	n.dispatch(n.cfg.RequesterURL, EventPaymentConfirmed, entry)
}

func (n *webhookNotifier) dispatch(url, eventType string, data any) {
	if url == "" {
		n.log.Debug().Str("event", eventType).Msg("notify: no endpoint configured, skipping")
		return
	}

	dataBytes, err := json.Marshal(data)
	if err != nil {
		n.log.Error().Err(err).Str("event", eventType).Msg("notify: failed to marshal event data")
		return
	}

	payload := NotifyPayload{
		EventType: eventType,
		Data:      dataBytes,
		Signature: n.sigSvc.Sign(n.cfg.Secret, string(dataBytes)),
		Timestamp: time.Now().Unix(),
	}

	go n.deliverWithRetries(url, payload)
}

// deliverWithRetries attempts delivery with backoff until a 2xx response.
func (n *webhookNotifier) deliverWithRetries(url string, payload NotifyPayload) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		n.log.Error().Err(err).Str("event", payload.EventType).Msg("notify: failed to marshal payload")
		return
	}

	for attempt := 0; attempt <= len(notifyRetryIntervals); attempt++ {
		if attempt > 0 {
			time.Sleep(notifyRetryIntervals[attempt-1])
		}

		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payloadBytes))
		if err != nil {
			n.log.Error().Err(err).Str("event", payload.EventType).Msg("notify: failed to create request")
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.httpClient.Do(req)
		if err != nil {
			n.log.Warn().Err(err).Str("event", payload.EventType).Int("attempt", attempt+1).Msg("notify: delivery failed")
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			n.log.Info().Str("event", payload.EventType).Int("attempt", attempt+1).Msg("notify: delivered")
			return
		}

		n.log.Warn().Str("event", payload.EventType).Int("attempt", attempt+1).Int("status", resp.StatusCode).Msg("notify: non-2xx response, retrying")
	}

	n.log.Error().Str("event", payload.EventType).Msg("notify: all retry attempts exhausted")
}
