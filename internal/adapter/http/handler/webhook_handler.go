package handler

import (
	"errors"

	"pix-ledger/internal/adapter/http/dto"
	"pix-ledger/internal/core/ports"
	"pix-ledger/pkg/apperror"
	"pix-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// EventPaymentConfirmed is the inbound event type the gateway sends when a
// PIX charge completes.
const EventPaymentConfirmed = "payment.confirmed"

// WebhookHandler handles inbound gateway events.
type WebhookHandler struct {
	paymentSvc ports.PaymentEventService
	log        zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(paymentSvc ports.PaymentEventService, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{paymentSvc: paymentSvc, log: log}
}

// PaymentEvent handles POST /api/v1/webhooks/payments. Redelivered events
// are acknowledged with 200 so the gateway stops retrying; the reference
// check guarantees they never credit twice.
func (h *WebhookHandler) PaymentEvent(c *gin.Context) {
	var event dto.PaymentConfirmedEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if event.Event != EventPaymentConfirmed {
		h.log.Debug().Str("event", event.Event).Msg("ignoring unhandled webhook event")
		response.OK(c, gin.H{"status": "ignored"})
		return
	}

	entry, err := h.paymentSvc.ConfirmPayment(c.Request.Context(), event.AccountID, event.Amount, event.Reference)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == "LED_007" {
			response.OK(c, gin.H{"status": "already_processed", "reference": event.Reference})
			return
		}
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"status":   "credited",
		"entry_id": entry.EntryID.String(),
	})
}
