package handler

import (
	"pix-ledger/internal/adapter/http/dto"
	"pix-ledger/internal/core/ports"
	"pix-ledger/pkg/apperror"
	"pix-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// RefundHandler handles the refund request workflow.
type RefundHandler struct {
	refundSvc ports.RefundService
}

// NewRefundHandler creates a new RefundHandler.
func NewRefundHandler(refundSvc ports.RefundService) *RefundHandler {
	return &RefundHandler{refundSvc: refundSvc}
}

// Create handles POST /api/v1/refunds.
func (h *RefundHandler) Create(c *gin.Context) {
	var req dto.CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.refundSvc.Create(c.Request.Context(),
		req.FundingAccountID, req.BeneficiaryRef, req.Amount, req.PayoutKey, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromRefund(result))
}

// Approve handles POST /api/v1/refunds/:id/approve.
func (h *RefundHandler) Approve(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.refundSvc.Approve(c.Request.Context(), id, req.ApproverID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromRefund(result))
}

// Reject handles POST /api/v1/refunds/:id/reject.
func (h *RefundHandler) Reject(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.refundSvc.Reject(c.Request.Context(), id, req.ApproverID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromRefund(result))
}

// ForceReverse handles POST /api/v1/refunds/:id/force-reverse.
func (h *RefundHandler) ForceReverse(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	var req dto.ForceReverseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.refundSvc.ForceReverse(c.Request.Context(), id, req.OperatorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromRefund(result))
}

// ListPending handles GET /api/v1/refunds/pending.
func (h *RefundHandler) ListPending(c *gin.Context) {
	reqs, err := h.refundSvc.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.RefundResponse, 0, len(reqs))
	for i := range reqs {
		out = append(out, dto.FromRefund(&reqs[i]))
	}

	response.OK(c, out)
}
