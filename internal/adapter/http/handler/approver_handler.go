package handler

import (
	"strconv"
	"time"

	"pix-ledger/internal/adapter/http/dto"
	"pix-ledger/internal/core/ports"
	"pix-ledger/pkg/apperror"
	"pix-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// ApproverHandler handles the approver registry.
type ApproverHandler struct {
	approverSvc ports.ApproverService
}

// NewApproverHandler creates a new ApproverHandler.
func NewApproverHandler(approverSvc ports.ApproverService) *ApproverHandler {
	return &ApproverHandler{approverSvc: approverSvc}
}

// Add handles POST /api/v1/approvers.
func (h *ApproverHandler) Add(c *gin.Context) {
	var req dto.AddApproverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	approver, err := h.approverSvc.Add(c.Request.Context(), req.AccountID, req.AddedBy)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ApproverResponse{
		AccountID: approver.AccountID,
		AddedBy:   approver.AddedBy,
		AddedAt:   approver.AddedAt.Format(time.RFC3339),
	})
}

// Remove handles DELETE /api/v1/approvers/:id.
func (h *ApproverHandler) Remove(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || accountID <= 0 {
		response.Error(c, apperror.Validation("invalid account id"))
		return
	}

	if err := h.approverSvc.Remove(c.Request.Context(), accountID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"account_id": accountID, "removed": true})
}

// List handles GET /api/v1/approvers.
func (h *ApproverHandler) List(c *gin.Context) {
	approvers, err := h.approverSvc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.ApproverResponse, 0, len(approvers))
	for _, a := range approvers {
		out = append(out, dto.ApproverResponse{
			AccountID: a.AccountID,
			AddedBy:   a.AddedBy,
			AddedAt:   a.AddedAt.Format(time.RFC3339),
		})
	}

	response.OK(c, out)
}
