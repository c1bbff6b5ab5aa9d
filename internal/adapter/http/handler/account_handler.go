package handler

import (
	"strconv"

	"pix-ledger/internal/adapter/http/dto"
	"pix-ledger/internal/core/ports"
	"pix-ledger/pkg/apperror"
	"pix-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles balance, history and manual ledger operations.
type AccountHandler struct {
	ledgerSvc ports.LedgerService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(ledgerSvc ports.LedgerService) *AccountHandler {
	return &AccountHandler{ledgerSvc: ledgerSvc}
}

func accountIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, apperror.Validation("invalid account id"))
		return 0, false
	}
	return id, true
}

// GetBalance handles GET /api/v1/accounts/:id/balance.
func (h *AccountHandler) GetBalance(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	balance, err := h.ledgerSvc.Balance(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		AccountID: accountID,
		Balance:   balance,
	})
}

// GetHistory handles GET /api/v1/accounts/:id/history.
func (h *AccountHandler) GetHistory(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	entries, err := h.ledgerSvc.History(c.Request.Context(), accountID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.EntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, dto.FromEntry(&entries[i]))
	}

	response.OK(c, dto.HistoryResponse{
		AccountID: accountID,
		Entries:   out,
	})
}

// SetPayoutDestination handles PUT /api/v1/accounts/:id/payout-destination.
func (h *AccountHandler) SetPayoutDestination(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	var req dto.SetPayoutDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.ledgerSvc.SetPayoutDestination(c.Request.Context(), accountID, req.Destination); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"account_id": accountID, "destination": req.Destination})
}

// Credit handles POST /api/v1/ledger/credit.
func (h *AccountHandler) Credit(c *gin.Context) {
	var req dto.CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	entry, err := h.ledgerSvc.Credit(c.Request.Context(), req.AccountID, req.Amount, req.Description, ports.EntryOpts{})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromEntry(entry))
}

// Debit handles POST /api/v1/ledger/debit.
func (h *AccountHandler) Debit(c *gin.Context) {
	var req dto.DebitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	entry, err := h.ledgerSvc.Debit(c.Request.Context(), req.AccountID, req.Amount, req.Description, ports.EntryOpts{})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromEntry(entry))
}

// Transfer handles POST /api/v1/ledger/transfer.
func (h *AccountHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	err := h.ledgerSvc.Transfer(c.Request.Context(), req.FromAccountID, req.ToAccountID, req.Amount, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"from_account_id": req.FromAccountID,
		"to_account_id":   req.ToAccountID,
		"amount":          req.Amount,
	})
}
