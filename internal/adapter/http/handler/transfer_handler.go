package handler

import (
	"account-transfer-service/internal/adapter/http/dto"
	"account-transfer-service/internal/adapter/http/middleware"
	"account-transfer-service/internal/core/domain"
	"account-transfer-service/internal/core/ports"
	"account-transfer-service/pkg/apperror"
	"account-transfer-service/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"

	maxIdempotencyKeyLen = 128
)

// TransferHandler handles transfer endpoints.
type TransferHandler struct {
	transferSvc ports.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferSvc ports.TransferService) *TransferHandler {
	return &TransferHandler{transferSvc: transferSvc}
}

// Transfer handles POST /api/v1/transfers.
func (h *TransferHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	// Keys never contain ':' so the subject-scoped cache key stays unambiguous.
	idempKey := c.GetHeader(HeaderIdempotencyKey)
	if idempKey != "" && (len(idempKey) > maxIdempotencyKeyLen || !dto.IsSafeID(idempKey)) {
		response.Error(c, apperror.Validation("Idempotency-Key must be at most 128 characters of [a-zA-Z0-9_-.]"))
		return
	}

	transfer, err := h.transferSvc.Transfer(c.Request.Context(), domain.TransferRequest{
		FromAccountID:  req.AccountFromID,
		ToAccountID:    req.AccountToID,
		Amount:         req.Amount,
		IdempotencyKey: idempKey,
		Subject:        c.GetString(middleware.CtxSubject),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxAuditResourceID, transfer.ID.String())
	response.OK(c, dto.NewTransferResponse(transfer))
}
