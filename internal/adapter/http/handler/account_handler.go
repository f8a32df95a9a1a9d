package handler

import (
	"account-transfer-service/internal/adapter/http/dto"
	"account-transfer-service/internal/adapter/http/middleware"
	"account-transfer-service/internal/core/ports"
	"account-transfer-service/internal/errmap"
	"account-transfer-service/pkg/apperror"
	"account-transfer-service/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles account endpoints.
type AccountHandler struct {
	accountSvc ports.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc ports.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// Create handles POST /api/v1/accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	acc, err := h.accountSvc.CreateAccount(c.Request.Context(), req.AccountID, req.Balance)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxAuditResourceID, acc.ID())
	response.Created(c, dto.NewAccountResponse(acc))
}

// Get handles GET /api/v1/accounts/:id.
func (h *AccountHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !dto.IsSafeID(id) {
		response.Error(c, errmap.MissingAccount())
		return
	}

	acc, err := h.accountSvc.GetAccount(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewAccountResponse(acc))
}

// List handles GET /api/v1/accounts.
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.accountSvc.ListAccounts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		items = append(items, dto.NewAccountResponse(acc))
	}

	response.OK(c, dto.AccountListResponse{
		Accounts: items,
		Total:    len(items),
	})
}
