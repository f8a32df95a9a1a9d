package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"account-transfer-service/internal/adapter/http/middleware"
	"account-transfer-service/internal/core/domain"
	"account-transfer-service/internal/core/ports/mocks"
	"account-transfer-service/internal/errmap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJSONContext(method, path, body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// --- Account Handler Tests ---

func TestCreateAccount_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockAccountService(ctrl)
	h := NewAccountHandler(mockSvc)

	acc, _ := domain.NewAccount("Id-123", decimal.RequireFromString("1000.50"))
	mockSvc.EXPECT().CreateAccount(gomock.Any(), "Id-123", gomock.Any()).DoAndReturn(
		func(_ context.Context, id string, balance decimal.Decimal) (*domain.Account, error) {
			assert.True(t, balance.Equal(decimal.RequireFromString("1000.50")))
			return acc, nil
		},
	)

	c, w := newJSONContext(http.MethodPost, "/api/v1/accounts", `{"account_id":"Id-123","balance":"1000.50"}`)
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Id-123", data["account_id"])
	assert.Equal(t, "1000.5", data["balance"])
}

func TestCreateAccount_NumericBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockAccountService(ctrl)
	h := NewAccountHandler(mockSvc)

	acc, _ := domain.NewAccount("Id-1", decimal.NewFromInt(100))
	mockSvc.EXPECT().CreateAccount(gomock.Any(), "Id-1", decimal.NewFromInt(100)).Return(acc, nil)

	c, w := newJSONContext(http.MethodPost, "/api/v1/accounts", `{"account_id":"Id-1","balance":100}`)
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateAccount_ValidationError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"unsafe id", `{"account_id":"a b;c","balance":"1"}`},
		{"malformed balance", `{"account_id":"A","balance":"lots"}`},
		{"not json", `account_id=A`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			h := NewAccountHandler(mocks.NewMockAccountService(ctrl))
			c, w := newJSONContext(http.MethodPost, "/api/v1/accounts", tt.body)
			h.Create(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "REQ_001", decodeBody(t, w)["error_code"])
		})
	}
}

func TestCreateAccount_ServiceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockAccountService(ctrl)
	h := NewAccountHandler(mockSvc)
	mockSvc.EXPECT().CreateAccount(gomock.Any(), "Id-1", gomock.Any()).Return(nil, errmap.DuplicateAccount())

	c, w := newJSONContext(http.MethodPost, "/api/v1/accounts", `{"account_id":"Id-1","balance":"1"}`)
	h.Create(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ACC_001", decodeBody(t, w)["error_code"])
}

func TestGetAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockAccountService(ctrl)
	h := NewAccountHandler(mockSvc)

	acc, _ := domain.NewAccount("Id-1", decimal.NewFromInt(42))
	mockSvc.EXPECT().GetAccount(gomock.Any(), "Id-1").Return(acc, nil)
	mockSvc.EXPECT().GetAccount(gomock.Any(), "ghost").Return(nil, errmap.MissingAccount())

	c, w := newJSONContext(http.MethodGet, "/api/v1/accounts/Id-1", "")
	c.Params = gin.Params{{Key: "id", Value: "Id-1"}}
	h.Get(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", decodeBody(t, w)["data"].(map[string]interface{})["balance"])

	c, w = newJSONContext(http.MethodGet, "/api/v1/accounts/ghost", "")
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "TRF_001", decodeBody(t, w)["error_code"])

	// Unsafe ids never reach the service.
	c, w = newJSONContext(http.MethodGet, "/api/v1/accounts/x", "")
	c.Params = gin.Params{{Key: "id", Value: "<x>"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAccounts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockAccountService(ctrl)
	h := NewAccountHandler(mockSvc)

	a, _ := domain.NewAccount("A", decimal.NewFromInt(1))
	b, _ := domain.NewAccount("B", decimal.NewFromInt(2))
	mockSvc.EXPECT().ListAccounts(gomock.Any()).Return([]*domain.Account{a, b}, nil)

	c, w := newJSONContext(http.MethodGet, "/api/v1/accounts", "")
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])
	assert.Len(t, data["accounts"], 2)
}

func TestListAccounts_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockAccountService(ctrl)
	h := NewAccountHandler(mockSvc)
	mockSvc.EXPECT().ListAccounts(gomock.Any()).Return(nil, errors.New("boom"))

	c, w := newJSONContext(http.MethodGet, "/api/v1/accounts", "")
	h.List(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "SYS_000", decodeBody(t, w)["error_code"])
}

// --- Transfer Handler Tests ---

func TestTransfer_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockTransferService(ctrl)
	h := NewTransferHandler(mockSvc)

	transferID := uuid.New()
	mockSvc.EXPECT().Transfer(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.TransferRequest) (*domain.Transfer, error) {
			assert.Equal(t, "Id-1", req.FromAccountID)
			assert.Equal(t, "Id-2", req.ToAccountID)
			assert.True(t, req.Amount.Equal(decimal.RequireFromString("10.25")))
			assert.Equal(t, "req-42", req.IdempotencyKey)
			assert.Equal(t, "ops-console", req.Subject)
			return &domain.Transfer{
				ID:            transferID,
				FromAccountID: req.FromAccountID,
				ToAccountID:   req.ToAccountID,
				Amount:        req.Amount,
				CreatedAt:     time.Now().UTC(),
			}, nil
		},
	)

	body, _ := json.Marshal(map[string]string{
		"account_from_id": "Id-1",
		"account_to_id":   "Id-2",
		"amount":          "10.25",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/transfers", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set(HeaderIdempotencyKey, "req-42")
	c.Set(middleware.CtxSubject, "ops-console")

	h.Transfer(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, transferID.String(), data["id"])
	assert.Equal(t, "10.25", data["amount"])
}

func TestTransfer_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"missing account", errmap.MissingAccount(), http.StatusNotFound, "TRF_001", "Account not found"},
		{"non-positive amount", errmap.NonPositiveAmount(), http.StatusBadRequest, "TRF_002", "We do not support overdrafts!"},
		{"insufficient funds", errmap.InsufficientFunds(), http.StatusUnprocessableEntity, "TRF_003", "Insufficient balance"},
		{"self transfer", errmap.SelfTransfer(), http.StatusBadRequest, "TRF_004", ""},
		{"lock timeout", errmap.LockTimeout(domain.ErrLockTimeout), http.StatusServiceUnavailable, "SYS_002", ""},
		{"key in progress", errmap.TransferInProgress(), http.StatusConflict, "IDEM_001", ""},
		{"key reused", errmap.IdempotencyKeyReused(), http.StatusUnprocessableEntity, "IDEM_002", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockSvc := mocks.NewMockTransferService(ctrl)
			h := NewTransferHandler(mockSvc)
			mockSvc.EXPECT().Transfer(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			c, w := newJSONContext(http.MethodPost, "/api/v1/transfers",
				`{"account_from_id":"A","account_to_id":"B","amount":"1"}`)
			h.Transfer(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeBody(t, w)
			assert.Equal(t, tt.wantCode, resp["error_code"])
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, resp["message"])
			}
		})
	}
}

func TestTransfer_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewTransferHandler(mocks.NewMockTransferService(ctrl))

	c, w := newJSONContext(http.MethodPost, "/api/v1/transfers", `{"account_from_id":"A"}`)
	h.Transfer(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "REQ_001", decodeBody(t, w)["error_code"])

	c, w = newJSONContext(http.MethodPost, "/api/v1/transfers",
		`{"account_from_id":"A","account_to_id":"B","amount":"1"}`)
	c.Request.Header.Set(HeaderIdempotencyKey, strings.Repeat("k", 129))
	h.Transfer(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newJSONContext(http.MethodPost, "/api/v1/transfers",
		`{"account_from_id":"A","account_to_id":"B","amount":"1"}`)
	c.Request.Header.Set(HeaderIdempotencyKey, "ops:req-1")
	h.Transfer(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "REQ_001", decodeBody(t, w)["error_code"])
}

// --- Health Check Tests ---

func TestHealthCheck_AllHealthy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	redisHC := mocks.NewMockHealthChecker(ctrl)
	redisHC.EXPECT().Ping(gomock.Any()).Return(nil)
	redisHC.EXPECT().Name().Return("redis")

	r := gin.New()
	r.GET("/health", HealthCheck(redisHC))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeBody(t, w)["status"])
}

func TestHealthCheck_NoDependencies(t *testing.T) {
	r := gin.New()
	r.GET("/health", HealthCheck())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthCheck_Degraded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pgHC := mocks.NewMockHealthChecker(ctrl)
	pgHC.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
	pgHC.EXPECT().Name().Return("postgresql")

	r := gin.New()
	r.GET("/health", HealthCheck(pgHC))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, "degraded", resp["status"])
	deps := resp["dependencies"].(map[string]interface{})
	assert.Equal(t, "unhealthy", deps["postgresql"].(map[string]interface{})["status"])
}
