package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"modmarket/internal/middleware"
	"modmarket/internal/model"
	"modmarket/internal/service/deal"
	"modmarket/pkg/utils"
)

// MockDealService is a mock implementation of deal.DealService
type MockDealService struct {
	mock.Mock
}

func (m *MockDealService) Create(ctx context.Context, actor deal.Actor, productID uint64) (*model.Deal, error) {
	args := m.Called(ctx, actor, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Deal), args.Error(1)
}

func (m *MockDealService) Get(ctx context.Context, actor deal.Actor, dealID uint64) (*model.Deal, error) {
	args := m.Called(ctx, actor, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Deal), args.Error(1)
}

func (m *MockDealService) List(ctx context.Context, actor deal.Actor) ([]*model.Deal, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Deal), args.Error(1)
}

func (m *MockDealService) UpdateStatus(ctx context.Context, actor deal.Actor, dealID uint64, target model.DealStatus, steamCardCode *string) (*model.Deal, error) {
	args := m.Called(ctx, actor, dealID, target, steamCardCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Deal), args.Error(1)
}

func (m *MockDealService) SendMessage(ctx context.Context, actor deal.Actor, dealID uint64, body string) (*model.DealMessage, error) {
	args := m.Called(ctx, actor, dealID, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DealMessage), args.Error(1)
}

func (m *MockDealService) ListMessages(ctx context.Context, actor deal.Actor, dealID uint64) ([]*model.DealMessage, error) {
	args := m.Called(ctx, actor, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.DealMessage), args.Error(1)
}

func (m *MockDealService) CancelActiveDealsForUser(ctx context.Context, actor deal.Actor, userID uint64) (int, error) {
	args := m.Called(ctx, actor, userID)
	return args.Int(0), args.Error(1)
}

func asUser(u middleware.UserInfo) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserKey, &u)
		c.Next()
	}
}

var testBuyer = middleware.UserInfo{ID: 2, Username: "buyer"}

func TestDealHandler_Create(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("successful create", func(t *testing.T) {
		mockService := new(MockDealService)
		handler := NewDealHandler(mockService)

		expected := &model.Deal{
			ID:        10,
			DealNo:    "D202608280001",
			BuyerID:   2,
			ProductID: 5,
			Status:    model.DealStatusPending,
		}
		mockService.On("Create", mock.Anything, deal.Actor{ID: 2, Username: "buyer"}, uint64(5)).
			Return(expected, nil)

		router := gin.New()
		router.POST("/deals", asUser(testBuyer), handler.Create)

		req, _ := http.NewRequest("POST", "/deals", strings.NewReader(`{"product_id":5}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "success", response["message"])

		data := response["data"].(map[string]interface{})
		assert.Equal(t, "pending", data["status"])
		assert.Equal(t, "D202608280001", data["deal_no"])

		mockService.AssertExpectations(t)
	})

	t.Run("product unavailable", func(t *testing.T) {
		mockService := new(MockDealService)
		handler := NewDealHandler(mockService)

		mockService.On("Create", mock.Anything, mock.Anything, uint64(6)).
			Return(nil, utils.ErrProductUnavailable)

		router := gin.New()
		router.POST("/deals", asUser(testBuyer), handler.Create)

		req, _ := http.NewRequest("POST", "/deals", strings.NewReader(`{"product_id":6}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("missing product_id", func(t *testing.T) {
		mockService := new(MockDealService)
		handler := NewDealHandler(mockService)

		router := gin.New()
		router.POST("/deals", asUser(testBuyer), handler.Create)

		req, _ := http.NewRequest("POST", "/deals", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "Create")
	})
}

func TestDealHandler_UpdateStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("buyer sends payment code", func(t *testing.T) {
		mockService := new(MockDealService)
		handler := NewDealHandler(mockService)

		code := "XXXX-YYYY-ZZZZ"
		expected := &model.Deal{
			ID:      10,
			BuyerID: 2,
			Status:  model.DealStatusPaymentSent,
		}
		mockService.On("UpdateStatus", mock.Anything, deal.Actor{ID: 2, Username: "buyer"}, uint64(10), model.DealStatusPaymentSent, &code).
			Return(expected, nil)

		router := gin.New()
		router.PUT("/deals/:id/status", asUser(testBuyer), handler.UpdateStatus)

		body := `{"status":"payment_sent","steam_card_code":"XXXX-YYYY-ZZZZ"}`
		req, _ := http.NewRequest("PUT", "/deals/10/status", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("invalid transition maps to 400", func(t *testing.T) {
		mockService := new(MockDealService)
		handler := NewDealHandler(mockService)

		mockService.On("UpdateStatus", mock.Anything, mock.Anything, uint64(10), model.DealStatusCompleted, (*string)(nil)).
			Return(nil, utils.ErrInvalidTransition)

		router := gin.New()
		router.PUT("/deals/:id/status", asUser(testBuyer), handler.UpdateStatus)

		req, _ := http.NewRequest("PUT", "/deals/10/status", strings.NewReader(`{"status":"completed"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("access denied maps to 403", func(t *testing.T) {
		mockService := new(MockDealService)
		handler := NewDealHandler(mockService)

		mockService.On("UpdateStatus", mock.Anything, mock.Anything, uint64(10), model.DealStatusAccepted, (*string)(nil)).
			Return(nil, utils.ErrAccessDenied)

		router := gin.New()
		router.PUT("/deals/:id/status", asUser(testBuyer), handler.UpdateStatus)

		req, _ := http.NewRequest("PUT", "/deals/10/status", strings.NewReader(`{"status":"accepted"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("non-numeric deal id", func(t *testing.T) {
		mockService := new(MockDealService)
		handler := NewDealHandler(mockService)

		router := gin.New()
		router.PUT("/deals/:id/status", asUser(testBuyer), handler.UpdateStatus)

		req, _ := http.NewRequest("PUT", "/deals/abc/status", strings.NewReader(`{"status":"accepted"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "UpdateStatus")
	})
}

func TestDealHandler_Messages(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("list messages", func(t *testing.T) {
		mockService := new(MockDealService)
		handler := NewDealHandler(mockService)

		msgs := []*model.DealMessage{
			{ID: 1, DealID: 10, SenderID: 2, Body: "Deal created for Steam Gift Card", IsSystem: true},
			{ID: 2, DealID: 10, SenderID: 2, Body: "hello"},
		}
		mockService.On("ListMessages", mock.Anything, mock.Anything, uint64(10)).Return(msgs, nil)

		router := gin.New()
		router.GET("/deals/:id/messages", asUser(testBuyer), handler.ListMessages)

		req, _ := http.NewRequest("GET", "/deals/10/messages", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		data := response["data"].([]interface{})
		assert.Len(t, data, 2)

		mockService.AssertExpectations(t)
	})

	t.Run("send message rejects empty body", func(t *testing.T) {
		mockService := new(MockDealService)
		handler := NewDealHandler(mockService)

		router := gin.New()
		router.POST("/deals/:id/messages", asUser(testBuyer), handler.SendMessage)

		req, _ := http.NewRequest("POST", "/deals/10/messages", strings.NewReader(`{"message":""}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "SendMessage")
	})

	t.Run("thread access denied", func(t *testing.T) {
		mockService := new(MockDealService)
		handler := NewDealHandler(mockService)

		mockService.On("ListMessages", mock.Anything, mock.Anything, uint64(10)).
			Return(nil, utils.ErrAccessDenied)

		router := gin.New()
		router.GET("/deals/:id/messages", asUser(testBuyer), handler.ListMessages)

		req, _ := http.NewRequest("GET", "/deals/10/messages", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		mockService.AssertExpectations(t)
	})
}
