package handler_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Nathan2412/project-api/internal/config"
	"github.com/Nathan2412/project-api/internal/domain/model"
	"github.com/Nathan2412/project-api/internal/handler"
	repo "github.com/Nathan2412/project-api/internal/repository"
	"github.com/Nathan2412/project-api/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// webhook経路に必要な最小限のfake。注文1件だけを持つ。

type stubStore struct {
	order model.Order
}

type stubOrders struct{ s *stubStore }

func (r *stubOrders) Create(ctx context.Context, order model.Order) (int64, error) {
	return order.ID, nil
}

func (r *stubOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	if orderID != r.s.order.ID {
		return model.Order{}, repo.ErrNotFound
	}
	return r.s.order, nil
}

func (r *stubOrders) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	return r.FindByID(ctx, orderID)
}

func (r *stubOrders) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	return nil, nil
}

func (r *stubOrders) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	if orderID != r.s.order.ID {
		return repo.ErrNotFound
	}
	r.s.order.Status = status
	return nil
}

type stubOrderItems struct{}

func (stubOrderItems) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	return nil
}

func (stubOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	return nil, nil
}

type stubTxRepos struct{ s *stubStore }

func (r *stubTxRepos) Orders() repo.OrderRepository         { return &stubOrders{s: r.s} }
func (r *stubTxRepos) OrderItems() repo.OrderItemRepository { return stubOrderItems{} }
func (r *stubTxRepos) CartItems() repo.CartItemRepository   { return nil }
func (r *stubTxRepos) Products() repo.ProductRepository     { return nil }
func (r *stubTxRepos) Inventory() repo.InventoryRepository  { return nil }

type stubTxManager struct{ s *stubStore }

func (tm *stubTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(&stubTxRepos{s: tm.s})
}

type stubIDGen struct{}

func (stubIDGen) NewID() string { return "pay_ref" }

func newWebhookEcho(s *stubStore, secret string) *echo.Echo {
	uc := usecase.NewPaymentUsecase(&stubTxManager{s: s}, &stubOrders{s: s}, stubIDGen{}, nil, zap.NewNop())
	h := handler.NewPaymentHandler(uc, secret)

	e := echo.New()
	h.RegisterRoutes(e, config.Config{JWTSecret: "test-secret"})
	return e
}

func sign(secret string, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func pendingOrder() *stubStore {
	return &stubStore{order: model.Order{
		ID:     1,
		UserID: 1,
		Total:  decimal.RequireFromString("119.00"),
		Status: model.OrderStatusPending,
	}}
}

func TestWebhook_ValidSignatureMarksPaid(t *testing.T) {
	s := pendingOrder()
	e := newWebhookEcho(s, "whsec")

	body := `{"type":"payment.succeeded","order_id":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Payment-Signature", sign("whsec", body))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.OrderStatusPaid, s.order.Status)
}

func TestWebhook_InvalidSignatureRejected(t *testing.T) {
	s := pendingOrder()
	e := newWebhookEcho(s, "whsec")

	body := `{"type":"payment.succeeded","order_id":1}`

	cases := []struct {
		name string
		sig  string
	}{
		{"missing signature", ""},
		{"wrong secret", sign("other", body)},
		{"tampered body", sign("whsec", `{"type":"payment.succeeded","order_id":2}`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", strings.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			if tc.sig != "" {
				req.Header.Set("X-Payment-Signature", tc.sig)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			//状態は変わらない
			assert.Equal(t, model.OrderStatusPending, s.order.Status)
		})
	}
}

func TestWebhook_IgnoresOtherEventTypes(t *testing.T) {
	s := pendingOrder()
	e := newWebhookEcho(s, "whsec")

	body := `{"type":"payment.failed","order_id":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Payment-Signature", sign("whsec", body))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.OrderStatusPending, s.order.Status)
}
