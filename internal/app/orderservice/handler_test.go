package orderservice

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortland/backend/internal/app/authservice"
	"github.com/shortland/backend/internal/domain/orders"
	"github.com/shortland/backend/internal/ports"
	"github.com/shortland/backend/internal/shared/logger"
)

// stubOrderService returns canned results so handler tests only exercise the
// HTTP mapping.
type stubOrderService struct {
	placeResult  orders.Order
	placeErr     error
	listResult   []orders.Order
	listErr      error
	changeResult orders.Order
	changeErr    error

	changeCalls int
}

func (s *stubOrderService) PlaceOrder(context.Context, string, ports.CreateOrderCommand) (orders.Order, error) {
	return s.placeResult, s.placeErr
}

func (s *stubOrderService) ListUserOrders(context.Context, string) ([]orders.Order, error) {
	return s.listResult, s.listErr
}

func (s *stubOrderService) ListAllOrders(context.Context) ([]orders.Order, error) {
	return s.listResult, s.listErr
}

func (s *stubOrderService) ChangeStatus(context.Context, string, orders.OrderStatus, string) (orders.Order, error) {
	s.changeCalls++
	return s.changeResult, s.changeErr
}

func newHandlerRouter(svc ports.OrderService) chi.Router {
	r := chi.NewRouter()
	NewHTTPHandler(svc, logger.NewLoggerTo("test", io.Discard)).Register(r)
	return r
}

func doRequest(t *testing.T, router chi.Router, method, target string, body string, claims *authservice.Claims) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if claims != nil {
		req = req.WithContext(authservice.WithClaims(req.Context(), claims))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func customerClaims() *authservice.Claims {
	return &authservice.Claims{UserID: "u1", Email: "u1@example.com", Role: "user"}
}

func adminClaims() *authservice.Claims {
	return &authservice.Claims{UserID: "a1", Email: "admin@example.com", Role: "admin"}
}

func TestHandleCreateOrder(t *testing.T) {
	t.Parallel()

	svc := &stubOrderService{placeResult: orders.Order{ID: "o1", UserID: "u1", Status: orders.StatusPending}}
	router := newHandlerRouter(svc)

	body := `{"items":[{"productId":"p1","quantity":1,"unitPrice":2.50}],"totalAmount":2.50}`
	rec := doRequest(t, router, http.MethodPost, "/orders", body, customerClaims())

	require.Equal(t, http.StatusCreated, rec.Code)

	var got orders.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "o1", got.ID)
	assert.Equal(t, orders.StatusPending, got.Status)
}

func TestHandleCreateOrderRejections(t *testing.T) {
	t.Parallel()

	svc := &stubOrderService{placeErr: orders.Validation("order items are required")}
	router := newHandlerRouter(svc)

	// No claims in context.
	rec := doRequest(t, router, http.MethodPost, "/orders", `{"items":[],"totalAmount":1}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong content type.
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("items"))
	req.Header.Set("Content-Type", "text/plain")
	req = req.WithContext(authservice.WithClaims(req.Context(), customerClaims()))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	// Malformed JSON.
	rec = doRequest(t, router, http.MethodPost, "/orders", `{"items":`, customerClaims())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown fields are rejected.
	rec = doRequest(t, router, http.MethodPost, "/orders", `{"items":[],"totalAmount":1,"coupon":"x"}`, customerClaims())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Validation errors map to 400.
	rec = doRequest(t, router, http.MethodPost, "/orders", `{"items":[],"totalAmount":1}`, customerClaims())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "order items are required")
}

func TestHandleListUserOrders(t *testing.T) {
	t.Parallel()

	svc := &stubOrderService{listResult: []orders.Order{{ID: "o1", UserID: "u1"}}}
	router := newHandlerRouter(svc)

	// Own orders.
	rec := doRequest(t, router, http.MethodGet, "/orders/user/u1", "", customerClaims())
	require.Equal(t, http.StatusOK, rec.Code)

	// Someone else's orders.
	rec = doRequest(t, router, http.MethodGet, "/orders/user/u2", "", customerClaims())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Admin can read anyone's.
	rec = doRequest(t, router, http.MethodGet, "/orders/user/u1", "", adminClaims())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleListUserOrdersEmptyIsArray(t *testing.T) {
	t.Parallel()

	router := newHandlerRouter(&stubOrderService{listResult: nil})

	rec := doRequest(t, router, http.MethodGet, "/orders/user/u1", "", customerClaims())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestHandleListAllOrders(t *testing.T) {
	t.Parallel()

	svc := &stubOrderService{listResult: []orders.Order{{ID: "o1"}, {ID: "o2"}}}
	router := newHandlerRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/orders", "", customerClaims())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/orders", "", adminClaims())
	require.Equal(t, http.StatusOK, rec.Code)

	var got []orders.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}

func TestHandleUpdateStatus(t *testing.T) {
	t.Parallel()

	svc := &stubOrderService{changeResult: orders.Order{ID: "o1", Status: orders.StatusAccepted}}
	router := newHandlerRouter(svc)

	rec := doRequest(t, router, http.MethodPut, "/orders/o1/status", `{"status":"accepted"}`, adminClaims())
	require.Equal(t, http.StatusOK, rec.Code)

	var got orders.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, orders.StatusAccepted, got.Status)
}

func TestHandleUpdateStatusRejections(t *testing.T) {
	t.Parallel()

	t.Run("non-admin", func(t *testing.T) {
		t.Parallel()
		router := newHandlerRouter(&stubOrderService{})
		rec := doRequest(t, router, http.MethodPut, "/orders/o1/status", `{"status":"accepted"}`, customerClaims())
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("wrong content type", func(t *testing.T) {
		t.Parallel()
		svc := &stubOrderService{}
		router := newHandlerRouter(svc)
		req := httptest.NewRequest(http.MethodPut, "/orders/o1/status", strings.NewReader("status=accepted"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req = req.WithContext(authservice.WithClaims(req.Context(), adminClaims()))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		assert.Zero(t, svc.changeCalls)
	})

	t.Run("unknown status never reaches the service", func(t *testing.T) {
		t.Parallel()
		svc := &stubOrderService{}
		router := newHandlerRouter(svc)
		rec := doRequest(t, router, http.MethodPut, "/orders/o1/status", `{"status":"shipped"}`, adminClaims())
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid status")
		assert.Zero(t, svc.changeCalls)
	})

	t.Run("invalid transition", func(t *testing.T) {
		t.Parallel()
		router := newHandlerRouter(&stubOrderService{changeErr: orders.ErrInvalidTransition})
		rec := doRequest(t, router, http.MethodPut, "/orders/o1/status", `{"status":"delivered"}`, adminClaims())
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid status transition")
	})

	t.Run("order not found", func(t *testing.T) {
		t.Parallel()
		router := newHandlerRouter(&stubOrderService{changeErr: orders.ErrOrderNotFound})
		rec := doRequest(t, router, http.MethodPut, "/orders/missing/status", `{"status":"accepted"}`, adminClaims())
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
