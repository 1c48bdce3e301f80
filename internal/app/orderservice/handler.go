package orderservice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shortland/backend/internal/app/authservice"
	"github.com/shortland/backend/internal/domain/orders"
	"github.com/shortland/backend/internal/domain/users"
	"github.com/shortland/backend/internal/ports"
	"github.com/shortland/backend/internal/shared/logger"
	"github.com/shortland/backend/internal/shared/web"
)

// HTTPHandler adapts HTTP requests to the OrderService.
type HTTPHandler struct {
	svc    ports.OrderService
	logger *logger.Logger
}

// NewHTTPHandler wires an HTTP handler around the OrderService.
func NewHTTPHandler(svc ports.OrderService, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, logger: log}
}

// Register mounts the order routes. auth middleware is applied by the caller;
// admin-only routes enforce the role here.
func (handler *HTTPHandler) Register(r chi.Router) {
	r.Post("/orders", handler.handleCreateOrder)
	r.Get("/orders/user/{userId}", handler.handleListUserOrders)
	r.Get("/orders", handler.handleListAllOrders)
	r.Put("/orders/{orderId}/status", handler.handleUpdateStatus)
}

// --- Request DTOs (HTTP boundary) ---

type createOrderRequest struct {
	Items       []createOrderItemRequest `json:"items"`
	TotalAmount orders.Money             `json:"totalAmount"`
}

type createOrderItemRequest struct {
	ProductID string       `json:"productId"`
	Quantity  int          `json:"quantity"`
	UnitPrice orders.Money `json:"unitPrice"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// --- Handlers ---

func (handler *HTTPHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, ok := authservice.ClaimsFrom(ctx)
	if !ok {
		web.HTTPError(ctx, handler.logger, w, http.StatusUnauthorized, "authentication required", errors.New("no claims in context"))
		return
	}

	// guard: content type + size
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		web.HTTPError(ctx, handler.logger, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", errors.New("unsupported content type: "+ct))
		return
	}

	// decode strictly
	var req createOrderRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		web.HTTPError(ctx, handler.logger, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	cmd := ports.CreateOrderCommand{TotalAmount: req.TotalAmount}
	cmd.Items = make([]ports.ItemInput, len(req.Items))
	for i, it := range req.Items {
		cmd.Items[i] = ports.ItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}

	placed, err := handler.svc.PlaceOrder(ctx, claims.UserID, cmd)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	web.JSONResponse(ctx, handler.logger, w, http.StatusCreated, placed)
}

func (handler *HTTPHandler) handleListUserOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, ok := authservice.ClaimsFrom(ctx)
	if !ok {
		web.HTTPError(ctx, handler.logger, w, http.StatusUnauthorized, "authentication required", errors.New("no claims in context"))
		return
	}

	userID := chi.URLParam(r, "userId")

	// Users can only see their own orders.
	if claims.UserID != userID && claims.Role != string(users.RoleAdmin) {
		web.HTTPError(ctx, handler.logger, w, http.StatusForbidden, "access denied", errors.New("cross-user order listing"))
		return
	}

	list, err := handler.svc.ListUserOrders(ctx, userID)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	web.JSONResponse(ctx, handler.logger, w, http.StatusOK, list)
}

func (handler *HTTPHandler) handleListAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !handler.requireAdmin(w, r) {
		return
	}

	list, err := handler.svc.ListAllOrders(ctx)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	web.JSONResponse(ctx, handler.logger, w, http.StatusOK, list)
}

func (handler *HTTPHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !handler.requireAdmin(w, r) {
		return
	}
	claims, _ := authservice.ClaimsFrom(ctx)

	orderID := chi.URLParam(r, "orderId")

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		web.HTTPError(ctx, handler.logger, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", errors.New("unsupported content type: "+ct))
		return
	}

	var req updateStatusRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		web.HTTPError(ctx, handler.logger, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	requested := orders.OrderStatus(req.Status)
	if !orders.KnownStatus(requested) {
		web.HTTPError(ctx, handler.logger, w, http.StatusBadRequest, "invalid status", errors.New("unknown status: "+req.Status))
		return
	}

	updated, err := handler.svc.ChangeStatus(ctx, orderID, requested, claims.UserID)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	web.JSONResponse(ctx, handler.logger, w, http.StatusOK, updated)
}

// --- Helpers ---

func (handler *HTTPHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	ctx := r.Context()
	claims, ok := authservice.ClaimsFrom(ctx)
	if !ok {
		web.HTTPError(ctx, handler.logger, w, http.StatusUnauthorized, "authentication required", errors.New("no claims in context"))
		return false
	}
	if claims.Role != string(users.RoleAdmin) {
		web.HTTPError(ctx, handler.logger, w, http.StatusForbidden, "admin access required", errors.New("role: "+claims.Role))
		return false
	}
	return true
}

// serviceError maps domain errors to HTTP statuses, keeping DB failures apart
// from validation ones.
func (handler *HTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	var validation *orders.ValidationError
	switch {
	case errors.As(err, &validation):
		web.HTTPError(ctx, handler.logger, w, http.StatusBadRequest, validation.Msg, err)
	case errors.Is(err, orders.ErrInvalidTransition):
		web.HTTPError(ctx, handler.logger, w, http.StatusBadRequest, "invalid status transition", err)
	case errors.Is(err, orders.ErrOrderNotFound):
		web.HTTPError(ctx, handler.logger, w, http.StatusNotFound, "order not found", err)
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			web.HTTPError(ctx, handler.logger, w, http.StatusInternalServerError, "database error", err)
			return
		}
		web.HTTPError(ctx, handler.logger, w, http.StatusInternalServerError, "internal error", err)
	}
}
