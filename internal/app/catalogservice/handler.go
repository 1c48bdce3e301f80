package catalogservice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shortland/backend/internal/domain/catalog"
	"github.com/shortland/backend/internal/domain/orders"
	"github.com/shortland/backend/internal/ports"
	"github.com/shortland/backend/internal/shared/logger"
	"github.com/shortland/backend/internal/shared/web"
)

// HTTPHandler adapts the catalog routes to the CatalogService.
type HTTPHandler struct {
	svc    ports.CatalogService
	logger *logger.Logger
}

func NewHTTPHandler(svc ports.CatalogService, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, logger: log}
}

// RegisterPublic mounts the browse routes (no auth).
func (handler *HTTPHandler) RegisterPublic(r chi.Router) {
	r.Get("/products", handler.handleListProducts)
	r.Get("/products/{id}", handler.handleGetProduct)
	r.Get("/categories", handler.handleListCategories)
}

// RegisterAdmin mounts the product write routes (admin middleware applied by
// the caller).
func (handler *HTTPHandler) RegisterAdmin(r chi.Router) {
	r.Post("/products", handler.handleCreateProduct)
	r.Put("/products/{id}", handler.handleUpdateProduct)
}

type productRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       orders.Money `json:"price"`
	Stock       int          `json:"stock"`
	ImageURL    *string      `json:"imageUrl"`
	CategoryID  *string      `json:"categoryId"`
}

func (req productRequest) toInput() ports.ProductInput {
	return ports.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
	}
}

func (handler *HTTPHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := handler.svc.ListProducts(ctx)
	if err != nil {
		web.HTTPError(ctx, handler.logger, w, http.StatusInternalServerError, "internal error", err)
		return
	}
	if list == nil {
		list = []catalog.Product{}
	}
	web.JSONResponse(ctx, handler.logger, w, http.StatusOK, list)
}

func (handler *HTTPHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	product, err := handler.svc.GetProduct(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrProductNotFound) {
		web.HTTPError(ctx, handler.logger, w, http.StatusNotFound, "product not found", err)
		return
	}
	if err != nil {
		web.HTTPError(ctx, handler.logger, w, http.StatusInternalServerError, "internal error", err)
		return
	}
	web.JSONResponse(ctx, handler.logger, w, http.StatusOK, product)
}

func (handler *HTTPHandler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := handler.svc.ListCategories(ctx)
	if err != nil {
		web.HTTPError(ctx, handler.logger, w, http.StatusInternalServerError, "internal error", err)
		return
	}
	if list == nil {
		list = []catalog.Category{}
	}
	web.JSONResponse(ctx, handler.logger, w, http.StatusOK, list)
}

func (handler *HTTPHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		web.HTTPError(ctx, handler.logger, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	product, err := handler.svc.CreateProduct(ctx, req.toInput())
	if err != nil {
		handler.writeError(ctx, w, err)
		return
	}
	web.JSONResponse(ctx, handler.logger, w, http.StatusCreated, product)
}

func (handler *HTTPHandler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		web.HTTPError(ctx, handler.logger, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	product, err := handler.svc.UpdateProduct(ctx, chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		handler.writeError(ctx, w, err)
		return
	}
	web.JSONResponse(ctx, handler.logger, w, http.StatusOK, product)
}

func (handler *HTTPHandler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var validation *orders.ValidationError
	switch {
	case errors.As(err, &validation):
		web.HTTPError(ctx, handler.logger, w, http.StatusBadRequest, validation.Msg, err)
	case errors.Is(err, catalog.ErrProductNotFound):
		web.HTTPError(ctx, handler.logger, w, http.StatusNotFound, "product not found", err)
	default:
		web.HTTPError(ctx, handler.logger, w, http.StatusInternalServerError, "internal error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
