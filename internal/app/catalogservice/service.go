package catalogservice

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shortland/backend/internal/domain/catalog"
	"github.com/shortland/backend/internal/domain/orders"
	"github.com/shortland/backend/internal/ports"
	"github.com/shortland/backend/internal/shared/logger"
)

// Cache keys. The product list and each product are cached independently;
// admin writes invalidate both.
const (
	cacheKeyProducts   = "catalog:products"
	cacheKeyProductFmt = "catalog:product:"
	cacheKeyCategories = "catalog:categories"
)

// Service implements ports.CatalogService with a read-through cache in front
// of the repository. Cache failures degrade to DB reads, never to errors.
type Service struct {
	uow    ports.UnitOfWork
	repo   ports.ProductRepository
	cache  ports.Cache
	ttl    time.Duration
	logger *logger.Logger
}

var _ ports.CatalogService = (*Service)(nil)

func New(uow ports.UnitOfWork, repo ports.ProductRepository, cache ports.Cache, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{uow: uow, repo: repo, cache: cache, ttl: ttl, logger: log}
}

func (service *Service) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var cached []catalog.Product
	if service.cacheGet(ctx, cacheKeyProducts, &cached) {
		return cached, nil
	}

	var result []catalog.Product
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		result, err = service.repo.ListAll(txCtx)
		return err
	})
	if err != nil {
		return nil, err
	}

	service.cacheSet(ctx, cacheKeyProducts, result)
	return result, nil
}

func (service *Service) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	var cached catalog.Product
	if service.cacheGet(ctx, cacheKeyProductFmt+id, &cached) {
		return &cached, nil
	}

	var result *catalog.Product
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		result, err = service.repo.GetByID(txCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	service.cacheSet(ctx, cacheKeyProductFmt+id, result)
	return result, nil
}

func (service *Service) CreateProduct(ctx context.Context, cmd ports.ProductInput) (catalog.Product, error) {
	if err := validateProduct(cmd); err != nil {
		return catalog.Product{}, err
	}

	product := catalog.Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(cmd.Name),
		Description: cmd.Description,
		Price:       cmd.Price,
		Stock:       cmd.Stock,
		ImageURL:    cmd.ImageURL,
		CategoryID:  cmd.CategoryID,
	}

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.repo.Create(txCtx, &product)
	})
	if err != nil {
		return catalog.Product{}, err
	}

	service.invalidate(ctx, product.ID)
	return product, nil
}

func (service *Service) UpdateProduct(ctx context.Context, id string, cmd ports.ProductInput) (catalog.Product, error) {
	if err := validateProduct(cmd); err != nil {
		return catalog.Product{}, err
	}

	product := catalog.Product{
		ID:          id,
		Name:        strings.TrimSpace(cmd.Name),
		Description: cmd.Description,
		Price:       cmd.Price,
		Stock:       cmd.Stock,
		ImageURL:    cmd.ImageURL,
		CategoryID:  cmd.CategoryID,
	}

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.repo.Update(txCtx, &product)
	})
	if err != nil {
		return catalog.Product{}, err
	}

	service.invalidate(ctx, id)
	return product, nil
}

func (service *Service) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	var cached []catalog.Category
	if service.cacheGet(ctx, cacheKeyCategories, &cached) {
		return cached, nil
	}

	var result []catalog.Category
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		result, err = service.repo.ListCategories(txCtx)
		return err
	})
	if err != nil {
		return nil, err
	}

	service.cacheSet(ctx, cacheKeyCategories, result)
	return result, nil
}

func validateProduct(cmd ports.ProductInput) error {
	if strings.TrimSpace(cmd.Name) == "" {
		return orders.Validation("product name is required")
	}
	if cmd.Price < 0 {
		return orders.Validation("product price must not be negative")
	}
	if cmd.Stock < 0 {
		return orders.Validation("product stock must not be negative")
	}
	return nil
}

// --- cache plumbing ---

func (service *Service) cacheGet(ctx context.Context, key string, dst any) bool {
	raw, hit, err := service.cache.Get(ctx, key)
	if err != nil {
		service.logger.Debug(ctx, "cache_get_failed", "falling through to DB", map[string]any{"key": key, "error": err.Error()})
		return false
	}
	if !hit {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		service.logger.Debug(ctx, "cache_decode_failed", "falling through to DB", map[string]any{"key": key, "error": err.Error()})
		return false
	}
	return true
}

func (service *Service) cacheSet(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := service.cache.Set(ctx, key, raw, service.ttl); err != nil {
		service.logger.Debug(ctx, "cache_set_failed", "skipping cache write", map[string]any{"key": key, "error": err.Error()})
	}
}

func (service *Service) invalidate(ctx context.Context, productID string) {
	if err := service.cache.Delete(ctx, cacheKeyProducts, cacheKeyProductFmt+productID); err != nil {
		service.logger.Debug(ctx, "cache_invalidate_failed", "stale entries expire by TTL", map[string]any{"error": err.Error()})
	}
}
