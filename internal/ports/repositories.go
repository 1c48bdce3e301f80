package ports

import (
	"context"
	"time"

	"github.com/shortland/backend/internal/domain/catalog"
	"github.com/shortland/backend/internal/domain/orders"
	"github.com/shortland/backend/internal/domain/users"
)

// UnitOfWork wraps a function in a DB transaction.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderRepository coordinates orders + items. Every read returns the fully
// hydrated order (items with product summary + purchaser summary). Creation
// MUST also insert the initial 'pending' status log row.
type OrderRepository interface {
	Create(ctx context.Context, o *orders.Order) error
	GetByID(ctx context.Context, orderID string) (*orders.Order, error)
	ListByUser(ctx context.Context, userID string) ([]orders.Order, error)
	ListAll(ctx context.Context) ([]orders.Order, error)
	// UpdateStatusCAS moves orderID from expected to next and appends a
	// status log row. applied=false means the stored status was not
	// `expected` anymore (a concurrent transition won).
	UpdateStatusCAS(ctx context.Context, orderID string, expected, next orders.OrderStatus, changedBy string) (applied bool, err error)
}

// UserRepository controls account records.
type UserRepository interface {
	Create(ctx context.Context, u *users.User) error
	GetByEmail(ctx context.Context, email string) (*users.User, error)
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// ProductRepository serves the catalog.
type ProductRepository interface {
	ListAll(ctx context.Context) ([]catalog.Product, error)
	GetByID(ctx context.Context, id string) (*catalog.Product, error)
	Create(ctx context.Context, p *catalog.Product) error
	Update(ctx context.Context, p *catalog.Product) error
	ListCategories(ctx context.Context) ([]catalog.Category, error)
}

// Cache is the byte-level cache in front of catalog reads.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
