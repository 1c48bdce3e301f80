package ports

import (
	"context"

	"github.com/shortland/backend/internal/domain/catalog"
	"github.com/shortland/backend/internal/domain/orders"
	"github.com/shortland/backend/internal/domain/users"
	"github.com/shortland/backend/internal/notify"
)

// Announcer is the dispatcher seam: services enqueue order events after a
// successful commit and never wait on delivery.
type Announcer interface {
	Announce(event notify.Event)
}

// OrderService handles the order mutation and read flows.
type OrderService interface {
	PlaceOrder(ctx context.Context, userID string, cmd CreateOrderCommand) (orders.Order, error)
	ListUserOrders(ctx context.Context, userID string) ([]orders.Order, error)
	ListAllOrders(ctx context.Context) ([]orders.Order, error)
	ChangeStatus(ctx context.Context, orderID string, requested orders.OrderStatus, changedBy string) (orders.Order, error)
}

type CreateOrderCommand struct {
	Items       []ItemInput
	TotalAmount orders.Money
}

type ItemInput struct {
	ProductID string
	Quantity  int
	UnitPrice orders.Money
}

// AuthService issues tokens and verifies credentials.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (AuthResult, error)
	Login(ctx context.Context, email, password string) (AuthResult, error)
	LoginAdmin(ctx context.Context, email, password string) (AuthResult, error)
}

type AuthResult struct {
	User  users.User
	Token string
}

// CatalogService powers product browsing and the admin product screens.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	CreateProduct(ctx context.Context, cmd ProductInput) (catalog.Product, error)
	UpdateProduct(ctx context.Context, id string, cmd ProductInput) (catalog.Product, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
}

type ProductInput struct {
	Name        string
	Description string
	Price       orders.Money
	Stock       int
	ImageURL    *string
	CategoryID  *string
}
