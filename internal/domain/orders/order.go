package orders

import (
	"time"
)

// UserSummary is the purchaser projection embedded in hydrated orders.
// It never carries credentials.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProductSummary is the product projection embedded in order items.
type ProductSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    Money   `json:"price"`
	ImageURL *string `json:"imageUrl"`
}

// OrderItem is a single line of an order. Items are set once at creation and
// never mutated afterward.
type OrderItem struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"orderId"`
	ProductID string          `json:"productId"`
	Product   *ProductSummary `json:"product,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice Money           `json:"unitPrice"`
}

// Order is a customer's order. Status is mutable only through ApplyTransition;
// everything else is fixed at creation.
type Order struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	User        *UserSummary `json:"user,omitempty"`
	Status      OrderStatus  `json:"status"`
	TotalAmount Money        `json:"totalAmount"`
	Items       []OrderItem  `json:"items"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
