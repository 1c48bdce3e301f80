package catalog

import (
	"errors"
	"time"

	"github.com/shortland/backend/internal/domain/orders"
)

var ErrProductNotFound = errors.New("product not found")

// Product is a catalog entry.
type Product struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       orders.Money `json:"price"`
	Stock       int          `json:"stock"`
	ImageURL    *string      `json:"imageUrl"`
	CategoryID  *string      `json:"categoryId"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Category groups products for browsing.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
