package notify

import "github.com/shortland/backend/internal/domain/orders"

// Message event tags pushed to connected clients.
const (
	EventNewOrder      = "new-order"            // admin broadcast on creation
	EventOrderPlaced   = "order-placed"         // user topic on creation
	EventStatusUpdated = "order-status-updated" // user topic, generic shape
)

// StatusEvent returns the status-specific tag for a transition target
// (order-accepted, order-declined, order-delivered).
func StatusEvent(s orders.OrderStatus) string {
	return "order-" + string(s)
}

// Message is the wire envelope pushed to subscribers.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// StatusUpdatePayload is the generic order-status-updated body. The full
// order rides along so differently-shaped client listeners can use either.
type StatusUpdatePayload struct {
	OrderID string             `json:"orderId"`
	Status  orders.OrderStatus `json:"status"`
	Order   orders.Order       `json:"order"`
}

// Event is an order lifecycle event accepted by the dispatcher.
type Event interface {
	isEvent()
}

// OrderCreated announces a freshly placed order.
type OrderCreated struct {
	Order orders.Order
}

// OrderStatusChanged announces a committed status transition.
type OrderStatusChanged struct {
	Order    orders.Order
	Previous orders.OrderStatus
}

func (OrderCreated) isEvent()       {}
func (OrderStatusChanged) isEvent() {}
