package orders

// OrderStatus is a custom type that represents the current status of an order in its lifecycle.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusAccepted  OrderStatus = "accepted"
	StatusDeclined  OrderStatus = "declined"
	StatusDelivered OrderStatus = "delivered"
)

// Allowed state transitions. 'declined' and 'delivered' are terminal.
var allowed = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:   {StatusAccepted: true, StatusDeclined: true},
	StatusAccepted:  {StatusDelivered: true},
	StatusDeclined:  {},
	StatusDelivered: {},
}

// KnownStatus reports whether s is one of the four defined statuses.
func KnownStatus(s OrderStatus) bool {
	_, ok := allowed[s]
	return ok
}

// CanTransition checks if from->to is allowed.
func CanTransition(from, to OrderStatus) bool {
	nexts := allowed[from]
	return nexts != nil && nexts[to]
}

// Transition records which status change occurred, so the notifier can pick
// the right message.
type Transition struct {
	From OrderStatus
	To   OrderStatus
}

// ApplyTransition validates the requested status change and returns a copy of
// the order with the new status. It is a pure decision function: persisting
// the change is the caller's job. An unknown or disallowed status yields
// ErrInvalidTransition and the order is returned unchanged.
func ApplyTransition(order Order, requested OrderStatus) (Order, Transition, error) {
	if !KnownStatus(requested) || !CanTransition(order.Status, requested) {
		return order, Transition{}, ErrInvalidTransition
	}

	tr := Transition{From: order.Status, To: requested}
	order.Status = requested
	return order, tr, nil
}
