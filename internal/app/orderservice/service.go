package orderservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shortland/backend/internal/domain/orders"
	"github.com/shortland/backend/internal/notify"
	"github.com/shortland/backend/internal/ports"
	"github.com/shortland/backend/internal/shared/logger"
	"github.com/shortland/backend/internal/shared/metrics"
)

// Service implements ports.OrderService.
type Service struct {
	uow       ports.UnitOfWork
	repo      ports.OrderRepository
	announcer ports.Announcer
	logger    *logger.Logger
}

// Ensure Service implements the interface at compile time.
var _ ports.OrderService = (*Service)(nil)

// New creates a new OrderService with the required dependencies.
func New(uow ports.UnitOfWork, repo ports.OrderRepository, announcer ports.Announcer, log *logger.Logger) *Service {
	return &Service{uow: uow, repo: repo, announcer: announcer, logger: log}
}

// PlaceOrder validates input, persists the order, and enqueues the creation
// event. The announce happens strictly after the commit, so a failed write
// produces zero notifications.
func (service *Service) PlaceOrder(ctx context.Context, userID string, cmd ports.CreateOrderCommand) (orders.Order, error) {
	if len(cmd.Items) == 0 {
		return orders.Order{}, orders.Validation("order items are required")
	}
	if cmd.TotalAmount <= 0 {
		return orders.Order{}, orders.Validation("valid total amount is required")
	}
	for i, item := range cmd.Items {
		if item.ProductID == "" {
			return orders.Order{}, orders.Validation(fmt.Sprintf("item %d is missing productId", i+1))
		}
		if item.Quantity < 1 {
			return orders.Order{}, orders.Validation(fmt.Sprintf("item %d quantity must be positive", i+1))
		}
		if item.UnitPrice < 0 {
			return orders.Order{}, orders.Validation(fmt.Sprintf("item %d unit price must not be negative", i+1))
		}
	}

	var placed *orders.Order
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		order := orders.Order{
			ID:          uuid.NewString(),
			UserID:      userID,
			TotalAmount: cmd.TotalAmount,
		}
		order.Items = make([]orders.OrderItem, len(cmd.Items))
		for i, item := range cmd.Items {
			order.Items[i] = orders.OrderItem{
				ID:        uuid.NewString(),
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			}
		}

		if err := service.repo.Create(txCtx, &order); err != nil {
			service.logger.Error(ctx, "db_transaction_failed", "failed to create order", err)
			return err
		}

		// Re-read inside the tx for the hydrated form (product + purchaser
		// summaries) the response and the notifications both carry.
		hydrated, err := service.repo.GetByID(txCtx, order.ID)
		if err != nil {
			service.logger.Error(ctx, "db_transaction_failed", "failed to load created order", err)
			return err
		}
		placed = hydrated
		return nil
	})
	if err != nil {
		return orders.Order{}, err
	}

	metrics.OrdersCreated.Inc()
	service.announcer.Announce(notify.OrderCreated{Order: *placed})

	service.logger.Info(ctx, "order_placed", "order placed", map[string]any{
		"order_id": placed.ID,
		"user_id":  placed.UserID,
		"total":    placed.TotalAmount.ToFloat2(),
	})
	return *placed, nil
}

// ListUserOrders returns a customer's orders, newest first.
func (service *Service) ListUserOrders(ctx context.Context, userID string) ([]orders.Order, error) {
	var result []orders.Order
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		result, err = service.repo.ListByUser(txCtx, userID)
		return err
	})
	return result, err
}

// ListAllOrders returns every order for the admin back-office.
func (service *Service) ListAllOrders(ctx context.Context) ([]orders.Order, error) {
	var result []orders.Order
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		result, err = service.repo.ListAll(txCtx)
		return err
	})
	return result, err
}

// ChangeStatus applies one state machine transition and enqueues the status
// event after commit. The state machine decides; this method persists.
func (service *Service) ChangeStatus(ctx context.Context, orderID string, requested orders.OrderStatus, changedBy string) (orders.Order, error) {
	var (
		updated  *orders.Order
		previous orders.OrderStatus
	)
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		current, err := service.repo.GetByID(txCtx, orderID)
		if err != nil {
			return err
		}

		_, transition, err := orders.ApplyTransition(*current, requested)
		if err != nil {
			return err
		}

		applied, err := service.repo.UpdateStatusCAS(txCtx, orderID, transition.From, transition.To, changedBy)
		if err != nil {
			service.logger.Error(ctx, "db_transaction_failed", "failed to update order status", err)
			return err
		}
		if !applied {
			// A concurrent transition moved the order first; the requested
			// move is no longer legal from the stored state.
			return orders.ErrInvalidTransition
		}

		// Re-read for the fresh updated_at the notifications carry.
		fresh, err := service.repo.GetByID(txCtx, orderID)
		if err != nil {
			return err
		}

		previous = transition.From
		updated = fresh
		return nil
	})
	if err != nil {
		return orders.Order{}, err
	}

	metrics.StatusTransitions.WithLabelValues(string(updated.Status)).Inc()
	service.announcer.Announce(notify.OrderStatusChanged{Order: *updated, Previous: previous})

	service.logger.Info(ctx, "order_status_changed", "order status changed", map[string]any{
		"order_id":   updated.ID,
		"old_status": string(previous),
		"new_status": string(updated.Status),
		"changed_by": changedBy,
	})
	return *updated, nil
}
