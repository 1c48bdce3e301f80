package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/shortland/backend/internal/shared/logger"
	"github.com/shortland/backend/internal/shared/metrics"
)

// Sender pushes one message to one connection. Implemented by the gateway.
// A failed send means that connection only; the dispatcher carries on.
type Sender interface {
	Send(connID string, msg Message) error
}

// Dispatcher turns order events into per-topic messages and fans them out
// through the registry. Announce only enqueues: delivery happens on a single
// worker goroutine, which keeps per-order dispatch in commit order and keeps
// slow sockets off the HTTP request path.
type Dispatcher struct {
	registry *Registry
	sender   Sender
	logger   *logger.Logger

	queue chan Event
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

const queueDepth = 256

// NewDispatcher starts the dispatch worker. Close must be called on shutdown
// to drain the queue.
func NewDispatcher(registry *Registry, sender Sender, log *logger.Logger) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		sender:   sender,
		logger:   log,
		queue:    make(chan Event, queueDepth),
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

// Announce enqueues an event for fan-out. It blocks only if the queue is
// full, never on socket I/O. Events announced for the same order are
// delivered in announce order.
func (d *Dispatcher) Announce(event Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.logger.Debug(context.Background(), "dispatch_dropped", "event announced after dispatcher close", nil)
		return
	}
	d.queue <- event
}

// Close stops accepting events, drains the queue, and waits for the worker.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		d.dispatch(event)
	}
}

// dispatch computes the topic set for one event and emits one message per
// topic. A panic in message construction must never take the worker down.
func (d *Dispatcher) dispatch(event Event) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error(context.Background(), "dispatch_panic", "recovered panic in dispatch", fmt.Errorf("panic: %v", rec))
		}
	}()

	switch ev := event.(type) {
	case OrderCreated:
		d.broadcast(TopicAdmin, Message{Event: EventNewOrder, Data: ev.Order})
		d.broadcast(UserTopic(ev.Order.UserID), Message{Event: EventOrderPlaced, Data: ev.Order})

	case OrderStatusChanged:
		tag := StatusEvent(ev.Order.Status)
		d.broadcast(OrderTopic(ev.Order.ID), Message{Event: tag, Data: ev.Order})

		// The user topic gets both the generic and the status-specific shape.
		// Required behavior: differently-shaped client listeners rely on each.
		d.broadcast(UserTopic(ev.Order.UserID), Message{Event: EventStatusUpdated, Data: StatusUpdatePayload{
			OrderID: ev.Order.ID,
			Status:  ev.Order.Status,
			Order:   ev.Order,
		}})
		d.broadcast(UserTopic(ev.Order.UserID), Message{Event: tag, Data: ev.Order})

	default:
		d.logger.Error(context.Background(), "dispatch_unknown_event", "unknown event type", fmt.Errorf("unknown event %T", event))
	}
}

// broadcast sends msg to every current subscriber of topic. Per-subscriber
// failures (a socket that closed between lookup and send) are logged and
// swallowed so the rest of the topic still gets the message.
func (d *Dispatcher) broadcast(topic Topic, msg Message) {
	for _, connID := range d.registry.Subscribers(topic) {
		if err := d.sender.Send(connID, msg); err != nil {
			metrics.NotificationsFailed.Inc()
			d.logger.Debug(context.Background(), "dispatch_send_failed", "dropping message for unreachable connection", map[string]any{
				"topic":         string(topic),
				"connection_id": connID,
				"event":         msg.Event,
				"error":         err.Error(),
			})
			continue
		}
		metrics.NotificationsDelivered.Inc()
	}
}
