// Package gateway terminates real-time connections and routes dispatcher
// messages to the sockets currently registered for a topic.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/shortland/backend/internal/notify"
	"github.com/shortland/backend/internal/shared/logger"
	"github.com/shortland/backend/internal/shared/metrics"
)

// command is the client-issuable surface. Actions mirror the storefront
// client: subscribeOrderUpdates / subscribeToOrder register for one order's
// updates, subscribeUserRoom registers the personal channel, subscribeAdmin
// joins the back-office broadcast feed. All are idempotent and return no
// acknowledgment.
type command struct {
	Action  string `json:"action"`
	OrderID string `json:"orderId,omitempty"`
	UserID  string `json:"userId,omitempty"`
}

const (
	actionSubscribeOrderUpdates = "subscribeOrderUpdates"
	actionSubscribeUserRoom     = "subscribeUserRoom"
	actionSubscribeToOrder      = "subscribeToOrder" // alias, used later in the placing-order flow
	actionSubscribeAdmin        = "subscribeAdmin"
)

// Gateway owns the live connections. It mutates the registry on
// connect/subscribe/disconnect and implements notify.Sender for the
// dispatcher's pushes.
type Gateway struct {
	registry *notify.Registry
	logger   *logger.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*connection
}

// New creates a gateway bound to the given registry. CheckOrigin accepts any
// origin; browser clients are expected behind the storefront's CORS policy.
func New(registry *notify.Registry, log *logger.Logger) *Gateway {
	return &Gateway{
		registry: registry,
		logger:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		conns: make(map[string]*connection),
	}
}

// Handler upgrades the request and serves the connection until it drops.
func (g *Gateway) Handler(w http.ResponseWriter, r *http.Request) {
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error(r.Context(), "ws_upgrade_failed", "failed to upgrade connection", err)
		return
	}

	conn := newConnection(uuid.NewString(), ws)

	g.mu.Lock()
	g.conns[conn.id] = conn
	g.mu.Unlock()
	metrics.ActiveConnections.Inc()

	g.logger.Debug(r.Context(), "ws_connected", "client connected", map[string]any{"connection_id": conn.id})

	go conn.writePump()
	g.readLoop(r.Context(), conn)

	// Unconditional cleanup: drop every subscription, then forget the socket.
	g.registry.DropConnection(conn.id)
	g.mu.Lock()
	delete(g.conns, conn.id)
	g.mu.Unlock()
	conn.close()
	metrics.ActiveConnections.Dec()

	g.logger.Debug(r.Context(), "ws_disconnected", "client disconnected", map[string]any{"connection_id": conn.id})
}

// readLoop consumes client commands until the socket dies. There are no
// implicit subscriptions: interest must be declared after every (re)connect.
func (g *Gateway) readLoop(ctx context.Context, conn *connection) {
	conn.ws.SetReadLimit(maxCommandSize)
	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			return
		}

		var cmd command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			g.logger.Debug(ctx, "ws_bad_command", "ignoring malformed command", map[string]any{
				"connection_id": conn.id,
				"error":         err.Error(),
			})
			continue
		}
		g.apply(ctx, conn.id, cmd)
	}
}

func (g *Gateway) apply(ctx context.Context, connID string, cmd command) {
	switch cmd.Action {
	case actionSubscribeOrderUpdates, actionSubscribeToOrder:
		if cmd.OrderID == "" {
			return
		}
		g.registry.Subscribe(connID, notify.OrderTopic(cmd.OrderID))
		g.logger.Debug(ctx, "ws_subscribed", "subscribed to order topic", map[string]any{
			"connection_id": connID,
			"order_id":      cmd.OrderID,
		})

	case actionSubscribeUserRoom:
		if cmd.UserID == "" {
			return
		}
		// No ownership check against the authenticated caller here; that
		// trust boundary belongs to the caller. Documented behavior.
		g.registry.Subscribe(connID, notify.UserTopic(cmd.UserID))
		g.logger.Debug(ctx, "ws_subscribed", "subscribed to user topic", map[string]any{
			"connection_id": connID,
			"user_id":       cmd.UserID,
		})

	case actionSubscribeAdmin:
		// Same trust model as the user room: the socket carries no auth, so
		// joining the feed is open. New-order payloads hold nothing an order
		// or user subscription would not also reveal.
		g.registry.Subscribe(connID, notify.TopicAdmin)
		g.logger.Debug(ctx, "ws_subscribed", "subscribed to admin feed", map[string]any{
			"connection_id": connID,
		})

	default:
		g.logger.Debug(ctx, "ws_unknown_action", "ignoring unknown command", map[string]any{
			"connection_id": connID,
			"cmd_action":    cmd.Action,
		})
	}
}

// Send implements notify.Sender. Marshal failures and unknown connections
// come back as errors; the dispatcher swallows them per subscriber.
func (g *Gateway) Send(connID string, msg notify.Message) error {
	g.mu.RLock()
	conn, ok := g.conns[connID]
	g.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown connection %s", connID)
	}

	frame, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return conn.enqueue(frame)
}

// Close tears down every live connection. Used on shutdown.
func (g *Gateway) Close() {
	g.mu.Lock()
	conns := make([]*connection, 0, len(g.conns))
	for _, c := range g.conns {
		conns = append(conns, c)
	}
	g.conns = make(map[string]*connection)
	g.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
}
