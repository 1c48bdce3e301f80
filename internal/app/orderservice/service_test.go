package orderservice

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortland/backend/internal/domain/orders"
	"github.com/shortland/backend/internal/notify"
	"github.com/shortland/backend/internal/ports"
	"github.com/shortland/backend/internal/shared/logger"
)

// fakeUnitOfWork runs the function directly; there is no real transaction.
type fakeUnitOfWork struct{}

func (fakeUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeOrderRepo is an in-memory ports.OrderRepository. It mimics the real
// adapter's contract: Create stores the order as pending, reads hydrate the
// purchaser summary, and UpdateStatusCAS only applies from the expected state.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]orders.Order

	// forceCASMiss makes the next UpdateStatusCAS report applied=false
	// without touching the stored order, simulating a lost race.
	forceCASMiss bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]orders.Order{}}
}

func (r *fakeOrderRepo) Create(_ context.Context, o *orders.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.Status = orders.StatusPending
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	o.User = &orders.UserSummary{ID: o.UserID, Name: "Test User", Email: "test@example.com"}
	r.orders[o.ID] = *o
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, orderID string) (*orders.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, orders.ErrOrderNotFound
	}
	return &o, nil
}

func (r *fakeOrderRepo) ListByUser(_ context.Context, userID string) ([]orders.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []orders.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListAll(_ context.Context) ([]orders.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]orders.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateStatusCAS(_ context.Context, orderID string, expected, next orders.OrderStatus, _ string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.forceCASMiss {
		r.forceCASMiss = false
		return false, nil
	}
	o, ok := r.orders[orderID]
	if !ok || o.Status != expected {
		return false, nil
	}
	o.Status = next
	o.UpdatedAt = time.Now().UTC()
	r.orders[orderID] = o
	return true, nil
}

// fakeAnnouncer records everything announced, in order.
type fakeAnnouncer struct {
	mu     sync.Mutex
	events []notify.Event
}

func (a *fakeAnnouncer) Announce(event notify.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *fakeAnnouncer) all() []notify.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]notify.Event(nil), a.events...)
}

func newTestService() (*Service, *fakeOrderRepo, *fakeAnnouncer) {
	repo := newFakeOrderRepo()
	announcer := &fakeAnnouncer{}
	svc := New(fakeUnitOfWork{}, repo, announcer, logger.NewLoggerTo("test", io.Discard))
	return svc, repo, announcer
}

func validCommand() ports.CreateOrderCommand {
	return ports.CreateOrderCommand{
		TotalAmount: orders.NewMoneyFromFloat2(12.50),
		Items: []ports.ItemInput{
			{ProductID: "p1", Quantity: 2, UnitPrice: orders.NewMoneyFromFloat2(5.00)},
			{ProductID: "p2", Quantity: 1, UnitPrice: orders.NewMoneyFromFloat2(2.50)},
		},
	}
}

func TestPlaceOrder(t *testing.T) {
	t.Parallel()

	svc, repo, announcer := newTestService()

	placed, err := svc.PlaceOrder(context.Background(), "u1", validCommand())
	require.NoError(t, err)

	assert.NotEmpty(t, placed.ID)
	assert.Equal(t, "u1", placed.UserID)
	assert.Equal(t, orders.StatusPending, placed.Status)
	assert.Len(t, placed.Items, 2)
	require.NotNil(t, placed.User)
	assert.Equal(t, "u1", placed.User.ID)

	stored, err := repo.GetByID(context.Background(), placed.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, stored.Status)

	events := announcer.all()
	require.Len(t, events, 1)
	created, ok := events[0].(notify.OrderCreated)
	require.True(t, ok)
	assert.Equal(t, placed.ID, created.Order.ID)
}

func TestPlaceOrderValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*ports.CreateOrderCommand)
	}{
		{"no items", func(c *ports.CreateOrderCommand) { c.Items = nil }},
		{"zero total", func(c *ports.CreateOrderCommand) { c.TotalAmount = 0 }},
		{"negative total", func(c *ports.CreateOrderCommand) { c.TotalAmount = -100 }},
		{"missing product id", func(c *ports.CreateOrderCommand) { c.Items[0].ProductID = "" }},
		{"zero quantity", func(c *ports.CreateOrderCommand) { c.Items[1].Quantity = 0 }},
		{"negative unit price", func(c *ports.CreateOrderCommand) { c.Items[0].UnitPrice = -1 }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc, repo, announcer := newTestService()
			cmd := validCommand()
			tc.mutate(&cmd)

			_, err := svc.PlaceOrder(context.Background(), "u1", cmd)

			var verr *orders.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Empty(t, announcer.all(), "a rejected order must produce zero notifications")
			all, _ := repo.ListAll(context.Background())
			assert.Empty(t, all)
		})
	}
}

func TestOrderLifecycle(t *testing.T) {
	t.Parallel()

	svc, _, announcer := newTestService()
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, "u1", validCommand())
	require.NoError(t, err)
	require.Equal(t, orders.StatusPending, placed.Status)

	accepted, err := svc.ChangeStatus(ctx, placed.ID, orders.StatusAccepted, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusAccepted, accepted.Status)

	// Backwards moves are rejected.
	_, err = svc.ChangeStatus(ctx, placed.ID, orders.StatusPending, "admin-1")
	require.ErrorIs(t, err, orders.ErrInvalidTransition)

	delivered, err := svc.ChangeStatus(ctx, placed.ID, orders.StatusDelivered, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusDelivered, delivered.Status)

	// Delivered is terminal.
	for _, next := range []orders.OrderStatus{orders.StatusPending, orders.StatusAccepted, orders.StatusDeclined} {
		_, err = svc.ChangeStatus(ctx, placed.ID, next, "admin-1")
		require.ErrorIs(t, err, orders.ErrInvalidTransition)
	}

	// One creation event plus one per successful transition, in order.
	events := announcer.all()
	require.Len(t, events, 3)
	_, ok := events[0].(notify.OrderCreated)
	require.True(t, ok)
	first, ok := events[1].(notify.OrderStatusChanged)
	require.True(t, ok)
	assert.Equal(t, orders.StatusAccepted, first.Order.Status)
	assert.Equal(t, orders.StatusPending, first.Previous)
	second, ok := events[2].(notify.OrderStatusChanged)
	require.True(t, ok)
	assert.Equal(t, orders.StatusDelivered, second.Order.Status)
	assert.Equal(t, orders.StatusAccepted, second.Previous)
}

func TestChangeStatusDecline(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, "u1", validCommand())
	require.NoError(t, err)

	declined, err := svc.ChangeStatus(ctx, placed.ID, orders.StatusDeclined, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusDeclined, declined.Status)

	// Declined is terminal.
	_, err = svc.ChangeStatus(ctx, placed.ID, orders.StatusAccepted, "admin-1")
	require.ErrorIs(t, err, orders.ErrInvalidTransition)
}

func TestChangeStatusOrderNotFound(t *testing.T) {
	t.Parallel()

	svc, _, announcer := newTestService()

	_, err := svc.ChangeStatus(context.Background(), "missing", orders.StatusAccepted, "admin-1")
	require.ErrorIs(t, err, orders.ErrOrderNotFound)
	assert.Empty(t, announcer.all())
}

func TestChangeStatusUnknownStatus(t *testing.T) {
	t.Parallel()

	svc, _, announcer := newTestService()
	placed, err := svc.PlaceOrder(context.Background(), "u1", validCommand())
	require.NoError(t, err)
	announcerBefore := len(announcer.all())

	_, err = svc.ChangeStatus(context.Background(), placed.ID, "shipped", "admin-1")
	require.ErrorIs(t, err, orders.ErrInvalidTransition)
	assert.Len(t, announcer.all(), announcerBefore)
}

func TestChangeStatusLostRace(t *testing.T) {
	t.Parallel()

	svc, repo, announcer := newTestService()
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, "u1", validCommand())
	require.NoError(t, err)
	announcerBefore := len(announcer.all())

	repo.forceCASMiss = true
	_, err = svc.ChangeStatus(ctx, placed.ID, orders.StatusAccepted, "admin-1")
	require.ErrorIs(t, err, orders.ErrInvalidTransition)

	// The losing request announces nothing and leaves the order untouched.
	assert.Len(t, announcer.all(), announcerBefore)
	stored, err := repo.GetByID(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, stored.Status)
}

func TestListUserOrders(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	ctx := context.Background()

	mine, err := svc.PlaceOrder(ctx, "u1", validCommand())
	require.NoError(t, err)
	_, err = svc.PlaceOrder(ctx, "u2", validCommand())
	require.NoError(t, err)

	got, err := svc.ListUserOrders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)

	all, err := svc.ListAllOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPlaceOrderRepoFailure(t *testing.T) {
	t.Parallel()

	repo := &failingOrderRepo{}
	announcer := &fakeAnnouncer{}
	svc := New(fakeUnitOfWork{}, repo, announcer, logger.NewLoggerTo("test", io.Discard))

	_, err := svc.PlaceOrder(context.Background(), "u1", validCommand())
	require.Error(t, err)
	assert.Empty(t, announcer.all(), "a failed write must produce zero notifications")
}

type failingOrderRepo struct {
	fakeOrderRepo
}

func (r *failingOrderRepo) Create(context.Context, *orders.Order) error {
	return errors.New("insert failed")
}
