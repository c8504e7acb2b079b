package order

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/service/events"
	"github.com/vladislavdragonenkov/catalog/internal/storage/memory"
)

type fixture struct {
	store    *memory.Store
	outbox   *memory.OutboxRepository
	svc      *Service
	customer domain.Customer
	beer     domain.Beer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	outbox := memory.NewOutboxRepository()
	seq := 0
	svc := NewService(store.Orders(),
		WithEvents(events.NewRecorder(outbox, nil)),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)

	customer, err := store.Customers().Create(ctx, domain.Customer{ID: "customer-1", Name: "Customer 1"})
	require.NoError(t, err)
	beer, err := store.Beers().Create(ctx, domain.Beer{ID: "beer-1", Name: "Crank", Style: domain.BeerStyleIPA, UPC: "1"})
	require.NoError(t, err)

	return &fixture{store: store, outbox: outbox, svc: svc, customer: customer, beer: beer}
}

func (f *fixture) input(tracking string) domain.OrderInput {
	return domain.OrderInput{
		CustomerID:     f.customer.ID,
		CustomerRef:    "Test order",
		Lines:          []domain.OrderLineInput{{BeerID: f.beer.ID, OrderQuantity: 3}},
		TrackingNumber: tracking,
	}
}

func TestService_CreateOrderWithShipment(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateOrder(ctx, f.input("123456"))
	require.NoError(t, err)
	require.Equal(t, "id-1", created.ID)
	require.Len(t, created.Lines, 1)
	require.Equal(t, "id-2", created.Lines[0].ID)
	require.NotNil(t, created.Shipment)
	require.Equal(t, "123456", created.Shipment.TrackingNumber)

	got, err := f.svc.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Shipment.ID, got.Shipment.ID)
	require.Equal(t, "Test order", got.CustomerRef)

	pending, err := f.outbox.PullPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, domain.EventOrderCreated, pending[0].EventType)

	var event orderEvent
	require.NoError(t, json.Unmarshal(pending[0].Payload, &event))
	require.Equal(t, "123456", event.TrackingNumber)
	require.Equal(t, []orderLineEvent{{BeerID: f.beer.ID, OrderQuantity: 3}}, event.Lines)
}

func TestService_CreateOrderWithoutShipment(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	created, err := f.svc.CreateOrder(context.Background(), f.input(""))
	require.NoError(t, err)
	require.Nil(t, created.Shipment)
}

func TestService_CreateOrderReferences(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	in := f.input("")
	in.CustomerID = "missing"
	_, err := f.svc.CreateOrder(ctx, in)
	require.ErrorIs(t, err, domain.ErrValidationFailed)
	require.Equal(t, "customerId", domain.FieldErrors(err)[0].Field)

	in = f.input("")
	in.Lines[0].BeerID = "missing"
	_, err = f.svc.CreateOrder(ctx, in)
	require.ErrorIs(t, err, domain.ErrValidationFailed)
	require.Equal(t, "lines.beerId", domain.FieldErrors(err)[0].Field)

	_, err = f.svc.CreateOrder(ctx, domain.OrderInput{CustomerID: f.customer.ID})
	require.ErrorIs(t, err, domain.ErrValidationFailed)
	require.Equal(t, "lines", domain.FieldErrors(err)[0].Field)
}

func TestService_DeleteOrderKeepsBeerAndCustomer(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateOrder(ctx, f.input("123456"))
	require.NoError(t, err)

	err = f.store.Beers().Delete(ctx, f.beer.ID)
	require.ErrorIs(t, err, domain.ErrBeerInUse)

	require.NoError(t, f.svc.DeleteOrder(ctx, created.ID))

	_, err = f.svc.GetOrder(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
	_, err = f.store.Beers().Get(ctx, f.beer.ID)
	require.NoError(t, err)
	_, err = f.store.Customers().Get(ctx, f.customer.ID)
	require.NoError(t, err)

	err = f.svc.DeleteOrder(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestService_ListCustomerOrders(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateOrder(ctx, f.input(""))
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, f.input(""))
	require.NoError(t, err)

	orders, err := f.svc.ListCustomerOrders(ctx, f.customer.ID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	ids := []string{orders[0].ID, orders[1].ID}
	require.ElementsMatch(t, []string{first.ID, second.ID}, ids)

	_, err = f.svc.ListCustomerOrders(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)
}
