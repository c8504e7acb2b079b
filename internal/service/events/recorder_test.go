package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/storage/memory"
)

type failingOutbox struct {
	domain.OutboxRepository
	calls int
}

func (f *failingOutbox) Enqueue(context.Context, domain.OutboxMessage) (domain.OutboxMessage, error) {
	f.calls++
	return domain.OutboxMessage{}, errors.New("outbox unavailable")
}

func TestRecorder_RecordEnqueuesJSONPayload(t *testing.T) {
	t.Parallel()

	outbox := memory.NewOutboxRepository()
	recorder := NewRecorder(outbox, nil)

	recorder.Record(context.Background(), domain.AggregateBeer, "beer-1", domain.EventBeerCreated,
		map[string]string{"id": "beer-1", "beerName": "Galaxy Cat"})

	pending, err := outbox.PullPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NotEmpty(t, pending[0].ID)
	require.Equal(t, domain.AggregateBeer, pending[0].AggregateType)
	require.Equal(t, "beer-1", pending[0].AggregateID)
	require.Equal(t, domain.EventBeerCreated, pending[0].EventType)
	require.JSONEq(t, `{"id":"beer-1","beerName":"Galaxy Cat"}`, string(pending[0].Payload))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	t.Parallel()

	var recorder *Recorder
	recorder.Record(context.Background(), domain.AggregateBeer, "beer-1", domain.EventBeerDeleted, nil)

	NewRecorder(nil, nil).Record(context.Background(), domain.AggregateBeer, "beer-1", domain.EventBeerDeleted, nil)
}

func TestRecorder_EnqueueErrorIsSwallowed(t *testing.T) {
	t.Parallel()

	outbox := &failingOutbox{}
	NewRecorder(outbox, nil).Record(context.Background(), domain.AggregateOrder, "order-1", domain.EventOrderCreated, struct{}{})

	require.Equal(t, 1, outbox.calls)
}

func TestRecorder_MarshalErrorSkipsEnqueue(t *testing.T) {
	t.Parallel()

	outbox := &failingOutbox{}
	NewRecorder(outbox, nil).Record(context.Background(), domain.AggregateBeer, "beer-1", domain.EventBeerUpdated, make(chan int))

	require.Zero(t, outbox.calls)
}
