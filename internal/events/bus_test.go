package events_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/ghost/internal/events"
)

func newTestBus(t *testing.T, bufferSize int) *events.Bus {
	return events.NewBus(zaptest.NewLogger(t), bufferSize)
}

func TestBus_PublishDeliversToMatchingSubscribers(t *testing.T) {
	b := newTestBus(t, 4)
	defer b.Shutdown()

	cursor, unsubCursor := b.Subscribe(events.TypeCursor)
	defer unsubCursor()
	labels, unsubLabels := b.Subscribe(events.TypeLabel)
	defer unsubLabels()

	require.NoError(t, b.Publish(context.Background(), events.TypeCursor, events.CursorMoved{}))

	select {
	case ev := <-cursor:
		assert.Equal(t, events.TypeCursor, ev.Type)
		assert.NotEmpty(t, ev.ID)
	case <-time.After(time.Second):
		t.Fatal("cursor event not delivered")
	}

	select {
	case ev := <-labels:
		t.Fatalf("label subscriber received unexpected %s", ev.Type)
	default:
	}
}

func TestBus_PublishCancellation(t *testing.T) {
	b := newTestBus(t, 0)
	defer b.Shutdown()

	ch, unsubscribe := b.Subscribe(events.TypeMessage)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- b.Publish(ctx, events.TypeMessage, "hi") }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Publish did not return after cancellation")
	}

	select {
	case <-ch:
		t.Error("event should not have been delivered")
	default:
	}
}

func TestBus_OfferNeverBlocks(t *testing.T) {
	b := newTestBus(t, 1)
	defer b.Shutdown()

	_, unsubscribe := b.Subscribe(events.TypeCursor)
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Offer(events.TypeCursor, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Offer blocked on a full subscriber")
	}
	assert.Equal(t, uint64(9), b.Dropped())
}

func TestBus_Unsubscribe(t *testing.T) {
	b := newTestBus(t, 1)
	defer b.Shutdown()

	ch, unsubscribe := b.Subscribe(events.TypeLog)
	unsubscribe()

	b.Offer(events.TypeLog, "x")
	select {
	case <-ch:
		t.Error("unsubscribed channel received an event")
	default:
	}
}

func TestBus_ShutdownClosesSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := newTestBus(t, 8)
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		ch, _ := b.Subscribe(events.All()...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range ch {
			}
		}()
	}

	for i := 0; i < 100; i++ {
		b.Offer(events.TypeQueue, i)
	}

	b.Shutdown()
	b.Shutdown()
	wg.Wait()

	assert.ErrorIs(t, b.Publish(context.Background(), events.TypeQueue, 1), events.ErrClosed)

	ch, unsubscribe := b.Subscribe(events.TypeQueue)
	unsubscribe()
	_, ok := <-ch
	assert.False(t, ok, "subscribing after shutdown yields a closed channel")
}
