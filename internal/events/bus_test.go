package events

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	db := setupTestDB(t)
	log := NewEventLog(db)
	bus := NewBus(log, nil)
	defer bus.Close()

	ch := bus.Subscribe("test.created", 10)

	e := &testEvent{BaseEvent: NewBaseEvent("test.created", EntityEpisode, "ep-1", "run-1"), Message: "hello"}
	err := bus.Publish(context.Background(), e)
	require.NoError(t, err)

	select {
	case received := <-ch:
		assert.Equal(t, "test.created", received.EventType())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// Persisted before delivery
	events, err := log.ForRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestBus_SubscribeAll(t *testing.T) {
	db := setupTestDB(t)
	bus := NewBus(NewEventLog(db), nil)
	defer bus.Close()

	ch := bus.SubscribeAll(10)

	e1 := &testEvent{BaseEvent: NewBaseEvent("test.first", EntityEpisode, "ep-1", "run-1"), Message: "first"}
	e2 := &testEvent{BaseEvent: NewBaseEvent("test.second", EntityEpisode, "ep-2", "run-1"), Message: "second"}

	require.NoError(t, bus.Publish(context.Background(), e1))
	require.NoError(t, bus.Publish(context.Background(), e2))

	received := make([]Event, 0, 2)
	timeout := time.After(time.Second)
	for i := 0; i < 2; i++ {
		select {
		case e := <-ch:
			received = append(received, e)
		case <-timeout:
			t.Fatalf("timeout waiting for event %d", i+1)
		}
	}

	assert.Len(t, received, 2)
}

func TestBus_SubscribeRun(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.SubscribeRun("run-b", 10)

	for _, run := range []string{"run-a", "run-b", "run-a", "run-b"} {
		e := &testEvent{BaseEvent: NewBaseEvent("test.event", EntityEpisode, "ep-1", run), Message: run}
		require.NoError(t, bus.Publish(context.Background(), e))
	}

	timeout := time.After(time.Second)
	for i := 0; i < 2; i++ {
		select {
		case e := <-ch:
			assert.Equal(t, "run-b", e.RunID())
		case <-timeout:
			t.Fatalf("timeout waiting for event %d", i+1)
		}
	}

	select {
	case e := <-ch:
		t.Fatalf("unexpected event from %s", e.RunID())
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_UnsubscribeRun(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.SubscribeRun("run-1", 10)
	bus.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("run channel was not closed")
	}
}

func TestBus_SubscribeRunAfterClose(t *testing.T) {
	bus := NewBus(nil, nil)
	require.NoError(t, bus.Close())

	ch := bus.SubscribeRun("run-1", 1)
	_, ok := <-ch
	assert.False(t, ok)
}

func TestBus_Unsubscribe(t *testing.T) {
	db := setupTestDB(t)
	bus := NewBus(NewEventLog(db), nil)
	defer bus.Close()

	ch := bus.Subscribe("test.event", 10)
	bus.Unsubscribe(ch)

	// Publish does not block with no subscribers
	e := &testEvent{BaseEvent: NewBaseEvent("test.event", EntityEpisode, "ep-1", "run-1"), Message: "hello"}
	require.NoError(t, bus.Publish(context.Background(), e))

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")
}

func TestBus_PublishAfterClose(t *testing.T) {
	bus := NewBus(nil, nil)
	ch := bus.SubscribeAll(1)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	e := &testEvent{BaseEvent: NewBaseEvent("test.event", EntityEpisode, "ep-1", "run-1")}
	require.NoError(t, bus.Publish(context.Background(), e))

	_, ok := <-ch
	assert.False(t, ok)
}

func TestBus_FullSubscriberDropsEvent(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.Subscribe("test.event", 1)
	for i := 0; i < 3; i++ {
		e := &testEvent{BaseEvent: NewBaseEvent("test.event", EntityEpisode, "ep-1", "run-1"), Message: fmt.Sprint(i)}
		require.NoError(t, bus.Publish(context.Background(), e))
	}

	first := (<-ch).(*testEvent)
	assert.Equal(t, "0", first.Message)
	select {
	case <-ch:
		t.Fatal("expected later events to be dropped")
	default:
	}
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.SubscribeAll(100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			e := &testEvent{BaseEvent: NewBaseEvent("test.concurrent", EntityEpisode, fmt.Sprintf("ep-%d", n), "run-1"), Message: "concurrent"}
			_ = bus.Publish(context.Background(), e)
		}(i)
	}

	wg.Wait()

	count := 0
	timeout := time.After(time.Second)
loop:
	for {
		select {
		case <-ch:
			count++
			if count == 10 {
				break loop
			}
		case <-timeout:
			break loop
		}
	}

	assert.Equal(t, 10, count)
}
