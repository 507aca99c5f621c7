package event

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/taskgraph/internal/logging"
	"github.com/Iron-Ham/taskgraph/internal/task"
)

func TestBus_SubscribeAndPublish(t *testing.T) {
	bus := NewBus(nil)

	var got Event
	id := bus.Subscribe(TypeTaskCreated, func(e Event) { got = e })
	if id == "" {
		t.Fatal("Subscribe should return a non-empty ID")
	}
	if bus.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", bus.SubscriptionCount())
	}

	at := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	bus.Publish(NewTaskCreatedEvent(task.Task{ID: "3"}, at))

	created, ok := got.(TaskCreatedEvent)
	if !ok {
		t.Fatalf("handler received %T", got)
	}
	if created.Task.ID != "3" || !created.Timestamp().Equal(at) {
		t.Errorf("event = %+v", created)
	}
}

func TestBus_OrderingSpecificThenWildcard(t *testing.T) {
	bus := NewBus(nil)

	var order []string
	bus.SubscribeAll(func(e Event) { order = append(order, "all") })
	bus.Subscribe(TypeTaskExpanded, func(e Event) { order = append(order, "specific-1") })
	bus.Subscribe(TypeTaskExpanded, func(e Event) { order = append(order, "specific-2") })
	bus.Subscribe(TypeTaskUpdated, func(e Event) { order = append(order, "other") })

	bus.Publish(NewTaskExpandedEvent("1", []string{"1.1"}, time.Time{}))

	want := []string{"specific-1", "specific-2", "all"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestBus_PublishAll(t *testing.T) {
	bus := NewBus(nil)

	var types []string
	bus.SubscribeAll(func(e Event) { types = append(types, e.EventType()) })

	bus.PublishAll([]Event{
		NewTaskStatusChangedEvent("1.1", task.StatusTodo, task.StatusDone, false, time.Time{}),
		NewTaskStatusChangedEvent("1", task.StatusTodo, task.StatusDone, true, time.Time{}),
		NewStoreLoadedEvent(2, time.Time{}),
	})

	want := []string{TypeTaskStatusChanged, TypeTaskStatusChanged, TypeStoreLoaded}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Errorf("types = %v, want %v", types, want)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil)

	calls := 0
	keep := bus.Subscribe(TypeTaskUpdated, func(e Event) { calls++ })
	drop := bus.Subscribe(TypeTaskUpdated, func(e Event) { calls += 100 })

	if !bus.Unsubscribe(drop) {
		t.Fatal("Unsubscribe should find the subscription")
	}
	if bus.Unsubscribe(drop) {
		t.Error("second Unsubscribe should report false")
	}
	if bus.Unsubscribe("missing") {
		t.Error("unknown id should report false")
	}

	bus.Publish(NewTaskUpdatedEvent("1", []string{"name"}, time.Time{}))
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}

	bus.Unsubscribe(keep)
	if bus.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", bus.SubscriptionCount())
	}
}

func TestBus_Clear(t *testing.T) {
	bus := NewBus(nil)
	bus.Subscribe(TypeTaskCreated, func(Event) {})
	bus.SubscribeAll(func(Event) {})

	bus.Clear()
	if bus.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after Clear", bus.SubscriptionCount())
	}
}

func TestBus_HandlerPanicRecovery(t *testing.T) {
	var buf bytes.Buffer
	bus := NewBus(logging.NewWriterLogger(&buf, logging.LevelError))

	reached := false
	bus.Subscribe(TypeStoreLoaded, func(Event) { panic("boom") })
	bus.Subscribe(TypeStoreLoaded, func(Event) { reached = true })

	bus.Publish(NewStoreLoadedEvent(0, time.Time{}))

	if !reached {
		t.Error("handlers after a panicking one should still run")
	}
	if !strings.Contains(buf.String(), "event handler panicked") {
		t.Errorf("panic should be logged, log = %q", buf.String())
	}
}

func TestBus_UniqueIDs(t *testing.T) {
	bus := NewBus(nil)
	seen := make(map[string]bool)
	for range 1000 {
		id := bus.Subscribe(TypeTaskCreated, func(Event) {})
		if seen[id] {
			t.Fatalf("duplicate subscription id %q", id)
		}
		seen[id] = true
	}
}

func TestBus_ConcurrentPublishAndSubscribe(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	count := 0
	bus.SubscribeAll(func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 50 {
				bus.Publish(NewTaskUpdatedEvent("1", nil, time.Time{}))
			}
		}()
		go func() {
			defer wg.Done()
			for range 50 {
				id := bus.Subscribe(TypeSnapshotSaved, func(Event) {})
				bus.Unsubscribe(id)
			}
		}()
	}
	wg.Wait()

	if count != 500 {
		t.Errorf("wildcard handler ran %d times, want 500", count)
	}
}

func TestNewBaseEventDefaultsTimestamp(t *testing.T) {
	before := time.Now()
	e := NewSnapshotSavedEvent("/tmp/x.json", "rev", 3, time.Time{})
	if e.Timestamp().Before(before) {
		t.Error("zero time should default to now")
	}
	if e.EventType() != TypeSnapshotSaved || e.TaskCount != 3 {
		t.Errorf("event = %+v", e)
	}

	d := NewDependenciesChangedEvent("2", []string{"1"}, nil, before)
	if d.EventType() != TypeDependenciesChanged || !d.Timestamp().Equal(before) {
		t.Errorf("event = %+v", d)
	}
}
