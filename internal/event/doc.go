// Package event provides a synchronous pub-sub bus and the events the task
// graph emits, so observers (the watch view, loggers, snapshot writers) can
// follow store changes without the store knowing about them.
//
// # Main Types
//
//   - [Event]: interface with EventType() and Timestamp()
//   - [Bus]: synchronous dispatcher, safe for concurrent use
//   - [Handler]: func(Event)
//
// # Events
//
//   - [TaskCreatedEvent] "task.created"
//   - [TaskUpdatedEvent] "task.updated"
//   - [TaskStatusChangedEvent] "task.status_changed", explicit or propagated
//   - [DependenciesChangedEvent] "task.dependencies_changed"
//   - [TaskExpandedEvent] "task.expanded"
//   - [StoreLoadedEvent] "store.loaded"
//   - [SnapshotSavedEvent] "snapshot.saved"
//
// # Usage
//
//	bus := event.NewBus(logger)
//	bus.Subscribe(event.TypeTaskStatusChanged, func(e event.Event) {
//	    sc := e.(event.TaskStatusChangedEvent)
//	    fmt.Println(sc.TaskID, sc.From, "->", sc.To)
//	})
//
// Handlers run on the publishing goroutine after the store has released its
// lock, so they may read from the store.
package event
