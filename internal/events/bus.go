package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher for in-process event broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(ProgressEvent{...})
func (b *Bus) Publish(ev Event) {
	// kelindar/event dispatches on the concrete type, so each event type
	// needs its own Publish call.
	switch e := ev.(type) {
	case ProgressEvent:
		event.Publish(b.dispatcher, e)
	case AssemblyStartedEvent:
		event.Publish(b.dispatcher, e)
	case AssemblyCompletedEvent:
		event.Publish(b.dispatcher, e)
	case DownloadProgressEvent:
		event.Publish(b.dispatcher, e)
	case CyclePhaseChangedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers a handler function; the handler's parameter type
// determines which events it receives. Returns an unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e ProgressEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(ProgressEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(AssemblyStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(AssemblyCompletedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DownloadProgressEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CyclePhaseChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
