// Package messaging implements the in-process event bus behind
// shared.EventPublisher. Handler failures are logged and dropped; the bus
// never feeds errors back into the publishing command.
package messaging

import (
	"sync"
	"time"

	"github.com/learnforge/learnforge-hub/internal/domain/shared"
	"github.com/learnforge/learnforge-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus delivers events to subscribed handlers. Delivery is
// asynchronous through a bounded worker pool; a slow handler delays other
// events but never the publisher.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	handlers map[shared.EventType][]shared.EventHandler
	closed   bool

	workerPool chan struct{}
	wg         sync.WaitGroup
	log        *logger.Logger
}

// InMemoryEventBusConfig contains configuration for InMemoryEventBus.
type InMemoryEventBusConfig struct {
	// WorkerPoolSize bounds concurrent handler executions.
	WorkerPoolSize int

	// Logger for handler failures. Nil disables logging.
	Logger *logger.Logger
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(config InMemoryEventBusConfig) *InMemoryEventBus {
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}
	return &InMemoryEventBus{
		handlers:   make(map[shared.EventType][]shared.EventHandler),
		workerPool: make(chan struct{}, config.WorkerPoolSize),
		log:        config.Logger,
	}
}

// Subscribe registers a handler for one event type. Subscribing after Close
// is a no-op.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeTypes registers a handler for several event types at once.
func (b *InMemoryEventBus) SubscribeTypes(handler shared.EventHandler, types ...shared.EventType) {
	for _, t := range types {
		b.Subscribe(t, handler)
	}
}

// Publish implements shared.EventPublisher. Delivery is best-effort and
// asynchronous; Publish never blocks on handler execution.
func (b *InMemoryEventBus) Publish(event shared.Event) {
	if event == nil {
		return
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	handlers := make([]shared.EventHandler, len(b.handlers[event.EventType()]))
	copy(handlers, b.handlers[event.EventType()])
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.dispatch(event, handler)
	}
}

// dispatch runs one handler on the worker pool with panic recovery.
// The slot acquire blocks until a running handler releases one, so every
// event accepted by Publish is delivered even when Close follows
// immediately. Close waits on the WaitGroup, which this goroutine joined
// before Publish returned.
func (b *InMemoryEventBus) dispatch(event shared.Event, handler shared.EventHandler) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		b.workerPool <- struct{}{}
		defer func() { <-b.workerPool }()

		defer func() {
			if r := recover(); r != nil && b.log != nil {
				b.log.Error("event handler panicked",
					logger.F("handler", handler.Name()),
					logger.F("event_type", string(event.EventType())),
					logger.F("panic", r),
				)
			}
		}()

		start := time.Now()
		if err := handler.Handle(event); err != nil && b.log != nil {
			b.log.Warn("event handler failed",
				logger.F("handler", handler.Name()),
				logger.F("event_type", string(event.EventType())),
				logger.F("duration_ms", time.Since(start).Milliseconds()),
				logger.F("error", err.Error()),
			)
		}
	}()
}

// Close stops accepting events and waits for every event accepted before
// the close, including dispatches still waiting for a worker slot.
func (b *InMemoryEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.wg.Wait()
}
