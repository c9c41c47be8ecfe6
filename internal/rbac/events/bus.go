// Package events is an in-process post-commit event bus. Services publish
// after their primary write has succeeded; handler failures are logged and
// never reach the publisher.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Event types
const (
	ResourceTypeCreated = "resource_type.created"
	ResourceTypeUpdated = "resource_type.updated"
	ProductCreated      = "product.created"
	ProductUpdated      = "product.updated"
	ProductDeleted      = "product.deleted"
)

// Event is a committed mutation.
type Event struct {
	Type    string
	ActorID string
	Payload any
}

// Handler processes one event.
type Handler func(ctx context.Context, event Event) error

// Publisher is what services depend on.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers handler for eventType. Handlers run in subscription order.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish runs every handler for the event synchronously on the caller's goroutine.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	for i, h := range handlers {
		if err := b.run(ctx, h, event); err != nil {
			b.logger.Error("event handler failed",
				slog.String("event_type", event.Type),
				slog.Int("handler", i),
				slog.Any("error", err),
			)
		}
	}
}

func (b *Bus) run(ctx context.Context, h Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, event)
}
