// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

// Package eventbus provides a process-wide synchronous
// publish/subscribe registry for lifecycle events.
//
// A Bus is constructed once at process start and handed to whoever
// publishes; subscribers register during the initialization phase,
// before traffic starts. There is no unsubscribe and no deduplication.
package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Kind identifies the kind of lifecycle event.
type Kind string

// Event is a published lifecycle notification.
type Event struct {
	ID        ulid.ULID
	Kind      Kind
	Timestamp time.Time
	Payload   any
}

// Handler observes events of one kind. A handler error propagates to
// the publisher and stops delivery to later handlers.
type Handler func(ctx context.Context, evt Event) error

// Bus distributes events to subscribers synchronously, in
// registration order, on the publishing goroutine.
type Bus struct {
	mu   sync.RWMutex
	subs map[Kind][]Handler
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[Kind][]Handler)}
}

// Subscribe appends a handler to the kind's ordered list.
func (b *Bus) Subscribe(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs[kind] = append(b.subs[kind], h)
}

// Publish invokes every handler registered for the kind, in
// registration order. The first handler error aborts delivery and is
// returned to the publisher, so publishers must treat Publish as a
// fallible step and call it only after all durable side effects are
// final.
func (b *Bus) Publish(ctx context.Context, kind Kind, payload any) error {
	evt := Event{
		ID:        ulid.Make(),
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	b.mu.RLock()
	handlers := b.subs[kind]
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, evt); err != nil {
			return oops.Code("EVENT_HANDLER_FAILED").
				With("kind", string(kind)).
				With("event_id", evt.ID.String()).
				Wrap(err)
		}
	}
	return nil
}
