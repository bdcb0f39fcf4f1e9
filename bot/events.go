// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"sync"

	"github.com/accordlib/accord/interactions"
)

// Listener observes one named event. err is nil except for *_error
// events.
type Listener func(inter *interactions.Interaction, err error)

// eventBus fans invocation lifecycle events out to named listener
// sets. Emission is fire-and-forget: each listener runs on its own
// goroutine and a slow listener never blocks dispatch.
type eventBus struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
}

func newEventBus() *eventBus {
	return &eventBus{listeners: make(map[string][]Listener)}
}

func (b *eventBus) on(event string, listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[event] = append(b.listeners[event], listener)
}

// Emit implements interactions.EventEmitter.
func (b *eventBus) Emit(event string, inter *interactions.Interaction, err error) {
	b.mu.RLock()
	listeners := b.listeners[event]
	snapshot := make([]Listener, len(listeners))
	copy(snapshot, listeners)
	b.mu.RUnlock()

	for _, listener := range snapshot {
		go listener(inter, err)
	}
}
