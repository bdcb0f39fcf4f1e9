// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package interactions

import (
	"fmt"
	"sync"

	"github.com/accordlib/accord/lib/ref"
	"github.com/accordlib/accord/rest"
)

// CommandKey is the local identity of a declared command. A zero
// GuildID means the global scope.
type CommandKey struct {
	Name    string
	Type    rest.CommandType
	GuildID ref.GuildID
}

// Registry holds the locally declared application commands, keyed by
// (name, type, guild scope). A command scoped to several guilds
// occupies one key per guild; all keys resolve to the same *Command.
//
// Iteration order matters: guild scopes are synchronized in the order
// commands were registered, so the registry preserves insertion order
// rather than relying on map iteration.
type Registry struct {
	mu      sync.RWMutex
	entries map[CommandKey]*Command
	// ordered lists distinct commands in registration order.
	ordered []*Command
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[CommandKey]*Command)}
}

// Add registers a command under its global key or one key per
// declared guild. Returns a *RegistrationError if any key is already
// taken; on conflict nothing is inserted.
func (r *Registry) Add(command *Command) error {
	if command == nil {
		return fmt.Errorf("interactions: nil command")
	}
	if err := command.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	keys := command.keys()
	for _, key := range keys {
		if _, exists := r.entries[key]; exists {
			return &RegistrationError{Name: key.Name, Type: key.Type, GuildID: key.GuildID}
		}
	}
	for _, key := range keys {
		r.entries[key] = command
	}
	r.ordered = append(r.ordered, command)
	return nil
}

// Remove unregisters the command under one key. Returns the removed
// command, or nil if the key was not registered — removing a
// nonexistent key is not an error.
func (r *Registry) Remove(name string, commandType rest.CommandType, guild ref.GuildID) *Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := CommandKey{Name: name, Type: normalizeType(commandType), GuildID: guild}
	command, exists := r.entries[key]
	if !exists {
		return nil
	}
	delete(r.entries, key)

	// Drop the command from the ordered list only once no key
	// references it anymore (a multi-guild command remains registered
	// under its other guilds).
	for _, remaining := range r.entries {
		if remaining == command {
			return command
		}
	}
	for index, candidate := range r.ordered {
		if candidate == command {
			r.ordered = append(r.ordered[:index], r.ordered[index+1:]...)
			break
		}
	}
	return command
}

// Get returns the command registered under (name, type, guild), or
// nil.
func (r *Registry) Get(name string, commandType rest.CommandType, guild ref.GuildID) *Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[CommandKey{Name: name, Type: normalizeType(commandType), GuildID: guild}]
}

// All returns the distinct registered commands in registration order.
func (r *Registry) All() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Command, len(r.ordered))
	copy(result, r.ordered)
	return result
}

// FindByID returns the command whose platform-assigned ID matches,
// or nil. IDs are only present after a successful sync back-fill.
func (r *Registry) FindByID(id ref.CommandID) *Command {
	if id.IsZero() {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, command := range r.ordered {
		if command.id == id {
			return command
		}
	}
	return nil
}

// setID back-fills a platform-assigned ID. Called by the syncer.
func (r *Registry) setID(command *Command, id ref.CommandID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	command.id = id
}

// clearID drops a stale assigned ID. Called by the syncer when the
// remote command behind it no longer exists.
func (r *Registry) clearID(command *Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	command.id = ref.CommandID{}
}
