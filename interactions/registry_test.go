// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package interactions

import (
	"context"
	"errors"
	"testing"

	"github.com/accordlib/accord/lib/ref"
	"github.com/accordlib/accord/rest"
)

func nopHandler(ctx context.Context, inter *Interaction) error { return nil }

func TestRegistryAddAndGet(t *testing.T) {
	registry := NewRegistry()
	command := &Command{Name: "ping", Description: "pong", Handler: nopHandler}
	if err := registry.Add(command); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got := registry.Get("ping", rest.ChatInput, ref.GuildID{})
	if got != command {
		t.Fatalf("Get returned %+v", got)
	}
	if registry.Get("ping", rest.User, ref.GuildID{}) != nil {
		t.Error("a slash command must not be visible under the user type")
	}
}

func TestRegistryDuplicateKey(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Add(&Command{Name: "ping", Description: "pong", Handler: nopHandler}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	err := registry.Add(&Command{Name: "ping", Description: "other", Handler: nopHandler})
	var regErr *RegistrationError
	if !errors.As(err, &regErr) {
		t.Fatalf("expected *RegistrationError, got %v", err)
	}
	if regErr.Name != "ping" || regErr.Type != rest.ChatInput {
		t.Errorf("unexpected error detail: %+v", regErr)
	}
}

func TestRegistrySameNameDifferentTypesCoexist(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Add(&Command{Name: "report", Description: "report a message", Handler: nopHandler}); err != nil {
		t.Fatalf("slash Add: %v", err)
	}
	if err := registry.Add(&Command{Name: "report", Type: rest.User, Handler: nopHandler}); err != nil {
		t.Fatalf("user Add: %v", err)
	}
	if err := registry.Add(&Command{Name: "report", Type: rest.Message, Handler: nopHandler}); err != nil {
		t.Fatalf("message Add: %v", err)
	}
	if len(registry.All()) != 3 {
		t.Errorf("expected 3 registered commands, got %d", len(registry.All()))
	}
}

func TestRegistryMultiGuildConflictLeavesNothingBehind(t *testing.T) {
	registry := NewRegistry()
	guildA := ref.GuildID{Snowflake: 100}
	guildB := ref.GuildID{Snowflake: 200}

	if err := registry.Add(&Command{Name: "mod", Description: "m", Handler: nopHandler, GuildIDs: []ref.GuildID{guildB}}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Conflicts on guildB, so the guildA key must not be inserted either.
	err := registry.Add(&Command{Name: "mod", Description: "m2", Handler: nopHandler, GuildIDs: []ref.GuildID{guildA, guildB}})
	if err == nil {
		t.Fatal("expected a conflict on guildB")
	}
	if registry.Get("mod", rest.ChatInput, guildA) != nil {
		t.Error("partial insertion: guildA key exists after a failed Add")
	}
}

func TestRegistryValidationErrors(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Add(&Command{Name: "bare", Handler: nopHandler}); err == nil {
		t.Error("slash command without a description must be rejected")
	}
	if err := registry.Add(&Command{Name: "mute", Description: "m"}); err == nil {
		t.Error("command without a handler must be rejected")
	}
	if err := registry.Add(&Command{Name: "ctx", Type: rest.User, Description: "nope", Handler: nopHandler}); err == nil {
		t.Error("context-menu command with a description must be rejected")
	}
	if err := registry.Add(nil); err == nil {
		t.Error("nil command must be rejected")
	}
}

func TestRegistryRemove(t *testing.T) {
	registry := NewRegistry()
	command := &Command{Name: "ping", Description: "pong", Handler: nopHandler}
	if err := registry.Add(command); err != nil {
		t.Fatalf("Add: %v", err)
	}

	removed := registry.Remove("ping", rest.ChatInput, ref.GuildID{})
	if removed != command {
		t.Fatalf("Remove returned %+v", removed)
	}
	if registry.Get("ping", rest.ChatInput, ref.GuildID{}) != nil {
		t.Error("command still resolvable after Remove")
	}
	if registry.Remove("ping", rest.ChatInput, ref.GuildID{}) != nil {
		t.Error("removing a missing command must return nil")
	}
	if len(registry.All()) != 0 {
		t.Errorf("registry not empty: %d", len(registry.All()))
	}
}

func TestRegistryRemoveKeepsRemainingGuildKeys(t *testing.T) {
	registry := NewRegistry()
	guildA := ref.GuildID{Snowflake: 100}
	guildB := ref.GuildID{Snowflake: 200}
	command := &Command{Name: "mod", Description: "m", Handler: nopHandler, GuildIDs: []ref.GuildID{guildA, guildB}}
	if err := registry.Add(command); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if registry.Remove("mod", rest.ChatInput, guildA) != command {
		t.Fatal("Remove(guildA) should return the command")
	}
	if registry.Get("mod", rest.ChatInput, guildB) != command {
		t.Error("guildB key must survive removal of the guildA key")
	}
	if len(registry.All()) != 1 {
		t.Error("the command still holds a key and must stay in All()")
	}

	registry.Remove("mod", rest.ChatInput, guildB)
	if len(registry.All()) != 0 {
		t.Error("the command should leave All() once its last key is removed")
	}
}

func TestRegistryFindByID(t *testing.T) {
	registry := NewRegistry()
	command := &Command{Name: "ping", Description: "pong", Handler: nopHandler}
	if err := registry.Add(command); err != nil {
		t.Fatalf("Add: %v", err)
	}

	id := ref.CommandID{Snowflake: 42}
	if registry.FindByID(id) != nil {
		t.Error("no command should match before the ID is assigned")
	}
	registry.setID(command, id)
	if registry.FindByID(id) != command {
		t.Error("FindByID should resolve the assigned ID")
	}
	if command.ID() != id {
		t.Errorf("ID() = %v", command.ID())
	}
}

func TestRegistryAllPreservesInsertionOrder(t *testing.T) {
	registry := NewRegistry()
	names := []string{"alpha", "beta", "gamma"}
	for _, name := range names {
		if err := registry.Add(&Command{Name: name, Description: "d", Handler: nopHandler}); err != nil {
			t.Fatalf("Add(%s): %v", name, err)
		}
	}
	for i, command := range registry.All() {
		if command.Name != names[i] {
			t.Errorf("position %d: got %s, want %s", i, command.Name, names[i])
		}
	}
}
