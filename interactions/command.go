// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package interactions

import (
	"bytes"
	"context"
	"fmt"
	"maps"

	"github.com/accordlib/accord/lib/ref"
	"github.com/accordlib/accord/rest"
)

// Handler is a command's invocation callback. A returned error that
// belongs to the [CommandError] taxonomy is routed through the error
// handler chain; any other error propagates out of dispatch.
type Handler func(ctx context.Context, inter *Interaction) error

// ErrorHandler receives invocation failures for a command or
// category.
type ErrorHandler func(ctx context.Context, inter *Interaction, err CommandError)

// Autocompleter produces suggestions for the focused option of an
// autocomplete interaction.
type Autocompleter func(ctx context.Context, inter *Interaction) ([]rest.OptionChoice, error)

// Command is a locally-declared application command: the descriptor
// pushed to the platform during synchronization plus the callbacks
// run at dispatch time.
type Command struct {
	// Name is the command name. Required.
	Name string
	// Type selects the command category. The zero value means
	// ChatInput.
	Type rest.CommandType
	// Description is shown in the client UI. Required for ChatInput
	// commands; must be empty for User and Message commands.
	Description string
	// Options is the declared parameter schema (ChatInput only).
	Options []rest.Option
	// GuildIDs scopes the command to specific guilds. Empty means
	// global (or the configured test guilds, when set).
	GuildIDs []ref.GuildID
	// AutoSync controls whether synchronization manages this command.
	// Nil means true. A command with AutoSync disabled is never
	// compared against remote state — it is treated as always in sync.
	AutoSync *bool

	// DMPermission mirrors the platform field; nil means the platform
	// default. Global scope only.
	DMPermission *bool
	// DefaultMemberPermissions is a permission bit set as a decimal
	// string; nil means unrestricted.
	DefaultMemberPermissions *string

	NameLocalizations        map[string]string
	DescriptionLocalizations map[string]string

	// Handler runs when the command is invoked. Required.
	Handler Handler
	// OnError, when set, receives this command's invocation failures
	// before any category-level default handler.
	OnError ErrorHandler
	// Autocomplete, when set, serves autocomplete interactions for
	// this command's options.
	Autocomplete Autocompleter

	// id is the platform-assigned identity, back-filled after a
	// successful sync. Zero until then.
	id ref.CommandID
}

// ID returns the platform-assigned command ID, or a zero ID if no
// sync has matched this command yet.
func (c *Command) ID() ref.CommandID { return c.id }

// commandType normalizes the zero value to ChatInput.
func (c *Command) commandType() rest.CommandType {
	if c.Type == 0 {
		return rest.ChatInput
	}
	return c.Type
}

// autoSync reports whether synchronization manages this command.
func (c *Command) autoSync() bool { return c.AutoSync == nil || *c.AutoSync }

// validate checks the declaration before registration.
func (c *Command) validate() error {
	if c.Name == "" {
		return fmt.Errorf("interactions: command name is required")
	}
	if c.Handler == nil {
		return fmt.Errorf("interactions: command %q has no handler", c.Name)
	}
	switch c.commandType() {
	case rest.ChatInput:
		if c.Description == "" {
			return fmt.Errorf("interactions: slash command %q requires a description", c.Name)
		}
	case rest.User, rest.Message:
		if c.Description != "" {
			return fmt.Errorf("interactions: %s command %q must not have a description", c.commandType(), c.Name)
		}
		if len(c.Options) > 0 {
			return fmt.Errorf("interactions: %s command %q must not declare options", c.commandType(), c.Name)
		}
	default:
		return fmt.Errorf("interactions: command %q has invalid type %d", c.Name, c.Type)
	}
	return nil
}

// keys returns every registry key this command occupies: one per
// declared guild, or a single global key.
func (c *Command) keys() []CommandKey {
	if len(c.GuildIDs) == 0 {
		return []CommandKey{{Name: c.Name, Type: c.commandType()}}
	}
	keys := make([]CommandKey, 0, len(c.GuildIDs))
	for _, guild := range c.GuildIDs {
		keys = append(keys, CommandKey{Name: c.Name, Type: c.commandType(), GuildID: guild})
	}
	return keys
}

// wire converts the descriptor to its platform representation for a
// bulk overwrite. Server-assigned fields stay zero.
func (c *Command) wire() rest.ApplicationCommand {
	return rest.ApplicationCommand{
		Type:                     c.commandType(),
		Name:                     c.Name,
		NameLocalizations:        maps.Clone(c.NameLocalizations),
		Description:              c.Description,
		DescriptionLocalizations: maps.Clone(c.DescriptionLocalizations),
		Options:                  c.Options,
		DefaultMemberPermissions: c.DefaultMemberPermissions,
		DMPermission:             c.DMPermission,
	}
}

// commandsEqual is the structural equality comparison behind the
// "update" classification. Every externally visible field counts:
// two commands are equal iff the description, option schema,
// permissions, and localizations all match. Server-assigned fields
// (ID, application ID, guild ID, version) are ignored.
func commandsEqual(a, b rest.ApplicationCommand) bool {
	if normalizeType(a.Type) != normalizeType(b.Type) {
		return false
	}
	if a.Name != b.Name || a.Description != b.Description {
		return false
	}
	if !maps.Equal(a.NameLocalizations, b.NameLocalizations) {
		return false
	}
	if !maps.Equal(a.DescriptionLocalizations, b.DescriptionLocalizations) {
		return false
	}
	if !stringPtrEqual(a.DefaultMemberPermissions, b.DefaultMemberPermissions) {
		return false
	}
	// The platform treats an absent dm_permission as true.
	if dmPermission(a.DMPermission) != dmPermission(b.DMPermission) {
		return false
	}
	return optionsEqual(a.Options, b.Options)
}

func normalizeType(t rest.CommandType) rest.CommandType {
	if t == 0 {
		return rest.ChatInput
	}
	return t
}

func dmPermission(p *bool) bool { return p == nil || *p }

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func optionsEqual(a, b []rest.Option) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !optionEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func optionEqual(a, b rest.Option) bool {
	if a.Type != b.Type || a.Name != b.Name || a.Description != b.Description {
		return false
	}
	if a.Required != b.Required || a.Autocomplete != b.Autocomplete {
		return false
	}
	if !maps.Equal(a.NameLocalizations, b.NameLocalizations) {
		return false
	}
	if !maps.Equal(a.DescriptionLocalizations, b.DescriptionLocalizations) {
		return false
	}
	if len(a.ChannelTypes) != len(b.ChannelTypes) {
		return false
	}
	for i := range a.ChannelTypes {
		if a.ChannelTypes[i] != b.ChannelTypes[i] {
			return false
		}
	}
	if !floatPtrEqual(a.MinValue, b.MinValue) || !floatPtrEqual(a.MaxValue, b.MaxValue) {
		return false
	}
	if !intPtrEqual(a.MinLength, b.MinLength) || !intPtrEqual(a.MaxLength, b.MaxLength) {
		return false
	}
	if len(a.Choices) != len(b.Choices) {
		return false
	}
	for i := range a.Choices {
		if !choiceEqual(a.Choices[i], b.Choices[i]) {
			return false
		}
	}
	return optionsEqual(a.Options, b.Options)
}

func choiceEqual(a, b rest.OptionChoice) bool {
	if a.Name != b.Name {
		return false
	}
	if !maps.Equal(a.NameLocalizations, b.NameLocalizations) {
		return false
	}
	return bytes.Equal(a.Value, b.Value)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
