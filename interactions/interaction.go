// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package interactions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/accordlib/accord/lib/ref"
	"github.com/accordlib/accord/rest"
)

// InteractionType distinguishes the platform's interaction events.
type InteractionType int

const (
	InteractionPing               InteractionType = 1
	InteractionApplicationCommand InteractionType = 2
	InteractionMessageComponent   InteractionType = 3
	InteractionAutocomplete       InteractionType = 4
	InteractionModalSubmit        InteractionType = 5
)

// Interaction is an inbound interaction event. Entity payloads beyond
// what dispatch needs (member, user, resolved entities) stay as raw
// JSON for the handler to interpret.
type Interaction struct {
	ID            ref.InteractionID `json:"id"`
	ApplicationID ref.ApplicationID `json:"application_id"`
	Type          InteractionType   `json:"type"`
	// GuildID is zero for interactions invoked in DMs.
	GuildID   ref.GuildID     `json:"guild_id,omitzero"`
	ChannelID ref.ChannelID   `json:"channel_id,omitzero"`
	Token     string          `json:"token"`
	Locale    string          `json:"locale,omitempty"`
	Member    json.RawMessage `json:"member,omitempty"`
	User      json.RawMessage `json:"user,omitempty"`
	Data      InteractionData `json:"data"`

	// responder and command are attached by the dispatcher before the
	// handler runs.
	responder Responder
	command   *Command
}

// InteractionData describes which command was invoked and with what
// arguments.
type InteractionData struct {
	// ID is the platform-assigned ID of the invoked command.
	ID   ref.CommandID    `json:"id"`
	Name string           `json:"name"`
	Type rest.CommandType `json:"type"`
	// Options carries the argument values (ChatInput only).
	Options []InteractionOption `json:"options,omitempty"`
	// TargetID is the user or message a context-menu command was
	// invoked on.
	TargetID ref.Snowflake   `json:"target_id,omitzero"`
	Resolved json.RawMessage `json:"resolved,omitempty"`
}

// InteractionOption is one argument value, possibly nested under a
// sub-command or group.
type InteractionOption struct {
	Name    string              `json:"name"`
	Type    rest.OptionType     `json:"type"`
	Value   json.RawMessage     `json:"value,omitempty"`
	Options []InteractionOption `json:"options,omitempty"`
	// Focused marks the option the user is currently typing in an
	// autocomplete interaction.
	Focused bool `json:"focused,omitempty"`
}

// Responder answers interactions. *rest.Client implements it; tests
// substitute fakes.
type Responder interface {
	CreateInteractionResponse(ctx context.Context, id ref.InteractionID, token string, response rest.InteractionResponse) error
}

// Command returns the registered command this interaction resolved
// to. Nil before dispatch resolution.
func (i *Interaction) Command() *Command { return i.command }

// Respond sends the interaction response.
func (i *Interaction) Respond(ctx context.Context, response rest.InteractionResponse) error {
	if i.responder == nil {
		return fmt.Errorf("interactions: no responder attached to interaction %s", i.ID)
	}
	return i.responder.CreateInteractionResponse(ctx, i.ID, i.Token, response)
}

// RespondMessage sends a plain text message response. When ephemeral
// is true, only the invoking user sees it.
func (i *Interaction) RespondMessage(ctx context.Context, content string, ephemeral bool) error {
	data := &rest.ResponseData{Content: content}
	if ephemeral {
		data.Flags = rest.MessageFlagEphemeral
	}
	return i.Respond(ctx, rest.InteractionResponse{
		Type: rest.CallbackChannelMessage,
		Data: data,
	})
}

// FocusedOption returns the option the user is typing, descending
// through sub-command nesting. Nil when no option is focused.
func (i *Interaction) FocusedOption() *InteractionOption {
	return focusedOption(i.Data.Options)
}

func focusedOption(options []InteractionOption) *InteractionOption {
	for index := range options {
		option := &options[index]
		if option.Focused {
			return option
		}
		if nested := focusedOption(option.Options); nested != nil {
			return nested
		}
	}
	return nil
}

// Option returns the named top-level argument, descending through a
// single sub-command or group level first. Nil when absent.
func (i *Interaction) Option(name string) *InteractionOption {
	options := i.Data.Options
	for len(options) == 1 && (options[0].Type == rest.OptionSubCommand || options[0].Type == rest.OptionSubCommandGroup) {
		options = options[0].Options
	}
	for index := range options {
		if options[index].Name == name {
			return &options[index]
		}
	}
	return nil
}

// StringValue decodes the option value as a string.
func (o *InteractionOption) StringValue() (string, error) {
	var s string
	if err := json.Unmarshal(o.Value, &s); err != nil {
		return "", &BadArgument{Option: o.Name, Message: "expected a string value"}
	}
	return s, nil
}

// IntValue decodes the option value as an integer.
func (o *InteractionOption) IntValue() (int64, error) {
	var n int64
	if err := json.Unmarshal(o.Value, &n); err != nil {
		return 0, &BadArgument{Option: o.Name, Message: "expected an integer value"}
	}
	return n, nil
}

// BoolValue decodes the option value as a boolean.
func (o *InteractionOption) BoolValue() (bool, error) {
	var b bool
	if err := json.Unmarshal(o.Value, &b); err != nil {
		return false, &BadArgument{Option: o.Name, Message: "expected a boolean value"}
	}
	return b, nil
}
