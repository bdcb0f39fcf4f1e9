// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package rest

import (
	"encoding/json"

	"github.com/accordlib/accord/lib/ref"
)

// CommandType distinguishes the three application command categories.
// The numeric values are the platform's wire representation.
type CommandType int

const (
	// ChatInput commands are invoked by typing a slash command.
	ChatInput CommandType = 1
	// User commands appear in the context menu of a user.
	User CommandType = 2
	// Message commands appear in the context menu of a message.
	Message CommandType = 3
)

// String returns a short lowercase name for logging.
func (t CommandType) String() string {
	switch t {
	case ChatInput:
		return "slash"
	case User:
		return "user"
	case Message:
		return "message"
	default:
		return "unknown"
	}
}

// OptionType identifies the kind of a command option.
type OptionType int

const (
	OptionSubCommand      OptionType = 1
	OptionSubCommandGroup OptionType = 2
	OptionString          OptionType = 3
	OptionInteger         OptionType = 4
	OptionBoolean         OptionType = 5
	OptionUser            OptionType = 6
	OptionChannel         OptionType = 7
	OptionRole            OptionType = 8
	OptionMentionable     OptionType = 9
	OptionNumber          OptionType = 10
	OptionAttachment      OptionType = 11
)

// ApplicationCommand is the platform's representation of a registered
// command, as returned by the command endpoints. It doubles as the
// request body for bulk overwrites (server-assigned fields are
// omitted when zero).
type ApplicationCommand struct {
	ID            ref.CommandID     `json:"id,omitzero"`
	Type          CommandType       `json:"type,omitempty"`
	ApplicationID ref.ApplicationID `json:"application_id,omitzero"`
	GuildID       ref.GuildID       `json:"guild_id,omitzero"`
	Name          string            `json:"name"`
	// NameLocalizations maps locale tags (e.g., "fr", "de") to
	// localized names. A nil map means no localizations.
	NameLocalizations map[string]string `json:"name_localizations,omitempty"`
	// Description is empty for user and message commands.
	Description              string            `json:"description,omitempty"`
	DescriptionLocalizations map[string]string `json:"description_localizations,omitempty"`
	Options                  []Option          `json:"options,omitempty"`
	// DefaultMemberPermissions is a permission bit set serialized as a
	// decimal string. Nil means "no restriction".
	DefaultMemberPermissions *string `json:"default_member_permissions,omitempty"`
	// DMPermission reports whether the command is usable in DMs. Only
	// meaningful for globally-scoped commands; nil means the platform
	// default (true).
	DMPermission *bool `json:"dm_permission,omitempty"`
	// Version is a server-assigned snowflake bumped on every update.
	Version ref.Snowflake `json:"version,omitzero"`
}

// Option describes one command parameter, sub-command, or sub-command
// group. Sub-command trees nest through the Options field.
type Option struct {
	Type                     OptionType        `json:"type"`
	Name                     string            `json:"name"`
	NameLocalizations        map[string]string `json:"name_localizations,omitempty"`
	Description              string            `json:"description,omitempty"`
	DescriptionLocalizations map[string]string `json:"description_localizations,omitempty"`
	Required                 bool              `json:"required,omitempty"`
	Choices                  []OptionChoice    `json:"choices,omitempty"`
	Options                  []Option          `json:"options,omitempty"`
	ChannelTypes             []int             `json:"channel_types,omitempty"`
	MinValue                 *float64          `json:"min_value,omitempty"`
	MaxValue                 *float64          `json:"max_value,omitempty"`
	MinLength                *int              `json:"min_length,omitempty"`
	MaxLength                *int              `json:"max_length,omitempty"`
	Autocomplete             bool              `json:"autocomplete,omitempty"`
}

// OptionChoice is a fixed value a user can pick for an option.
type OptionChoice struct {
	Name              string            `json:"name"`
	NameLocalizations map[string]string `json:"name_localizations,omitempty"`
	// Value is a string, integer, or double depending on the option
	// type. Kept raw: sync only needs equality, not interpretation.
	Value json.RawMessage `json:"value"`
}

// CallbackType selects how an interaction response is rendered.
type CallbackType int

const (
	CallbackPong                   CallbackType = 1
	CallbackChannelMessage         CallbackType = 4
	CallbackDeferredChannelMessage CallbackType = 5
	CallbackDeferredUpdateMessage  CallbackType = 6
	CallbackUpdateMessage          CallbackType = 7
	CallbackAutocompleteResult     CallbackType = 8
	CallbackModal                  CallbackType = 9
)

// MessageFlagEphemeral marks a response visible only to the invoking
// user.
const MessageFlagEphemeral = 1 << 6

// InteractionResponse is the body for the interaction callback
// endpoint.
type InteractionResponse struct {
	Type CallbackType  `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

// ResponseData carries the visible payload of an interaction response.
type ResponseData struct {
	Content string         `json:"content,omitempty"`
	Flags   int            `json:"flags,omitempty"`
	Choices []OptionChoice `json:"choices,omitempty"`
}
