// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// ApplicationID identifies a Discord application (bot).
type ApplicationID struct{ Snowflake }

// ParseApplicationID validates and wraps a raw application ID string.
func ParseApplicationID(raw string) (ApplicationID, error) {
	id, err := ParseSnowflake(raw)
	if err != nil {
		return ApplicationID{}, fmt.Errorf("application ID: %w", err)
	}
	return ApplicationID{id}, nil
}

// GuildID identifies a guild (server). The zero value denotes the
// global scope in command registration contexts.
type GuildID struct{ Snowflake }

// ParseGuildID validates and wraps a raw guild ID string.
func ParseGuildID(raw string) (GuildID, error) {
	id, err := ParseSnowflake(raw)
	if err != nil {
		return GuildID{}, fmt.Errorf("guild ID: %w", err)
	}
	return GuildID{id}, nil
}

// ChannelID identifies a text, voice, or thread channel.
type ChannelID struct{ Snowflake }

// ParseChannelID validates and wraps a raw channel ID string.
func ParseChannelID(raw string) (ChannelID, error) {
	id, err := ParseSnowflake(raw)
	if err != nil {
		return ChannelID{}, fmt.Errorf("channel ID: %w", err)
	}
	return ChannelID{id}, nil
}

// UserID identifies a user account.
type UserID struct{ Snowflake }

// ParseUserID validates and wraps a raw user ID string.
func ParseUserID(raw string) (UserID, error) {
	id, err := ParseSnowflake(raw)
	if err != nil {
		return UserID{}, fmt.Errorf("user ID: %w", err)
	}
	return UserID{id}, nil
}

// CommandID identifies a registered application command. Assigned by
// the platform when a command is created; local descriptors carry a
// zero CommandID until synchronization back-fills it.
type CommandID struct{ Snowflake }

// ParseCommandID validates and wraps a raw command ID string.
func ParseCommandID(raw string) (CommandID, error) {
	id, err := ParseSnowflake(raw)
	if err != nil {
		return CommandID{}, fmt.Errorf("command ID: %w", err)
	}
	return CommandID{id}, nil
}

// InteractionID identifies a single interaction event. Unique per
// invocation; used together with the interaction token to respond.
type InteractionID struct{ Snowflake }

// ParseInteractionID validates and wraps a raw interaction ID string.
func ParseInteractionID(raw string) (InteractionID, error) {
	id, err := ParseSnowflake(raw)
	if err != nil {
		return InteractionID{}, fmt.Errorf("interaction ID: %w", err)
	}
	return InteractionID{id}, nil
}
