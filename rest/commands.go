// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/accordlib/accord/lib/ref"
)

// withLocalizations asks the command endpoints to include the full
// localization maps. Without it the API returns only the requester's
// locale, which would make the structural comparison during sync see
// phantom differences.
var withLocalizations = url.Values{"with_localizations": {"true"}}

// GlobalCommands fetches the application's globally-registered
// commands, including localizations.
func (c *Client) GlobalCommands(ctx context.Context, app ref.ApplicationID) ([]ApplicationCommand, error) {
	path := fmt.Sprintf("/applications/%s/commands", app)
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, withLocalizations)
	if err != nil {
		return nil, fmt.Errorf("rest: fetching global commands: %w", err)
	}
	var commands []ApplicationCommand
	if err := json.Unmarshal(body, &commands); err != nil {
		return nil, fmt.Errorf("rest: failed to parse global commands: %w", err)
	}
	return commands, nil
}

// GuildCommands fetches the commands registered to one guild,
// including localizations.
func (c *Client) GuildCommands(ctx context.Context, app ref.ApplicationID, guild ref.GuildID) ([]ApplicationCommand, error) {
	path := fmt.Sprintf("/applications/%s/guilds/%s/commands", app, guild)
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, withLocalizations)
	if err != nil {
		return nil, fmt.Errorf("rest: fetching commands for guild %s: %w", guild, err)
	}
	var commands []ApplicationCommand
	if err := json.Unmarshal(body, &commands); err != nil {
		return nil, fmt.Errorf("rest: failed to parse guild commands: %w", err)
	}
	return commands, nil
}

// BulkOverwriteGlobalCommands atomically replaces the application's
// full global command set and returns the resulting commands with
// server-assigned IDs.
func (c *Client) BulkOverwriteGlobalCommands(ctx context.Context, app ref.ApplicationID, commands []ApplicationCommand) ([]ApplicationCommand, error) {
	if commands == nil {
		// The endpoint distinguishes [] (clear everything) from null
		// (bad request).
		commands = []ApplicationCommand{}
	}
	path := fmt.Sprintf("/applications/%s/commands", app)
	body, err := c.doRequest(ctx, http.MethodPut, path, commands, nil)
	if err != nil {
		return nil, fmt.Errorf("rest: overwriting global commands: %w", err)
	}
	var result []ApplicationCommand
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("rest: failed to parse overwrite response: %w", err)
	}
	return result, nil
}

// BulkOverwriteGuildCommands atomically replaces one guild's full
// command set. Passing an empty slice clears the guild's commands.
func (c *Client) BulkOverwriteGuildCommands(ctx context.Context, app ref.ApplicationID, guild ref.GuildID, commands []ApplicationCommand) ([]ApplicationCommand, error) {
	if commands == nil {
		commands = []ApplicationCommand{}
	}
	path := fmt.Sprintf("/applications/%s/guilds/%s/commands", app, guild)
	body, err := c.doRequest(ctx, http.MethodPut, path, commands, nil)
	if err != nil {
		return nil, fmt.Errorf("rest: overwriting commands for guild %s: %w", guild, err)
	}
	var result []ApplicationCommand
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("rest: failed to parse overwrite response: %w", err)
	}
	return result, nil
}

// CreateInteractionResponse answers an interaction. The interaction
// token (not the bot token) authorizes this call; it is valid for
// three seconds after the interaction arrives.
func (c *Client) CreateInteractionResponse(ctx context.Context, id ref.InteractionID, token string, response InteractionResponse) error {
	path := fmt.Sprintf("/interactions/%s/%s/callback", id, token)
	if _, err := c.doRequest(ctx, http.MethodPost, path, response, nil); err != nil {
		return fmt.Errorf("rest: responding to interaction %s: %w", id, err)
	}
	return nil
}
