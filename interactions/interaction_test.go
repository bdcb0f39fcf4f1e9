// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package interactions

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/accordlib/accord/rest"
)

func TestInteractionDecodesFromGatewayPayload(t *testing.T) {
	payload := []byte(`{
		"id": "846462639134605312",
		"application_id": "99",
		"type": 2,
		"guild_id": "290926798626357999",
		"channel_id": "645027906669510667",
		"token": "random-token",
		"locale": "en-US",
		"data": {
			"id": "771825006014889984",
			"name": "search",
			"type": 1,
			"options": [
				{"name": "query", "type": 3, "value": "golang"},
				{"name": "limit", "type": 4, "value": 5},
				{"name": "exact", "type": 5, "value": true}
			]
		}
	}`)

	var inter Interaction
	if err := json.Unmarshal(payload, &inter); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if inter.Type != InteractionApplicationCommand {
		t.Errorf("Type = %d", inter.Type)
	}
	if inter.GuildID.String() != "290926798626357999" {
		t.Errorf("GuildID = %s", inter.GuildID)
	}
	if inter.Data.Name != "search" || inter.Data.Type != rest.ChatInput {
		t.Errorf("Data = %+v", inter.Data)
	}

	query, err := inter.Option("query").StringValue()
	if err != nil || query != "golang" {
		t.Errorf("query = %q, %v", query, err)
	}
	limit, err := inter.Option("limit").IntValue()
	if err != nil || limit != 5 {
		t.Errorf("limit = %d, %v", limit, err)
	}
	exact, err := inter.Option("exact").BoolValue()
	if err != nil || !exact {
		t.Errorf("exact = %t, %v", exact, err)
	}
	if inter.Option("missing") != nil {
		t.Error("absent options must resolve to nil")
	}
}

func TestOptionDescendsThroughSubCommand(t *testing.T) {
	inter := &Interaction{
		Data: InteractionData{
			Name: "admin",
			Type: rest.ChatInput,
			Options: []InteractionOption{{
				Name: "user",
				Type: rest.OptionSubCommandGroup,
				Options: []InteractionOption{{
					Name: "ban",
					Type: rest.OptionSubCommand,
					Options: []InteractionOption{
						{Name: "reason", Type: rest.OptionString, Value: []byte(`"spam"`)},
					},
				}},
			}},
		},
	}

	// Two nesting levels: group, then sub-command.
	reason := inter.Option("reason")
	if reason == nil {
		t.Fatal("sub-command levels not descended")
	}
	value, err := reason.StringValue()
	if err != nil || value != "spam" {
		t.Errorf("reason = %q, %v", value, err)
	}
}

func TestOptionValueTypeMismatchIsBadArgument(t *testing.T) {
	option := &InteractionOption{Name: "limit", Type: rest.OptionInteger, Value: []byte(`"five"`)}

	_, err := option.IntValue()
	var bad *BadArgument
	if !errors.As(err, &bad) {
		t.Fatalf("expected *BadArgument, got %v", err)
	}
	if bad.Option != "limit" {
		t.Errorf("Option = %q", bad.Option)
	}
	if _, ok := AsCommandError(err); !ok {
		t.Error("BadArgument must be part of the command error taxonomy")
	}
}

func TestFocusedOptionNested(t *testing.T) {
	inter := &Interaction{
		Data: InteractionData{
			Options: []InteractionOption{{
				Name: "sub",
				Type: rest.OptionSubCommand,
				Options: []InteractionOption{
					{Name: "first", Type: rest.OptionString, Value: []byte(`"a"`)},
					{Name: "second", Type: rest.OptionString, Focused: true},
				},
			}},
		},
	}
	focused := inter.FocusedOption()
	if focused == nil || focused.Name != "second" {
		t.Errorf("FocusedOption = %+v", focused)
	}
}

func TestRespondWithoutResponder(t *testing.T) {
	inter := &Interaction{}
	if err := inter.Respond(t.Context(), rest.InteractionResponse{}); err == nil {
		t.Error("responding without an attached responder must fail")
	}
}
