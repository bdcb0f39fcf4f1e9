// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/json"
	"testing"
)

func TestParseSnowflake(t *testing.T) {
	id, err := ParseSnowflake("302094807046684672")
	if err != nil {
		t.Fatalf("ParseSnowflake failed: %v", err)
	}
	if id.String() != "302094807046684672" {
		t.Errorf("unexpected string form: %s", id)
	}
	if id.IsZero() {
		t.Error("parsed snowflake should not be zero")
	}
}

func TestParseSnowflakeRejectsInvalid(t *testing.T) {
	for _, raw := range []string{"", "0", "abc", "-5", "12x"} {
		if _, err := ParseSnowflake(raw); err == nil {
			t.Errorf("ParseSnowflake(%q) should fail", raw)
		}
	}
}

func TestSnowflakeJSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		data, err := json.Marshal(Snowflake(302094807046684672))
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if string(data) != `"302094807046684672"` {
			t.Errorf("unexpected encoding: %s", data)
		}
		var back Snowflake
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if back != 302094807046684672 {
			t.Errorf("round trip mismatch: %d", back)
		}
	})

	t.Run("zero encodes as null", func(t *testing.T) {
		data, err := json.Marshal(Snowflake(0))
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if string(data) != "null" {
			t.Errorf("zero snowflake should encode as null, got %s", data)
		}
	})

	t.Run("null decodes to zero", func(t *testing.T) {
		var id Snowflake = 7
		if err := json.Unmarshal([]byte("null"), &id); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if !id.IsZero() {
			t.Errorf("null should decode to zero, got %d", id)
		}
	})

	t.Run("bare number accepted", func(t *testing.T) {
		var id Snowflake
		if err := json.Unmarshal([]byte("42"), &id); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if id != 42 {
			t.Errorf("unexpected value: %d", id)
		}
	})
}

func TestSnowflakeTime(t *testing.T) {
	// 302094807046684672 >> 22 = 72022296220 ms past the Discord epoch.
	id := Snowflake(302094807046684672)
	if got := id.Time().Year(); got != 2017 {
		t.Errorf("unexpected creation year: %d", got)
	}
}

func TestTypedIDsAreDistinct(t *testing.T) {
	guild, err := ParseGuildID("81384788765712384")
	if err != nil {
		t.Fatalf("ParseGuildID failed: %v", err)
	}
	command, err := ParseCommandID("81384788765712384")
	if err != nil {
		t.Fatalf("ParseCommandID failed: %v", err)
	}
	if guild.Snowflake != command.Snowflake {
		t.Error("underlying snowflakes should match")
	}
	if guild.IsZero() {
		t.Error("parsed guild ID should not be zero")
	}
}

func TestTypedIDJSON(t *testing.T) {
	type payload struct {
		GuildID GuildID `json:"guild_id,omitzero"`
	}
	var p payload
	if err := json.Unmarshal([]byte(`{"guild_id":"81384788765712384"}`), &p); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if p.GuildID.String() != "81384788765712384" {
		t.Errorf("unexpected guild ID: %s", p.GuildID)
	}

	data, err := json.Marshal(payload{})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("zero guild ID should be omitted, got %s", data)
	}
}
