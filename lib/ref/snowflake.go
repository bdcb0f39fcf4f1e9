// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strconv"
	"time"
)

// discordEpoch is the first second of 2015, the origin of the
// timestamp field embedded in every snowflake.
const discordEpoch = 1420070400000

// Snowflake is a Discord snowflake ID. The zero value is not a valid
// ID; it means "unassigned". Snowflakes are serialized as decimal
// strings in JSON, never as JSON numbers — 64-bit values exceed what
// many JSON consumers can represent losslessly.
type Snowflake uint64

// ParseSnowflake validates and parses a raw decimal snowflake string.
// Returns an error if the string is empty, non-numeric, or zero.
func ParseSnowflake(raw string) (Snowflake, error) {
	if raw == "" {
		return 0, fmt.Errorf("empty snowflake")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", raw, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("snowflake must be non-zero")
	}
	return Snowflake(id), nil
}

// String returns the decimal string form (e.g., "302094807046684672").
func (s Snowflake) String() string { return strconv.FormatUint(uint64(s), 10) }

// IsZero reports whether the Snowflake is the zero value (unassigned).
func (s Snowflake) IsZero() bool { return s == 0 }

// Time returns the creation time embedded in the snowflake.
func (s Snowflake) Time() time.Time {
	ms := int64(s>>22) + discordEpoch
	return time.UnixMilli(ms).UTC()
}

// MarshalJSON encodes the snowflake as a quoted decimal string, or
// JSON null for the zero value.
func (s Snowflake) MarshalJSON() ([]byte, error) {
	if s == 0 {
		return []byte("null"), nil
	}
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a quoted decimal string, a bare JSON number,
// or null. Discord always sends strings; the number form exists for
// hand-written fixtures.
func (s *Snowflake) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if raw == "null" {
		*s = 0
		return nil
	}
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	if raw == "" {
		*s = 0
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid snowflake %s: %w", string(data), err)
	}
	*s = Snowflake(id)
	return nil
}
