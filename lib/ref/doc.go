// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated identifier types for Discord
// entities. All Discord IDs are snowflakes: 64-bit integers that the
// platform serializes as decimal strings in JSON. Accord code never
// constructs IDs by hand — they come from the API and are parsed into
// these types at the boundary.
//
// Each named type (GuildID, CommandID, ...) wraps Snowflake so that a
// guild ID cannot be passed where a command ID is expected. The zero
// value means "unassigned"; use IsZero to check.
package ref
