// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

// Package interactions implements application command registration,
// synchronization, and dispatch.
//
// The flow: commands are declared into a [Registry], keyed by
// (name, type, guild scope). A [Syncer] reconciles the declared set
// against the platform's registered commands — fetch, diff, and a
// single bulk overwrite per scope that actually changed — then
// back-fills the platform-assigned command IDs into the registry. A
// [Dispatcher] routes incoming interaction events to the matching
// command by assigned ID, runs global checks, and funnels invocation
// failures through the error handler chain.
//
// Synchronization treats the remote platform as the source of truth
// and its own snapshots as advisory caches. Only the global scope and
// explicitly configured guilds are fetched; fetching every guild the
// bot is present in would exhaust the platform's invalid-request
// quota. The resulting blind spots are self-healed at dispatch time:
// an interaction whose command ID is unknown triggers a corrective
// clear of that guild's commands and a transient notice to the user.
package interactions
