// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

// Package bot wires the library together: the REST client, the
// gateway session, the command registry, the synchronizer, and the
// dispatcher. Most programs only need this package and the command
// types from interactions.
package bot
