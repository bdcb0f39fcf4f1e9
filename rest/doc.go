// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

// Package rest is a client for the subset of the Discord REST API that
// accord needs: application command management and interaction
// responses.
//
// The wire types here are deliberately thin. They carry exactly the
// fields that participate in command synchronization and dispatch, not
// the full platform data model. Richer entities (channels, guilds,
// members) stay as raw JSON for the caller to interpret.
//
// All structured error responses decode into [APIError]; callers use
// errors.As to inspect the platform error code:
//
//	var apiErr *rest.APIError
//	if errors.As(err, &apiErr) {
//	    if apiErr.Code == rest.ErrCodeUnknownInteraction { ... }
//	}
package rest
