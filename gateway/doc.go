// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway maintains the websocket connection that delivers
// realtime events. It handles the connection lifecycle — identify,
// heartbeat, resume — and hands dispatched events to the host as raw
// JSON. Interpreting events is the host's concern; the gateway stays
// a transport.
package gateway
