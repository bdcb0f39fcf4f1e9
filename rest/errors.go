// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package rest

import (
	"errors"
	"fmt"
)

// APIError represents a structured error response from the Discord
// API. Callers can use errors.As to extract the structured
// information.
type APIError struct {
	// Code is the Discord JSON error code (e.g., 10063 for "unknown
	// interaction"). Distinct from the HTTP status.
	Code int `json:"code"`
	// Message is the human-readable error description from the server.
	Message string `json:"message"`
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord: %d (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
}

// Discord JSON error codes accord inspects.
const (
	ErrCodeUnknownApplicationCommand = 10063
	ErrCodeUnknownInteraction        = 10062
	ErrCodeMissingAccess             = 50001
	ErrCodeInteractionAcked          = 40060
)

// IsAPIError checks whether err is an *APIError with the given
// platform error code.
func IsAPIError(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}
