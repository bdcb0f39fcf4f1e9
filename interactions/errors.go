// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package interactions

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/accordlib/accord/lib/ref"
	"github.com/accordlib/accord/rest"
)

// RegistrationError is returned when a command is declared under a
// (name, type, guild) key that is already taken. Registration is the
// one place that fails loudly — a silent overwrite would leave two
// handlers racing for the same remote command.
type RegistrationError struct {
	Name    string
	Type    rest.CommandType
	GuildID ref.GuildID
}

func (e *RegistrationError) Error() string {
	if e.GuildID.IsZero() {
		return fmt.Sprintf("interactions: %s command %q is already registered", e.Type, e.Name)
	}
	return fmt.Sprintf("interactions: %s command %q is already registered in guild %s", e.Type, e.Name, e.GuildID)
}

// CommandError is the taxonomy of invocation-time failures: anything
// a command or check can legitimately produce from user input or
// platform state. The dispatch boundary catches CommandError values
// and routes them through the error handler chain. Errors outside the
// taxonomy propagate uncaught — they indicate programming bugs, not
// invocation failures.
type CommandError interface {
	error
	commandError()
}

// AsCommandError reports whether err (or anything it wraps) belongs
// to the command error taxonomy.
func AsCommandError(err error) (CommandError, bool) {
	var cmdErr CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr, true
	}
	return nil, false
}

// CheckFailure signals that a global or per-command check rejected
// the invocation before the command body ran.
type CheckFailure struct {
	// Message describes which check failed.
	Message string
	// Err is the underlying check error, if the check returned one.
	Err error
}

func (e *CheckFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("interactions: check failed: %s: %v", e.Message, e.Err)
	}
	return "interactions: check failed: " + e.Message
}

func (e *CheckFailure) Unwrap() error { return e.Err }

func (*CheckFailure) commandError() {}

// BadArgument signals that an option value could not be converted to
// what the command expects.
type BadArgument struct {
	Option  string
	Message string
}

func (e *BadArgument) Error() string {
	return fmt.Sprintf("interactions: bad value for option %q: %s", e.Option, e.Message)
}

func (*BadArgument) commandError() {}

// CommandOnCooldown signals that the invocation was rejected by a
// rate limit the command placed on itself.
type CommandOnCooldown struct {
	RetryAfter time.Duration
}

func (e *CommandOnCooldown) Error() string {
	return fmt.Sprintf("interactions: command on cooldown, retry in %s", e.RetryAfter)
}

func (*CommandOnCooldown) commandError() {}

// MissingPermissions signals that the invoking user lacks permissions
// the command requires beyond the platform-enforced defaults.
type MissingPermissions struct {
	Missing []string
}

func (e *MissingPermissions) Error() string {
	return "interactions: missing permissions: " + strings.Join(e.Missing, ", ")
}

func (*MissingPermissions) commandError() {}
