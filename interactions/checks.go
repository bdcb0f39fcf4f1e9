// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package interactions

import (
	"reflect"
	"sync"

	"github.com/accordlib/accord/rest"
)

// Check is a predicate evaluated before a command runs. Returning nil
// passes. A returned error rejects the invocation; if it is not
// already a CommandError it is wrapped in *CheckFailure.
type Check func(inter *Interaction) error

// CheckOptions selects which command categories a check applies to
// and whether it runs once per invocation or alongside the
// per-command checks.
type CheckOptions struct {
	// CallOnce registers the check in the call-once list, evaluated a
	// single time per invocation before the command's own checks.
	CallOnce bool

	// At least one category must be set.
	SlashCommands   bool
	UserCommands    bool
	MessageCommands bool
}

// checkSet holds the global checks, partitioned by command category
// and call cardinality.
type checkSet struct {
	mu       sync.RWMutex
	perCall  map[rest.CommandType][]Check
	callOnce map[rest.CommandType][]Check
}

func newCheckSet() *checkSet {
	return &checkSet{
		perCall:  make(map[rest.CommandType][]Check),
		callOnce: make(map[rest.CommandType][]Check),
	}
}

func (s *checkSet) categories(options CheckOptions) []rest.CommandType {
	var categories []rest.CommandType
	if options.SlashCommands {
		categories = append(categories, rest.ChatInput)
	}
	if options.UserCommands {
		categories = append(categories, rest.User)
	}
	if options.MessageCommands {
		categories = append(categories, rest.Message)
	}
	return categories
}

// add registers a check for the selected categories.
func (s *checkSet) add(check Check, options CheckOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, category := range s.categories(options) {
		if options.CallOnce {
			s.callOnce[category] = append(s.callOnce[category], check)
		} else {
			s.perCall[category] = append(s.perCall[category], check)
		}
	}
}

// remove unregisters a check by function identity. Idempotent:
// removing a check that was never added does nothing.
func (s *checkSet) remove(check Check, options CheckOptions) {
	target := reflect.ValueOf(check).Pointer()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, category := range s.categories(options) {
		list := s.perCall
		if options.CallOnce {
			list = s.callOnce
		}
		checks := list[category]
		for index, candidate := range checks {
			if reflect.ValueOf(candidate).Pointer() == target {
				list[category] = append(checks[:index:index], checks[index+1:]...)
				break
			}
		}
	}
}

// run evaluates the checks for one category with short-circuit
// semantics: the first rejection wins and is returned as a
// CommandError. An empty check list passes.
func (s *checkSet) run(inter *Interaction, category rest.CommandType, callOnce bool) error {
	s.mu.RLock()
	checks := s.perCall[category]
	if callOnce {
		checks = s.callOnce[category]
	}
	// Copy so a check mutating the set mid-run cannot invalidate the
	// iteration.
	snapshot := make([]Check, len(checks))
	copy(snapshot, checks)
	s.mu.RUnlock()

	for _, check := range snapshot {
		if err := check(inter); err != nil {
			if _, isCommandError := AsCommandError(err); isCommandError {
				return err
			}
			return &CheckFailure{Message: "global check rejected the invocation", Err: err}
		}
	}
	return nil
}
