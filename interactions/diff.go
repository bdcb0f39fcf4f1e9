// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package interactions

import (
	"fmt"
	"strings"

	"github.com/accordlib/accord/rest"
)

// localCommand pairs a command's wire form with its sync marker for
// diffing. alwaysSynced commands never compare against remote state.
type localCommand struct {
	wire         rest.ApplicationCommand
	alwaysSynced bool
}

// Diff classifies every command of one scope into four disjoint
// buckets after comparing the local declarations against the remote
// snapshot.
type Diff struct {
	Unchanged []rest.ApplicationCommand
	ToCreate  []rest.ApplicationCommand
	ToUpdate  []rest.ApplicationCommand
	ToDelete  []rest.ApplicationCommand
}

// nameType is the composite identity commands are diffed under.
// Scope is implicit: a diff always covers a single scope.
type nameType struct {
	name string
	typ  rest.CommandType
}

// diffCommands compares the declared local set against the remote
// snapshot of one scope. Both sides are uniquely keyed by
// (name, type). Local commands with no remote counterpart are
// created; remote commands with no local counterpart are deleted;
// the rest are updated or unchanged per structural equality.
func diffCommands(local []localCommand, remote []rest.ApplicationCommand) *Diff {
	remoteByKey := make(map[nameType]rest.ApplicationCommand, len(remote))
	for _, command := range remote {
		remoteByKey[nameType{command.Name, normalizeType(command.Type)}] = command
	}
	localKeys := make(map[nameType]bool, len(local))

	diff := &Diff{}
	for _, declared := range local {
		key := nameType{declared.wire.Name, normalizeType(declared.wire.Type)}
		localKeys[key] = true

		remoteCommand, exists := remoteByKey[key]
		switch {
		case !exists:
			diff.ToCreate = append(diff.ToCreate, declared.wire)
		case declared.alwaysSynced:
			// Keep the remote copy verbatim so a bulk overwrite doesn't
			// clobber whatever is registered out-of-band.
			diff.Unchanged = append(diff.Unchanged, remoteCommand)
		case !commandsEqual(declared.wire, remoteCommand):
			diff.ToUpdate = append(diff.ToUpdate, declared.wire)
		default:
			diff.Unchanged = append(diff.Unchanged, declared.wire)
		}
	}

	for _, command := range remote {
		if !localKeys[nameType{command.Name, normalizeType(command.Type)}] {
			diff.ToDelete = append(diff.ToDelete, command)
		}
	}
	return diff
}

// retainDeletions reclassifies every to-delete command as unchanged.
// Applied uniformly to all scopes when deletion is disallowed, so a
// remote command absent from local code is never removed.
func (d *Diff) retainDeletions() {
	d.Unchanged = append(d.Unchanged, d.ToDelete...)
	d.ToDelete = nil
}

// UpdateRequired reports whether the scope needs a push. An entirely
// unchanged diff issues zero API calls.
func (d *Diff) UpdateRequired() bool {
	return len(d.ToCreate) > 0 || len(d.ToUpdate) > 0 || len(d.ToDelete) > 0
}

// CommandList composes the full desired command set for the scope's
// bulk overwrite: everything except deletions.
func (d *Diff) CommandList() []rest.ApplicationCommand {
	result := make([]rest.ApplicationCommand, 0, len(d.Unchanged)+len(d.ToUpdate)+len(d.ToCreate))
	result = append(result, d.Unchanged...)
	result = append(result, d.ToUpdate...)
	result = append(result, d.ToCreate...)
	return result
}

// String renders the diff for sync debug logging.
func (d *Diff) String() string {
	var builder strings.Builder
	writeBucket := func(label string, commands []rest.ApplicationCommand) {
		builder.WriteString("| " + label + "\n")
		if len(commands) == 0 {
			builder.WriteString("|     -\n")
			return
		}
		for _, command := range commands {
			fmt.Fprintf(&builder, "|     <%s name=%q>\n", normalizeType(command.Type), command.Name)
		}
	}
	writeBucket("To create:", d.ToCreate)
	writeBucket("To update:", d.ToUpdate)
	writeBucket("To delete:", d.ToDelete)
	writeBucket("No changes:", d.Unchanged)
	return strings.TrimRight(builder.String(), "\n")
}
