// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package interactions

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/accordlib/accord/lib/ref"
	"github.com/accordlib/accord/rest"
)

// Event names emitted around command invocation. Listeners subscribe
// through the host's event emitter.
const (
	EventSlashCommand   = "slash_command"
	EventUserCommand    = "user_command"
	EventMessageCommand = "message_command"

	// completionSuffix and errorSuffix derive the companion event
	// names (e.g., "slash_command_completion").
	completionSuffix = "_completion"
	errorSuffix      = "_error"
)

// blindSpotNotice is the transient reply sent when an interaction
// references a command the sync algorithm had no visibility into.
const blindSpotNotice = "This command has just been synced. Please retry in a moment."

// EventEmitter broadcasts named events to the host's listener set.
// Emission is fire-and-forget: the dispatcher never waits on
// listeners. err is nil except for *_error events.
type EventEmitter interface {
	Emit(event string, inter *Interaction, err error)
}

// GuildCommandCleaner is the corrective action for sync blind spots:
// clearing a guild's remote commands so the next interaction arrives
// against known state. *rest.Client implements it via
// BulkOverwriteGuildCommands.
type GuildCommandCleaner interface {
	BulkOverwriteGuildCommands(ctx context.Context, app ref.ApplicationID, guild ref.GuildID, commands []rest.ApplicationCommand) ([]rest.ApplicationCommand, error)
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	App      ref.ApplicationID
	Registry *Registry
	// Syncer provides snapshot lookups and the sync-in-progress flag.
	Syncer *Syncer
	// Responder answers interactions.
	Responder Responder
	// Cleaner performs the blind-spot corrective clear.
	Cleaner GuildCommandCleaner
	// Emitter receives invocation lifecycle events. Nil disables
	// emission.
	Emitter EventEmitter
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Dispatcher routes inbound interaction events to registered
// commands and manages the invocation lifecycle: lookup by assigned
// ID, global checks, handler invocation, and error-handler routing.
type Dispatcher struct {
	app       ref.ApplicationID
	registry  *Registry
	syncer    *Syncer
	responder Responder
	cleaner   GuildCommandCleaner
	emitter   EventEmitter
	logger    *slog.Logger

	checks *checkSet

	// defaultHandlers are the per-category fallback error handlers,
	// consulted when a command has no OnError of its own. handlersMu
	// guards them against installs racing in-flight interactions.
	handlersMu      sync.RWMutex
	defaultHandlers map[rest.CommandType]ErrorHandler
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(config DispatcherConfig) (*Dispatcher, error) {
	if config.Registry == nil {
		return nil, fmt.Errorf("interactions: DispatcherConfig.Registry is required")
	}
	if config.Syncer == nil {
		return nil, fmt.Errorf("interactions: DispatcherConfig.Syncer is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		app:             config.App,
		registry:        config.Registry,
		syncer:          config.Syncer,
		responder:       config.Responder,
		cleaner:         config.Cleaner,
		emitter:         config.Emitter,
		logger:          logger,
		checks:          newCheckSet(),
		defaultHandlers: make(map[rest.CommandType]ErrorHandler),
	}, nil
}

// AddCheck registers a global check for the categories selected in
// options.
func (d *Dispatcher) AddCheck(check Check, options CheckOptions) {
	d.checks.add(check, options)
}

// RemoveCheck unregisters a global check. Idempotent.
func (d *Dispatcher) RemoveCheck(check Check, options CheckOptions) {
	d.checks.remove(check, options)
}

// SetDefaultErrorHandler installs the fallback error handler for one
// command category.
func (d *Dispatcher) SetDefaultErrorHandler(category rest.CommandType, handler ErrorHandler) {
	d.handlersMu.Lock()
	defer d.handlersMu.Unlock()
	d.defaultHandlers[normalizeType(category)] = handler
}

func (d *Dispatcher) defaultHandler(category rest.CommandType) ErrorHandler {
	d.handlersMu.RLock()
	defer d.handlersMu.RUnlock()
	return d.defaultHandlers[normalizeType(category)]
}

// ProcessInteraction routes an application command interaction to its
// registered command. Failures within the command error taxonomy are
// routed to error handlers and never returned; any other error is
// returned to the caller, since it indicates a bug rather than an
// invocation failure.
func (d *Dispatcher) ProcessInteraction(ctx context.Context, inter *Interaction) error {
	inter.responder = d.responder

	// An ID the snapshots have never seen usually comes from a blind
	// spot of the sync algorithm: not all guild scopes are cached, so
	// a guild-scoped command registered before this guild was
	// configured can still fire. Self-heal instead of crashing — but
	// only when sync is active and idle; mid-sync the snapshots are
	// not to be trusted.
	if d.syncer.Enabled() && !d.syncer.Syncing() {
		if !d.syncer.KnownCommand(inter.Data.ID, inter.GuildID) {
			d.recoverBlindSpot(ctx, inter)
			return nil
		}
	}

	command := d.registry.FindByID(inter.Data.ID)
	eventName := eventNameFor(inter.Data.Type)
	if command == nil || eventName == "" {
		// Unknown command or unknown category. With auto sync disabled
		// this is routine (the platform set is managed out-of-band), so
		// ignore rather than fail.
		d.logger.Debug("ignoring interaction for unknown command",
			"command_id", inter.Data.ID, "name", inter.Data.Name)
		return nil
	}
	inter.command = command

	d.emit(eventName, inter, nil)

	invokeErr := func() error {
		if err := d.checks.run(inter, normalizeType(inter.Data.Type), true); err != nil {
			return err
		}
		if err := d.checks.run(inter, normalizeType(inter.Data.Type), false); err != nil {
			return err
		}
		return command.Handler(ctx, inter)
	}()

	if invokeErr == nil {
		d.emit(eventName+completionSuffix, inter, nil)
		return nil
	}
	commandErr, recognized := AsCommandError(invokeErr)
	if !recognized {
		return fmt.Errorf("interactions: %s command %q: %w", inter.Data.Type, command.Name, invokeErr)
	}
	d.routeError(ctx, eventName, inter, command, commandErr)
	return nil
}

// ProcessAutocomplete routes an autocomplete interaction to the
// matching slash command's Autocompleter and responds with its
// suggestions. Unknown commands are ignored.
func (d *Dispatcher) ProcessAutocomplete(ctx context.Context, inter *Interaction) error {
	inter.responder = d.responder

	command := d.registry.Get(inter.Data.Name, rest.ChatInput, inter.GuildID)
	if command == nil && !inter.GuildID.IsZero() {
		command = d.registry.Get(inter.Data.Name, rest.ChatInput, ref.GuildID{})
	}
	if command == nil || command.Autocomplete == nil {
		return nil
	}
	inter.command = command

	choices, err := command.Autocomplete(ctx, inter)
	if err != nil {
		d.logger.Warn("autocompleter failed", "command", command.Name, "error", err)
		return nil
	}
	return inter.Respond(ctx, rest.InteractionResponse{
		Type: rest.CallbackAutocompleteResult,
		Data: &rest.ResponseData{Choices: choices},
	})
}

// recoverBlindSpot clears the interaction guild's remote commands and
// tells the user to retry. Both calls are best-effort: the point is
// converging remote state, not this one invocation.
func (d *Dispatcher) recoverBlindSpot(ctx context.Context, inter *Interaction) {
	d.logger.Info("interaction references a command outside the sync snapshots, clearing guild commands",
		"command_id", inter.Data.ID, "name", inter.Data.Name, "guild_id", inter.GuildID)

	if d.cleaner != nil && !inter.GuildID.IsZero() {
		if _, err := d.cleaner.BulkOverwriteGuildCommands(ctx, d.app, inter.GuildID, nil); err != nil {
			d.logger.Warn("blind-spot guild command clear failed", "guild_id", inter.GuildID, "error", err)
		}
	}
	if err := inter.RespondMessage(ctx, blindSpotNotice, true); err != nil {
		d.logger.Warn("blind-spot notice failed", "interaction_id", inter.ID, "error", err)
	}
}

// routeError funnels a recognized invocation failure through the
// handler chain: the command's own handler, then the category
// default, then a logged trace. Never crashes the dispatch loop.
func (d *Dispatcher) routeError(ctx context.Context, eventName string, inter *Interaction, command *Command, err CommandError) {
	d.emit(eventName+errorSuffix, inter, err)

	if command.OnError != nil {
		command.OnError(ctx, inter, err)
		return
	}
	if handler := d.defaultHandler(inter.Data.Type); handler != nil {
		handler(ctx, inter, err)
		return
	}
	d.logger.Error("ignoring exception in command",
		"category", inter.Data.Type, "command", command.Name, "error", err)
}

func (d *Dispatcher) emit(event string, inter *Interaction, err error) {
	if d.emitter == nil {
		return
	}
	d.emitter.Emit(event, inter, err)
}

// eventNameFor maps a command category to its event name. Empty for
// unknown categories.
func eventNameFor(commandType rest.CommandType) string {
	switch normalizeType(commandType) {
	case rest.ChatInput:
		return EventSlashCommand
	case rest.User:
		return EventUserCommand
	case rest.Message:
		return EventMessageCommand
	default:
		return ""
	}
}
