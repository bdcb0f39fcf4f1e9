// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package interactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/accordlib/accord/lib/clock"
	"github.com/accordlib/accord/lib/ref"
	"github.com/accordlib/accord/rest"
)

type fakeResponder struct {
	mu        sync.Mutex
	err       error
	responses []rest.InteractionResponse
}

func (r *fakeResponder) CreateInteractionResponse(ctx context.Context, id ref.InteractionID, token string, response rest.InteractionResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, response)
	return r.err
}

func (r *fakeResponder) sent() []rest.InteractionResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]rest.InteractionResponse(nil), r.responses...)
}

type fakeCleaner struct {
	mu     sync.Mutex
	err    error
	clears []ref.GuildID
}

func (c *fakeCleaner) BulkOverwriteGuildCommands(ctx context.Context, app ref.ApplicationID, guild ref.GuildID, commands []rest.ApplicationCommand) ([]rest.ApplicationCommand, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(commands) != 0 {
		return nil, fmt.Errorf("blind-spot clear must push an empty set, got %d commands", len(commands))
	}
	c.clears = append(c.clears, guild)
	return nil, c.err
}

func (c *fakeCleaner) cleared() []ref.GuildID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ref.GuildID(nil), c.clears...)
}

type emittedEvent struct {
	name string
	err  error
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []emittedEvent
}

func (e *recordingEmitter) Emit(event string, inter *Interaction, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emittedEvent{name: event, err: err})
}

func (e *recordingEmitter) names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, len(e.events))
	for i, event := range e.events {
		names[i] = event.name
	}
	return names
}

type dispatchFixture struct {
	registry   *Registry
	api        *fakeAPI
	clock      *clock.FakeClock
	syncer     *Syncer
	dispatcher *Dispatcher
	responder  *fakeResponder
	cleaner    *fakeCleaner
	emitter    *recordingEmitter
}

// newDispatchFixture registers the commands, runs the startup sync so
// they carry platform-assigned IDs, and wires a dispatcher around
// recording fakes.
func newDispatchFixture(t *testing.T, policy SyncPolicy, commands ...*Command) *dispatchFixture {
	t.Helper()

	registry := NewRegistry()
	for _, command := range commands {
		if err := registry.Add(command); err != nil {
			t.Fatalf("Add(%s): %v", command.Name, err)
		}
	}

	api := newFakeAPI()
	clk := clock.Fake(time.Unix(0, 0))
	syncer := newTestSyncer(t, registry, api, policy, clk)
	if err := syncer.PrepareCommands(context.Background()); err != nil {
		t.Fatalf("PrepareCommands: %v", err)
	}

	responder := &fakeResponder{}
	cleaner := &fakeCleaner{}
	emitter := &recordingEmitter{}
	dispatcher, err := NewDispatcher(DispatcherConfig{
		App:       testApplication,
		Registry:  registry,
		Syncer:    syncer,
		Responder: responder,
		Cleaner:   cleaner,
		Emitter:   emitter,
		Logger:    slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	return &dispatchFixture{
		registry:   registry,
		api:        api,
		clock:      clk,
		syncer:     syncer,
		dispatcher: dispatcher,
		responder:  responder,
		cleaner:    cleaner,
		emitter:    emitter,
	}
}

// commandInteraction builds the inbound event the gateway would
// deliver for an invocation of the given registered command.
func commandInteraction(command *Command, guild ref.GuildID) *Interaction {
	return &Interaction{
		ID:            ref.InteractionID{Snowflake: 1},
		ApplicationID: testApplication,
		Type:          InteractionApplicationCommand,
		GuildID:       guild,
		Token:         "interaction-token",
		Data: InteractionData{
			ID:   command.ID(),
			Name: command.Name,
			Type: command.commandType(),
		},
	}
}

func TestProcessInteractionInvokesHandler(t *testing.T) {
	invoked := false
	ping := &Command{
		Name:        "ping",
		Description: "pong",
		Handler: func(ctx context.Context, inter *Interaction) error {
			invoked = true
			if inter.Command() == nil || inter.Command().Name != "ping" {
				t.Errorf("interaction not bound to its command: %+v", inter.Command())
			}
			return inter.RespondMessage(ctx, "pong", false)
		},
	}
	fixture := newDispatchFixture(t, enabledPolicy(), ping)

	err := fixture.dispatcher.ProcessInteraction(context.Background(), commandInteraction(ping, ref.GuildID{}))
	if err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	if !invoked {
		t.Fatal("handler was not invoked")
	}

	names := fixture.emitter.names()
	if len(names) != 2 || names[0] != EventSlashCommand || names[1] != EventSlashCommand+"_completion" {
		t.Errorf("unexpected event sequence: %v", names)
	}
	sent := fixture.responder.sent()
	if len(sent) != 1 || sent[0].Data.Content != "pong" {
		t.Errorf("unexpected responses: %+v", sent)
	}
}

func TestBlindSpotRecovery(t *testing.T) {
	handlerRan := false
	ping := &Command{
		Name:        "ping",
		Description: "pong",
		Handler: func(ctx context.Context, inter *Interaction) error {
			handlerRan = true
			return nil
		},
	}
	fixture := newDispatchFixture(t, enabledPolicy(), ping)

	// An interaction from a guild the syncer never fetched, carrying
	// an ID outside every snapshot.
	guild := ref.GuildID{Snowflake: 7777}
	inter := commandInteraction(ping, guild)
	inter.Data.ID = ref.CommandID{Snowflake: 424242}

	if err := fixture.dispatcher.ProcessInteraction(context.Background(), inter); err != nil {
		t.Fatalf("blind-spot recovery must not surface an error: %v", err)
	}

	if handlerRan {
		t.Error("no handler may run for an unknown command ID")
	}
	cleared := fixture.cleaner.cleared()
	if len(cleared) != 1 || cleared[0] != guild {
		t.Errorf("expected a corrective clear of guild %v, got %v", guild, cleared)
	}
	sent := fixture.responder.sent()
	if len(sent) != 1 {
		t.Fatalf("expected the transient notice, got %+v", sent)
	}
	if sent[0].Data.Content != blindSpotNotice || sent[0].Data.Flags&rest.MessageFlagEphemeral == 0 {
		t.Errorf("notice must be ephemeral and use the canonical text: %+v", sent[0])
	}
	if len(fixture.emitter.names()) != 0 {
		t.Errorf("no lifecycle events for a recovered blind spot: %v", fixture.emitter.names())
	}
}

func TestBlindSpotRecoveryToleratesFailures(t *testing.T) {
	ping := &Command{Name: "ping", Description: "pong", Handler: func(ctx context.Context, inter *Interaction) error { return nil }}
	fixture := newDispatchFixture(t, enabledPolicy(), ping)
	fixture.cleaner.err = fmt.Errorf("missing access")
	fixture.responder.err = fmt.Errorf("interaction expired")

	inter := commandInteraction(ping, ref.GuildID{Snowflake: 7777})
	inter.Data.ID = ref.CommandID{Snowflake: 424242}

	if err := fixture.dispatcher.ProcessInteraction(context.Background(), inter); err != nil {
		t.Fatalf("recovery failures are best-effort, got %v", err)
	}
}

func TestBlindSpotInDMSkipsClear(t *testing.T) {
	ping := &Command{Name: "ping", Description: "pong", Handler: func(ctx context.Context, inter *Interaction) error { return nil }}
	fixture := newDispatchFixture(t, enabledPolicy(), ping)

	inter := commandInteraction(ping, ref.GuildID{})
	inter.Data.ID = ref.CommandID{Snowflake: 424242}

	if err := fixture.dispatcher.ProcessInteraction(context.Background(), inter); err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	if len(fixture.cleaner.cleared()) != 0 {
		t.Error("there is no guild scope to clear for a DM interaction")
	}
	if len(fixture.responder.sent()) != 1 {
		t.Error("the transient notice is still sent")
	}
}

func TestUnknownIDIgnoredWhileSyncQueued(t *testing.T) {
	ping := &Command{Name: "ping", Description: "pong", Handler: func(ctx context.Context, inter *Interaction) error { return nil }}
	fixture := newDispatchFixture(t, enabledPolicy(), ping)

	// Queue a pass but never advance the clock: snapshots are about to
	// change, so the unknown ID is not evidence of a blind spot.
	fixture.syncer.ScheduleSync()

	inter := commandInteraction(ping, ref.GuildID{Snowflake: 7777})
	inter.Data.ID = ref.CommandID{Snowflake: 424242}

	if err := fixture.dispatcher.ProcessInteraction(context.Background(), inter); err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	if len(fixture.cleaner.cleared()) != 0 || len(fixture.responder.sent()) != 0 {
		t.Error("no recovery may run while a sync pass is queued")
	}
}

func TestUnknownIDIgnoredWhenSyncDisabled(t *testing.T) {
	ping := &Command{Name: "ping", Description: "pong", Handler: func(ctx context.Context, inter *Interaction) error { return nil }}
	fixture := newDispatchFixture(t, SyncPolicy{Enabled: false}, ping)

	inter := commandInteraction(ping, ref.GuildID{Snowflake: 7777})
	inter.Data.ID = ref.CommandID{Snowflake: 424242}

	if err := fixture.dispatcher.ProcessInteraction(context.Background(), inter); err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	if len(fixture.cleaner.cleared()) != 0 || len(fixture.responder.sent()) != 0 {
		t.Error("disabled sync means the platform set is managed out-of-band; ignore silently")
	}
}

func TestCommandErrorRoutedToOwnHandler(t *testing.T) {
	var routed CommandError
	failing := &Command{
		Name:        "guarded",
		Description: "g",
		Handler: func(ctx context.Context, inter *Interaction) error {
			return &MissingPermissions{Missing: []string{"ban_members"}}
		},
		OnError: func(ctx context.Context, inter *Interaction, err CommandError) {
			routed = err
		},
	}
	fixture := newDispatchFixture(t, enabledPolicy(), failing)
	fixture.dispatcher.SetDefaultErrorHandler(rest.ChatInput, func(ctx context.Context, inter *Interaction, err CommandError) {
		t.Error("the command's own handler takes precedence over the category default")
	})

	err := fixture.dispatcher.ProcessInteraction(context.Background(), commandInteraction(failing, ref.GuildID{}))
	if err != nil {
		t.Fatalf("recognized command errors are routed, not returned: %v", err)
	}

	var missing *MissingPermissions
	if !errors.As(routed, &missing) || missing.Missing[0] != "ban_members" {
		t.Errorf("unexpected routed error: %v", routed)
	}
	names := fixture.emitter.names()
	if len(names) != 2 || names[1] != EventSlashCommand+"_error" {
		t.Errorf("expected the error event after the pre-event: %v", names)
	}
}

func TestCommandErrorFallsBackToCategoryDefault(t *testing.T) {
	failing := &Command{
		Name:        "cooled",
		Description: "c",
		Handler: func(ctx context.Context, inter *Interaction) error {
			return &CommandOnCooldown{RetryAfter: 3 * time.Second}
		},
	}
	fixture := newDispatchFixture(t, enabledPolicy(), failing)

	var routed CommandError
	fixture.dispatcher.SetDefaultErrorHandler(rest.ChatInput, func(ctx context.Context, inter *Interaction, err CommandError) {
		routed = err
	})

	if err := fixture.dispatcher.ProcessInteraction(context.Background(), commandInteraction(failing, ref.GuildID{})); err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	var cooldown *CommandOnCooldown
	if !errors.As(routed, &cooldown) || cooldown.RetryAfter != 3*time.Second {
		t.Errorf("unexpected routed error: %v", routed)
	}
}

func TestSetDefaultErrorHandlerConcurrentWithDispatch(t *testing.T) {
	failing := &Command{
		Name:        "flaky",
		Description: "f",
		Handler: func(ctx context.Context, inter *Interaction) error {
			return &CheckFailure{Message: "nope"}
		},
	}
	fixture := newDispatchFixture(t, enabledPolicy(), failing)

	// Handlers may be installed while interactions are in flight; the
	// dispatcher must not race.
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				fixture.dispatcher.SetDefaultErrorHandler(rest.ChatInput,
					func(ctx context.Context, inter *Interaction, err CommandError) {})
			}
		}()
	}
	for range 50 {
		if err := fixture.dispatcher.ProcessInteraction(context.Background(), commandInteraction(failing, ref.GuildID{})); err != nil {
			t.Fatalf("ProcessInteraction: %v", err)
		}
	}
	wg.Wait()
}

func TestNonCommandErrorPropagates(t *testing.T) {
	cause := fmt.Errorf("database down")
	failing := &Command{
		Name:        "broken",
		Description: "b",
		Handler: func(ctx context.Context, inter *Interaction) error {
			return cause
		},
		OnError: func(ctx context.Context, inter *Interaction, err CommandError) {
			t.Error("error handlers must not see errors outside the command taxonomy")
		},
	}
	fixture := newDispatchFixture(t, enabledPolicy(), failing)

	err := fixture.dispatcher.ProcessInteraction(context.Background(), commandInteraction(failing, ref.GuildID{}))
	if !errors.Is(err, cause) {
		t.Fatalf("the original error must be wrapped and returned, got %v", err)
	}
	for _, name := range fixture.emitter.names() {
		if name == EventSlashCommand+"_completion" {
			t.Error("a failed invocation must not emit completion")
		}
	}
}

func TestGlobalCheckRejectionShortCircuits(t *testing.T) {
	handlerRan := false
	perCallRan := false
	ping := &Command{
		Name:        "ping",
		Description: "pong",
		Handler: func(ctx context.Context, inter *Interaction) error {
			handlerRan = true
			return nil
		},
	}
	fixture := newDispatchFixture(t, enabledPolicy(), ping)

	fixture.dispatcher.AddCheck(func(inter *Interaction) error {
		return fmt.Errorf("maintenance window")
	}, CheckOptions{CallOnce: true, SlashCommands: true})
	fixture.dispatcher.AddCheck(func(inter *Interaction) error {
		perCallRan = true
		return nil
	}, CheckOptions{SlashCommands: true})

	var routed CommandError
	fixture.dispatcher.SetDefaultErrorHandler(rest.ChatInput, func(ctx context.Context, inter *Interaction, err CommandError) {
		routed = err
	})

	if err := fixture.dispatcher.ProcessInteraction(context.Background(), commandInteraction(ping, ref.GuildID{})); err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	if handlerRan || perCallRan {
		t.Error("a rejected call-once check must stop the run before per-call checks and the handler")
	}
	var failure *CheckFailure
	if !errors.As(routed, &failure) {
		t.Fatalf("plain check errors are wrapped in *CheckFailure, got %v", routed)
	}
	if failure.Unwrap() == nil || failure.Unwrap().Error() != "maintenance window" {
		t.Errorf("the original rejection must stay reachable: %v", failure.Unwrap())
	}
}

func TestCheckCategoryScoping(t *testing.T) {
	ping := &Command{
		Name:        "ping",
		Description: "pong",
		Handler:     func(ctx context.Context, inter *Interaction) error { return nil },
	}
	fixture := newDispatchFixture(t, enabledPolicy(), ping)

	fixture.dispatcher.AddCheck(func(inter *Interaction) error {
		return fmt.Errorf("user commands only")
	}, CheckOptions{UserCommands: true})

	if err := fixture.dispatcher.ProcessInteraction(context.Background(), commandInteraction(ping, ref.GuildID{})); err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	names := fixture.emitter.names()
	if len(names) != 2 || names[1] != EventSlashCommand+"_completion" {
		t.Errorf("a user-command check must not reject a slash invocation: %v", names)
	}
}

func TestRemoveCheckRestoresInvocation(t *testing.T) {
	ping := &Command{
		Name:        "ping",
		Description: "pong",
		Handler:     func(ctx context.Context, inter *Interaction) error { return nil },
	}
	fixture := newDispatchFixture(t, enabledPolicy(), ping)

	reject := func(inter *Interaction) error { return fmt.Errorf("no") }
	options := CheckOptions{SlashCommands: true}
	fixture.dispatcher.AddCheck(reject, options)
	fixture.dispatcher.RemoveCheck(reject, options)
	fixture.dispatcher.RemoveCheck(reject, options) // idempotent

	if err := fixture.dispatcher.ProcessInteraction(context.Background(), commandInteraction(ping, ref.GuildID{})); err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	names := fixture.emitter.names()
	if len(names) != 2 || names[1] != EventSlashCommand+"_completion" {
		t.Errorf("removed check still rejecting: %v", names)
	}
}

func TestProcessAutocomplete(t *testing.T) {
	search := &Command{
		Name:        "search",
		Description: "s",
		Options: []rest.Option{
			{Type: rest.OptionString, Name: "query", Description: "q", Autocomplete: true},
		},
		Handler: func(ctx context.Context, inter *Interaction) error { return nil },
		Autocomplete: func(ctx context.Context, inter *Interaction) ([]rest.OptionChoice, error) {
			focused := inter.FocusedOption()
			if focused == nil || focused.Name != "query" {
				t.Errorf("focused option not surfaced: %+v", focused)
			}
			return []rest.OptionChoice{{Name: "golang", Value: []byte(`"golang"`)}}, nil
		},
	}
	fixture := newDispatchFixture(t, enabledPolicy(), search)

	inter := commandInteraction(search, ref.GuildID{Snowflake: 7777})
	inter.Type = InteractionAutocomplete
	inter.Data.Options = []InteractionOption{
		{Name: "query", Type: rest.OptionString, Value: []byte(`"gol"`), Focused: true},
	}

	// Resolution falls back to the global key for guilds the command
	// is not registered in.
	if err := fixture.dispatcher.ProcessAutocomplete(context.Background(), inter); err != nil {
		t.Fatalf("ProcessAutocomplete: %v", err)
	}

	sent := fixture.responder.sent()
	if len(sent) != 1 || sent[0].Type != rest.CallbackAutocompleteResult {
		t.Fatalf("expected an autocomplete result response: %+v", sent)
	}
	if len(sent[0].Data.Choices) != 1 || sent[0].Data.Choices[0].Name != "golang" {
		t.Errorf("unexpected choices: %+v", sent[0].Data.Choices)
	}
}

func TestProcessAutocompleteUnknownCommandIgnored(t *testing.T) {
	fixture := newDispatchFixture(t, enabledPolicy())

	inter := &Interaction{
		ID:    ref.InteractionID{Snowflake: 1},
		Type:  InteractionAutocomplete,
		Token: "tok",
		Data:  InteractionData{Name: "ghost"},
	}
	if err := fixture.dispatcher.ProcessAutocomplete(context.Background(), inter); err != nil {
		t.Fatalf("unknown autocomplete targets are ignored: %v", err)
	}
	if len(fixture.responder.sent()) != 0 {
		t.Errorf("no response expected: %+v", fixture.responder.sent())
	}
}
