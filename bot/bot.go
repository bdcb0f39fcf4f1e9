// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/accordlib/accord/gateway"
	"github.com/accordlib/accord/interactions"
	"github.com/accordlib/accord/lib/clock"
	"github.com/accordlib/accord/lib/config"
	"github.com/accordlib/accord/lib/ref"
	"github.com/accordlib/accord/rest"
)

// Intent bits for the gateway identify. Application command
// interactions arrive without any intent, so the zero value works
// for a pure slash-command bot.
const (
	IntentGuilds         = 1 << 0
	IntentGuildMessages  = 1 << 9
	IntentMessageContent = 1 << 15
)

// Options configures a Bot beyond what the config file carries.
type Options struct {
	Config *config.Config
	// Intents selects the gateway event groups. Zero is valid for
	// bots that only serve application commands.
	Intents int
	// HTTPClient overrides the REST transport.
	HTTPClient *http.Client
	// Clock defaults to clock.Real(). Tests inject clock.Fake.
	Clock clock.Clock
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Bot is the composition root: one REST client, one gateway session,
// and the command machinery wired between them.
type Bot struct {
	config     *config.Config
	logger     *slog.Logger
	rest       *rest.Client
	session    *gateway.Session
	registry   *interactions.Registry
	syncer     *interactions.Syncer
	dispatcher *interactions.Dispatcher
	events     *eventBus

	// started flips when Run begins; command changes after that point
	// schedule a debounced re-sync instead of waiting for startup.
	started  atomic.Bool
	prepared atomic.Bool
}

// New builds a Bot from the given options.
func New(options Options) (*Bot, error) {
	cfg := options.Config
	if cfg == nil {
		return nil, fmt.Errorf("bot: Options.Config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	app, err := cfg.Application()
	if err != nil {
		return nil, err
	}
	testGuilds, err := cfg.TestGuilds()
	if err != nil {
		return nil, err
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}

	baseURL := cfg.APIBaseURL
	if baseURL == "" {
		baseURL = config.DefaultAPIBaseURL
	}
	restClient, err := rest.NewClient(rest.ClientConfig{
		BaseURL:    baseURL,
		Token:      cfg.Token,
		HTTPClient: options.HTTPClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	registry := interactions.NewRegistry()
	syncer, err := interactions.NewSyncer(interactions.SyncerConfig{
		App:        app,
		API:        restClient,
		Registry:   registry,
		TestGuilds: testGuilds,
		Policy: interactions.SyncPolicy{
			Enabled:       cfg.Sync.Enabled,
			AllowDeletion: cfg.Sync.AllowDeletion,
			Debug:         cfg.Sync.Debug,
			Debounce:      cfg.Sync.Debounce,
		},
		Clock:  clk,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	events := newEventBus()
	dispatcher, err := interactions.NewDispatcher(interactions.DispatcherConfig{
		App:       app,
		Registry:  registry,
		Syncer:    syncer,
		Responder: restClient,
		Cleaner:   restClient,
		Emitter:   events,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		config:     cfg,
		logger:     logger,
		rest:       restClient,
		registry:   registry,
		syncer:     syncer,
		dispatcher: dispatcher,
		events:     events,
	}

	gatewayURL := cfg.GatewayURL
	if gatewayURL == "" {
		gatewayURL = config.DefaultGatewayURL
	}
	session, err := gateway.New(gateway.Config{
		URL:      gatewayURL,
		Token:    cfg.Token,
		Intents:  options.Intents,
		Compress: true,
		OnEvent:  bot.handleEvent,
		Clock:    clk,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	bot.session = session
	return bot, nil
}

// AddCommand registers a command. Registrations after Run has started
// schedule a debounced synchronization pass, so a burst of
// registrations (extensions loading) results in a single overwrite
// per affected scope.
func (b *Bot) AddCommand(command *interactions.Command) error {
	if err := b.registry.Add(command); err != nil {
		return err
	}
	if b.started.Load() {
		b.syncer.ScheduleSync()
	}
	return nil
}

// RemoveCommand unregisters a command for one scope. Returns the
// removed command, or nil if none matched.
func (b *Bot) RemoveCommand(name string, commandType rest.CommandType, guild ref.GuildID) *interactions.Command {
	command := b.registry.Remove(name, commandType, guild)
	if command != nil && b.started.Load() {
		b.syncer.ScheduleSync()
	}
	return command
}

// Command resolves a registered command by name, type, and scope.
func (b *Bot) Command(name string, commandType rest.CommandType, guild ref.GuildID) *interactions.Command {
	return b.registry.Get(name, commandType, guild)
}

// Commands returns all registered commands in registration order.
func (b *Bot) Commands() []*interactions.Command {
	return b.registry.All()
}

// AddCheck registers a global check evaluated before command
// handlers.
func (b *Bot) AddCheck(check interactions.Check, options interactions.CheckOptions) {
	b.dispatcher.AddCheck(check, options)
}

// RemoveCheck unregisters a global check. Idempotent.
func (b *Bot) RemoveCheck(check interactions.Check, options interactions.CheckOptions) {
	b.dispatcher.RemoveCheck(check, options)
}

// SetDefaultErrorHandler installs the fallback error handler for one
// command category.
func (b *Bot) SetDefaultErrorHandler(category rest.CommandType, handler interactions.ErrorHandler) {
	b.dispatcher.SetDefaultErrorHandler(category, handler)
}

// On subscribes a listener to a named event (e.g.,
// interactions.EventSlashCommand). Listeners run on their own
// goroutines.
func (b *Bot) On(event string, listener Listener) {
	b.events.on(event, listener)
}

// Rest exposes the underlying REST client for calls the library does
// not wrap.
func (b *Bot) Rest() *rest.Client { return b.rest }

// Run connects to the gateway and serves events until ctx is
// canceled. The startup command synchronization runs once, after the
// first successful session handshake.
func (b *Bot) Run(ctx context.Context) error {
	b.started.Store(true)
	defer b.rest.CloseIdleConnections()
	return b.session.Run(ctx)
}

// handleEvent runs on the gateway read loop. Interaction processing
// moves to its own goroutine so a slow handler cannot stall heartbeat
// reads.
func (b *Bot) handleEvent(eventType string, data json.RawMessage) {
	switch eventType {
	case "READY":
		if b.prepared.CompareAndSwap(false, true) {
			go func() {
				if err := b.syncer.PrepareCommands(context.Background()); err != nil {
					b.logger.Warn("startup command synchronization aborted", "error", err)
				}
			}()
		}
	case "INTERACTION_CREATE":
		var inter interactions.Interaction
		if err := json.Unmarshal(data, &inter); err != nil {
			b.logger.Warn("decoding interaction failed", "error", err)
			return
		}
		go b.processInteraction(&inter)
	}
}

func (b *Bot) processInteraction(inter *interactions.Interaction) {
	ctx := context.Background()
	var err error
	switch inter.Type {
	case interactions.InteractionApplicationCommand:
		err = b.dispatcher.ProcessInteraction(ctx, inter)
	case interactions.InteractionAutocomplete:
		err = b.dispatcher.ProcessAutocomplete(ctx, inter)
	default:
		return
	}
	if err != nil {
		b.logger.Error("interaction processing failed",
			"interaction_id", inter.ID, "command", inter.Data.Name, "error", err)
	}
}
