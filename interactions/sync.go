// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package interactions

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/accordlib/accord/lib/clock"
	"github.com/accordlib/accord/lib/ref"
	"github.com/accordlib/accord/rest"
)

// CommandAPI is the slice of the REST surface the syncer consumes.
// *rest.Client implements it; tests substitute fakes.
type CommandAPI interface {
	GlobalCommands(ctx context.Context, app ref.ApplicationID) ([]rest.ApplicationCommand, error)
	GuildCommands(ctx context.Context, app ref.ApplicationID, guild ref.GuildID) ([]rest.ApplicationCommand, error)
	BulkOverwriteGlobalCommands(ctx context.Context, app ref.ApplicationID, commands []rest.ApplicationCommand) ([]rest.ApplicationCommand, error)
	BulkOverwriteGuildCommands(ctx context.Context, app ref.ApplicationID, guild ref.GuildID, commands []rest.ApplicationCommand) ([]rest.ApplicationCommand, error)
}

// SyncPolicy holds the synchronization knobs.
type SyncPolicy struct {
	// Enabled turns synchronization on. When false, every sync entry
	// point is a no-op.
	Enabled bool
	// AllowDeletion permits removing remote commands with no local
	// counterpart.
	AllowDeletion bool
	// Debug promotes diff logging from debug to info level.
	Debug bool
	// Debounce is the delay before a runtime-triggered sync runs,
	// coalescing near-simultaneous registrations.
	Debounce time.Duration
}

// SyncerConfig configures a Syncer.
type SyncerConfig struct {
	App      ref.ApplicationID
	API      CommandAPI
	Registry *Registry
	// TestGuilds redirects global-by-default commands to these guilds.
	TestGuilds []ref.GuildID
	Policy     SyncPolicy
	// Clock defaults to clock.Real().
	Clock clock.Clock
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Syncer reconciles locally declared commands against the platform's
// registered command set: fetch per scope, diff, and one bulk
// overwrite per scope that changed. Snapshots of remote state are
// advisory caches — the platform remains the source of truth.
//
// At most one synchronization pass runs at a time. The global scope
// is fully processed before any guild scope; guild scopes run
// sequentially in registration order, which keeps writes out of the
// same rate-limit bucket from bursting.
type Syncer struct {
	app        ref.ApplicationID
	api        CommandAPI
	registry   *Registry
	testGuilds []ref.GuildID
	policy     SyncPolicy
	clock      clock.Clock
	logger     *slog.Logger

	mu sync.Mutex
	// queued is true while a pass is pending or running. A request
	// arriving while the timer is still pending is covered by that
	// pass (it reads the registry when it fires); a request arriving
	// while the pass is running sets dirty, and the finishing pass
	// re-arms the debounce instead of dropping the request.
	queued  bool
	running bool
	dirty   bool

	snapshots snapshotSet
}

// snapshotSet caches the last-fetched remote command state per scope.
type snapshotSet struct {
	mu sync.Mutex
	// global is nil until the global scope has been fetched at least
	// once.
	global map[ref.CommandID]rest.ApplicationCommand
	guilds map[ref.GuildID]map[ref.CommandID]rest.ApplicationCommand
}

// NewSyncer creates a Syncer.
func NewSyncer(config SyncerConfig) (*Syncer, error) {
	if config.API == nil {
		return nil, fmt.Errorf("interactions: SyncerConfig.API is required")
	}
	if config.Registry == nil {
		return nil, fmt.Errorf("interactions: SyncerConfig.Registry is required")
	}
	if config.App.IsZero() {
		return nil, fmt.Errorf("interactions: SyncerConfig.App is required")
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		app:        config.App,
		api:        config.API,
		registry:   config.Registry,
		testGuilds: config.TestGuilds,
		policy:     config.Policy,
		clock:      clk,
		logger:     logger,
		snapshots: snapshotSet{
			guilds: make(map[ref.GuildID]map[ref.CommandID]rest.ApplicationCommand),
		},
	}, nil
}

// Enabled reports whether synchronization is turned on.
func (s *Syncer) Enabled() bool { return s.policy.Enabled }

// Syncing reports whether a synchronization pass is queued or
// running. The dispatcher consults this before treating an unknown
// command ID as a blind spot.
func (s *Syncer) Syncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queued
}

// PrepareCommands runs the startup synchronization: cache remote
// state, reconcile, and back-fill assigned IDs. The host calls this
// once after the first successful gateway connection.
func (s *Syncer) PrepareCommands(ctx context.Context) error {
	if !s.policy.Enabled {
		return nil
	}
	s.mu.Lock()
	if s.queued {
		if s.running {
			s.dirty = true
		}
		s.mu.Unlock()
		return nil
	}
	s.queued = true
	s.running = true
	s.mu.Unlock()
	defer s.finishPass()

	s.cacheCommands(ctx)
	s.sync(ctx)
	s.fillCommandIDs()
	return ctx.Err()
}

// ScheduleSync queues a synchronization pass after the debounce
// interval, batching several near-simultaneous registrations (e.g.,
// extensions loading in sequence) into one pass. A no-op when
// synchronization is disabled. A request arriving while the timer is
// pending coalesces into that pass; one arriving while a pass is
// running is remembered, and a fresh pass is armed once the current
// one finishes, so a registration racing an in-flight sync is never
// dropped.
func (s *Syncer) ScheduleSync() {
	if !s.policy.Enabled {
		return
	}
	s.mu.Lock()
	if s.queued {
		if s.running {
			s.dirty = true
		}
		s.mu.Unlock()
		return
	}
	s.queued = true
	s.mu.Unlock()

	s.armDebounce()
}

// armDebounce schedules the debounced pass. The single-flight slot
// must already be held.
func (s *Syncer) armDebounce() {
	s.clock.AfterFunc(s.policy.Debounce, func() {
		s.mu.Lock()
		s.running = true
		s.mu.Unlock()
		defer s.finishPass()

		ctx := context.Background()
		s.cacheMissing(ctx)
		s.sync(ctx)
		s.fillCommandIDs()
	})
}

// finishPass releases the single-flight slot, or re-arms the debounce
// when another sync was requested while this pass ran.
func (s *Syncer) finishPass() {
	s.mu.Lock()
	s.running = false
	if s.dirty {
		s.dirty = false
		s.mu.Unlock()
		s.armDebounce()
		return
	}
	s.queued = false
	s.mu.Unlock()
}

// partition splits the registered commands into the global list and
// per-guild lists, in registration order. Commands with AutoSync
// disabled are marked always-synced so the diff never touches them.
func (s *Syncer) partition() (global []localCommand, guildOrder []ref.GuildID, guilds map[ref.GuildID][]localCommand) {
	guilds = make(map[ref.GuildID][]localCommand)
	for _, command := range s.registry.All() {
		declared := localCommand{
			wire:         command.wire(),
			alwaysSynced: !command.autoSync(),
		}

		guildIDs := command.GuildIDs
		if len(guildIDs) == 0 {
			guildIDs = s.testGuilds
		}
		if len(guildIDs) == 0 {
			global = append(global, declared)
			continue
		}
		for _, guild := range guildIDs {
			if _, seen := guilds[guild]; !seen {
				guildOrder = append(guildOrder, guild)
			}
			guilds[guild] = append(guilds[guild], declared)
		}
	}
	return global, guildOrder, guilds
}

// cacheCommands fetches the remote command state for the global scope
// and every guild scope that has local commands. A fetch failure
// abandons that scope for this pass — the stale snapshot (if any) is
// kept and the scope's sync is skipped rather than run against
// unknown remote state.
//
// Only explicitly configured guilds are fetched. Probing every guild
// the bot is in would pile up Forbidden responses and exhaust the
// platform's invalid-request quota; the resulting blind spots are
// handled at dispatch time.
func (s *Syncer) cacheCommands(ctx context.Context) {
	_, guildOrder, _ := s.partition()

	commands, err := s.api.GlobalCommands(ctx, s.app)
	if err != nil {
		s.logger.Warn("fetching global commands failed, skipping scope this pass", "error", err)
	} else {
		s.snapshots.setGlobal(commands)

		// Assigned IDs that vanished remotely are stale; clear them so
		// dispatch doesn't route against dead identities.
		known := make(map[ref.CommandID]bool, len(commands))
		for _, command := range commands {
			known[command.ID] = true
		}
		for _, command := range s.registry.All() {
			if !command.ID().IsZero() && !known[command.ID()] {
				s.registry.clearID(command)
			}
		}
	}

	for _, guild := range guildOrder {
		commands, err := s.api.GuildCommands(ctx, s.app, guild)
		if err != nil {
			s.logger.Warn("fetching guild commands failed, skipping scope this pass",
				"guild_id", guild, "error", err)
			continue
		}
		s.snapshots.setGuild(guild, commands)
	}
}

// cacheMissing fetches remote state for every scope that has no
// snapshot yet: guilds that gained their first local command after
// startup, and scopes whose startup fetch failed. Scheduled passes
// run this before diffing so such scopes still converge; scopes
// already cached keep diffing against their snapshot, and the bulk
// overwrite self-corrects any staleness on push.
func (s *Syncer) cacheMissing(ctx context.Context) {
	_, guildOrder, _ := s.partition()

	if _, fetched := s.snapshots.globalCommands(); !fetched {
		commands, err := s.api.GlobalCommands(ctx, s.app)
		if err != nil {
			s.logger.Warn("fetching global commands failed, skipping scope this pass", "error", err)
		} else {
			s.snapshots.setGlobal(commands)
		}
	}

	for _, guild := range guildOrder {
		if _, fetched := s.snapshots.guildCommands(guild); fetched {
			continue
		}
		commands, err := s.api.GuildCommands(ctx, s.app, guild)
		if err != nil {
			s.logger.Warn("fetching guild commands failed, skipping scope this pass",
				"guild_id", guild, "error", err)
			continue
		}
		s.snapshots.setGuild(guild, commands)
	}
}

// sync diffs every scope against its snapshot and pushes one bulk
// overwrite per scope that changed. Zero diff means zero writes. A
// push failure is a warning; the scope stays inconsistent until the
// next pass and never blocks the remaining scopes.
func (s *Syncer) sync(ctx context.Context) {
	if !s.policy.Enabled {
		return
	}

	global, guildOrder, guilds := s.partition()

	if remote, fetched := s.snapshots.globalCommands(); fetched {
		diff := diffCommands(global, remote)
		if !s.policy.AllowDeletion {
			diff.retainDeletions()
		}
		s.logDiff("global", diff)

		if diff.UpdateRequired() {
			result, err := s.api.BulkOverwriteGlobalCommands(ctx, s.app, diff.CommandList())
			if err != nil {
				s.logger.Warn("overwriting global commands failed", "error", err)
			} else {
				s.snapshots.setGlobal(result)
			}
		}
	}

	for _, guild := range guildOrder {
		remote, fetched := s.snapshots.guildCommands(guild)
		if !fetched {
			continue
		}
		diff := diffCommands(guilds[guild], remote)
		if !s.policy.AllowDeletion {
			diff.retainDeletions()
		}
		s.logDiff(guild.String(), diff)

		if diff.UpdateRequired() {
			result, err := s.api.BulkOverwriteGuildCommands(ctx, s.app, guild, diff.CommandList())
			if err != nil {
				s.logger.Warn("overwriting guild commands failed", "guild_id", guild, "error", err)
			} else {
				s.snapshots.setGuild(guild, result)
			}
		}
	}

	s.logSync("command synchronization pass finished")
}

// fillCommandIDs back-fills platform-assigned IDs into the registry
// by matching snapshot commands to local descriptors by name, type,
// and scope. Descriptors with no match keep a zero ID until the next
// successful sync.
func (s *Syncer) fillCommandIDs() {
	fill := func(guild ref.GuildID, commands map[ref.CommandID]rest.ApplicationCommand) {
		for id, remote := range commands {
			command := s.lookupLocal(remote.Name, normalizeType(remote.Type), guild)
			if command == nil {
				continue
			}
			if command.ID().IsZero() {
				s.registry.setID(command, id)
			}
		}
	}

	global, guilds := s.snapshots.all()
	if global != nil {
		fill(ref.GuildID{}, global)
	}
	for guild, commands := range guilds {
		fill(guild, commands)
	}
}

// lookupLocal resolves a remote command of one scope to its local
// descriptor. Commands registered under the global key but synced to
// test guilds are found under the global key.
func (s *Syncer) lookupLocal(name string, commandType rest.CommandType, guild ref.GuildID) *Command {
	if command := s.registry.Get(name, commandType, guild); command != nil {
		return command
	}
	if guild.IsZero() {
		return nil
	}
	for _, testGuild := range s.testGuilds {
		if testGuild == guild {
			return s.registry.Get(name, commandType, ref.GuildID{})
		}
	}
	return nil
}

// KnownCommand reports whether the assigned command ID appears in the
// global snapshot or the given guild's snapshot.
func (s *Syncer) KnownCommand(id ref.CommandID, guild ref.GuildID) bool {
	return s.snapshots.contains(id, guild)
}

// logDiff logs a computed scope diff. Debug policy promotes it to
// info so operators can watch a sync without raising the global log
// level.
func (s *Syncer) logDiff(scope string, diff *Diff) {
	s.logSync("computed command diff",
		"scope", scope,
		"update_required", diff.UpdateRequired(),
		"diff", "\n"+diff.String(),
	)
}

func (s *Syncer) logSync(msg string, args ...any) {
	if s.policy.Debug {
		s.logger.Info(msg, args...)
	} else {
		s.logger.Debug(msg, args...)
	}
}

func (set *snapshotSet) setGlobal(commands []rest.ApplicationCommand) {
	set.mu.Lock()
	defer set.mu.Unlock()
	set.global = make(map[ref.CommandID]rest.ApplicationCommand, len(commands))
	for _, command := range commands {
		set.global[command.ID] = command
	}
}

func (set *snapshotSet) setGuild(guild ref.GuildID, commands []rest.ApplicationCommand) {
	set.mu.Lock()
	defer set.mu.Unlock()
	snapshot := make(map[ref.CommandID]rest.ApplicationCommand, len(commands))
	for _, command := range commands {
		snapshot[command.ID] = command
	}
	set.guilds[guild] = snapshot
}

// globalCommands returns the cached global commands and whether the
// scope has been fetched at all.
func (set *snapshotSet) globalCommands() ([]rest.ApplicationCommand, bool) {
	set.mu.Lock()
	defer set.mu.Unlock()
	if set.global == nil {
		return nil, false
	}
	commands := make([]rest.ApplicationCommand, 0, len(set.global))
	for _, command := range set.global {
		commands = append(commands, command)
	}
	return commands, true
}

func (set *snapshotSet) guildCommands(guild ref.GuildID) ([]rest.ApplicationCommand, bool) {
	set.mu.Lock()
	defer set.mu.Unlock()
	snapshot, fetched := set.guilds[guild]
	if !fetched {
		return nil, false
	}
	commands := make([]rest.ApplicationCommand, 0, len(snapshot))
	for _, command := range snapshot {
		commands = append(commands, command)
	}
	return commands, true
}

func (set *snapshotSet) contains(id ref.CommandID, guild ref.GuildID) bool {
	set.mu.Lock()
	defer set.mu.Unlock()
	if _, known := set.global[id]; known {
		return true
	}
	if snapshot, fetched := set.guilds[guild]; fetched {
		_, known := snapshot[id]
		return known
	}
	return false
}

func (set *snapshotSet) all() (map[ref.CommandID]rest.ApplicationCommand, map[ref.GuildID]map[ref.CommandID]rest.ApplicationCommand) {
	set.mu.Lock()
	defer set.mu.Unlock()
	guilds := make(map[ref.GuildID]map[ref.CommandID]rest.ApplicationCommand, len(set.guilds))
	for guild, snapshot := range set.guilds {
		guilds[guild] = snapshot
	}
	return set.global, guilds
}
