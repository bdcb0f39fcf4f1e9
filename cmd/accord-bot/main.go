// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

// accord-bot is a small demonstration bot: it registers a handful of
// application commands, synchronizes them against the platform, and
// serves interactions until interrupted.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/accordlib/accord/bot"
	"github.com/accordlib/accord/interactions"
	"github.com/accordlib/accord/lib/config"
	"github.com/accordlib/accord/rest"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.String("config", "", "path to the YAML config file (defaults to $ACCORD_CONFIG)")
	logLevel := pflag.String("log-level", "info", "log level: debug, info, warn, error")
	showVersion := pflag.Bool("version", false, "print the version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("accord-bot %s\n", version)
		return nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		return fmt.Errorf("parsing --log-level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	b, err := bot.New(bot.Options{
		Config:  cfg,
		Intents: bot.IntentGuilds,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	if err := registerCommands(b); err != nil {
		return err
	}

	b.SetDefaultErrorHandler(rest.ChatInput, func(ctx context.Context, inter *interactions.Interaction, cmdErr interactions.CommandError) {
		logger.Warn("command rejected", "command", inter.Data.Name, "error", cmdErr)
		if err := inter.RespondMessage(ctx, cmdErr.Error(), true); err != nil {
			logger.Warn("sending rejection notice failed", "error", err)
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting accord-bot", "version", version)
	err = b.Run(ctx)
	if ctx.Err() != nil {
		logger.Info("shutting down")
		return nil
	}
	return err
}

func registerCommands(b *bot.Bot) error {
	ping := &interactions.Command{
		Name:        "ping",
		Description: "Check that the bot is alive.",
		Handler: func(ctx context.Context, inter *interactions.Interaction) error {
			return inter.RespondMessage(ctx, "pong", false)
		},
	}

	echo := &interactions.Command{
		Name:        "echo",
		Description: "Repeat a message back.",
		Options: []rest.Option{{
			Type:        rest.OptionString,
			Name:        "message",
			Description: "What to repeat.",
			Required:    true,
		}},
		Handler: func(ctx context.Context, inter *interactions.Interaction) error {
			option := inter.Option("message")
			if option == nil {
				return &interactions.BadArgument{Option: "message", Message: "missing"}
			}
			message, err := option.StringValue()
			if err != nil {
				return err
			}
			return inter.RespondMessage(ctx, message, false)
		},
	}

	uptime := time.Now()
	status := &interactions.Command{
		Name:        "status",
		Description: "Show bot status.",
		Handler: func(ctx context.Context, inter *interactions.Interaction) error {
			return inter.RespondMessage(ctx,
				fmt.Sprintf("up %s", time.Since(uptime).Round(time.Second)), true)
		},
	}

	for _, command := range []*interactions.Command{ping, echo, status} {
		if err := b.AddCommand(command); err != nil {
			return err
		}
	}
	return nil
}
