package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/germanamz/texto/pkg/engine"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	ConfigPath string
	EnvFile    string
	Address    string
	Verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "texto",
		Short: "Client for texto messaging servers",
		Long: `texto connects to a texto messaging server over a WebSocket, binds a
session and exchanges text messages with other sessions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadDotEnv(opts.EnvFile)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to configuration file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env", ".env", "path to .env file (ignored if missing)")
	cmd.PersistentFlags().StringVarP(&opts.Address, "address", "a", "", "server address (overrides the config file)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(newChatCommand(opts))
	cmd.AddCommand(newSendCommand(opts))
	cmd.AddCommand(newListenCommand(opts))
	cmd.AddCommand(newStressCommand(opts))

	return cmd
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// loadConfig resolves the engine configuration: the config file if one is
// given, then flag overrides.
func loadConfig(opts *rootOptions) (engine.Config, error) {
	cfg := engine.DefaultConfig()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = engine.LoadConfig(opts.ConfigPath); err != nil {
			return engine.Config{}, err
		}
	}

	if opts.Address != "" {
		cfg.Address = opts.Address
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return engine.Config{}, err
	}

	return cfg, nil
}

func newLogger(w io.Writer, cfg engine.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// connect builds an engine from the command's flags and waits for its
// session. The caller owns the returned engine.
func connect(ctx context.Context, cmd *cobra.Command, opts *rootOptions, extra ...engine.Option) (*engine.Engine, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	engineOpts := append([]engine.Option{engine.WithLogger(newLogger(cmd.ErrOrStderr(), cfg))}, extra...)

	e, err := engine.New(cfg, engineOpts...)
	if err != nil {
		return nil, err
	}

	if err := e.Connect(ctx); err != nil {
		_ = e.Close()
		return nil, fmt.Errorf("connect to %s: %w", cfg.Address, err)
	}

	return e, nil
}

// waitClosed blocks until e's connection is torn down or ctx ends.
func waitClosed(ctx context.Context, e *engine.Engine) error {
	select {
	case <-ctx.Done():
		return nil
	case <-e.Done():
		return engine.ErrConnectionClosed
	}
}
