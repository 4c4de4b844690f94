// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbot/internal/config"
	"github.com/jeranaias/chatbot/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	backendURL string
	logLevel   string
	noColor    bool
	jsonOutput bool
}

// env is what a command runs with. It is filled in by the root command's
// PersistentPreRunE, or by tests before executing a command.
type env struct {
	opts   globalOptions
	cfg    *config.Config
	logger zerolog.Logger
	closer io.Closer

	// newApp builds the App for commands that talk to the backend.
	newApp func(out io.Writer) (*App, error)
}

// NewRootCommand builds the chatbot command tree.
func NewRootCommand() *cobra.Command {
	e := &env{}
	return newRootCommand(e)
}

func newRootCommand(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "chatbot",
		Short: "Terminal client for a chat backend",
		Long: `chatbot talks to a chat backend over HTTP. Type messages to chat,
prefix them with /search or /wiki to look things up, attach files, and save
conversations on the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return e.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if e.closer != nil {
				e.closer.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), e, cmd.OutOrStdout())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&e.opts.configPath, "config", "", "config file (default ~/.chatbot/config.toml)")
	flags.StringVar(&e.opts.backendURL, "backend", "", "backend base URL (overrides config)")
	flags.StringVar(&e.opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	flags.BoolVar(&e.opts.noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&e.opts.jsonOutput, "json", false, "print machine-readable output where supported")

	root.AddCommand(
		newChatCommand(e),
		newAskCommand(e),
		newUploadCommand(e),
		newSettingsCommand(e),
		newConversationsCommand(e),
		newExportCommand(e),
		newConfigCommand(e),
		newVersionCommand(),
	)
	return root
}

// setup loads the configuration, applies flag overrides and configures
// logging. Configuration problems are warnings; defaults are used.
func (e *env) setup() error {
	if e.cfg == nil {
		cfg, err := loadConfig(e.opts.configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v (using defaults)\n", WarningStyle.Render("[!]"), err)
		}
		if cfg == nil {
			cfg = config.Default()
			cfg.SetDefaults()
		}
		e.cfg = cfg
	}
	if e.opts.backendURL != "" {
		e.cfg.Backend.BaseURL = e.opts.backendURL
	}
	if e.opts.logLevel != "" {
		e.cfg.Logging.Level = e.opts.logLevel
	}
	if e.opts.noColor {
		e.cfg.UI.Color = "never"
	}

	logger, closer, err := logging.Setup(e.cfg.Logging)
	if err != nil {
		return NewCommandError("chatbot", "start", "logging setup", err)
	}
	e.logger, e.closer = logger, closer

	if e.newApp == nil {
		e.newApp = func(w io.Writer) (*App, error) {
			return NewApp(e.cfg, AppOptions{
				Out:         w,
				Interactive: w == io.Writer(os.Stdout) && IsStdoutTTY(),
				Logger:      e.logger,
			})
		}
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// Execute runs the root command and exits with a code matching the error.
func Execute() {
	root := NewRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		jsonMode, _ := root.PersistentFlags().GetBool("json")
		DisplayError(os.Stderr, err, jsonMode)
		os.Exit(GetExitCode(err))
	}
}

// =============================================================================
// CHAT
// =============================================================================

func newChatCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

Type a message and press Enter. Lines starting with /search or /wiki query the
web or Wikipedia; other slash commands are listed by /help.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), e, cmd.OutOrStdout())
		},
	}
}

func runChat(ctx context.Context, e *env, out io.Writer) error {
	if !IsTTY() {
		return NewCommandError("chat", "start", "stdin is not a terminal; use \"chatbot ask\" for scripted input", nil)
	}
	app, err := e.newApp(out)
	if err != nil {
		return err
	}
	defer app.Close()

	r, err := newREPL(app)
	if err != nil {
		return err
	}
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	app.WatchSettings(watchCtx, r.session)
	return r.run(ctx)
}

// =============================================================================
// VERSION
// =============================================================================

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "chatbot %s\n", Version)
			fmt.Fprintf(out, "  commit: %s\n", GitCommit)
			fmt.Fprintf(out, "  built:  %s\n", BuildDate)
			return nil
		},
	}
}
