// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbot/internal/config"
)

// pingTimeout bounds the reachability probe of "config show".
const pingTimeout = 3 * time.Second

// =============================================================================
// CONFIG
// =============================================================================

func newConfigCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.Context(), cmd.OutOrStdout(), e)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the effective configuration and backend status",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return showConfig(cmd.Context(), cmd.OutOrStdout(), e)
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := configFilePath(e)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
		&cobra.Command{
			Use:       "get <key>",
			Short:     "Print one configuration value",
			Args:      cobra.ExactArgs(1),
			ValidArgs: config.GetAllKeys(),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := e.cfg.Get(args[0])
				if err != nil {
					return &ValidationError{Field: "key", Value: args[0], Reason: err.Error()}
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			},
		},
		&cobra.Command{
			Use:     "set <key> <value>",
			Short:   "Change one configuration value and save the file",
			Example: "  chatbot config set backend.base_url http://localhost:9000",
			Args:    cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return setConfig(cmd.OutOrStdout(), e, args[0], args[1])
			},
		},
	)
	return cmd
}

// configFilePath is the file "config set" writes: --config when given,
// otherwise the default TOML file.
func configFilePath(e *env) (string, error) {
	if e.opts.configPath != "" {
		return e.opts.configPath, nil
	}
	return config.ConfigPath("toml")
}

func setConfig(w io.Writer, e *env, key, value string) error {
	next := e.cfg.Clone()
	if err := next.Set(key, value); err != nil {
		return &ValidationError{Field: key, Value: value, Reason: err.Error()}
	}
	if err := next.Validate(); err != nil {
		return err
	}
	path, err := configFilePath(e)
	if err != nil {
		return err
	}
	if err := config.SaveToPath(next, path); err != nil {
		return NewCommandError("config", "set", "save", err)
	}
	e.cfg = next
	fmt.Fprintf(w, "%s %s = %s\n", SuccessStyle.Render("[OK]"), key, value)
	return nil
}

func showConfig(ctx context.Context, w io.Writer, e *env) error {
	cfg := e.cfg
	status := "online"
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := newBackendClient(cfg, e.logger).Ping(ctx); err != nil {
		status = "offline"
	}

	if e.opts.jsonOutput {
		return writeJSON(w, map[string]interface{}{
			"config": cfg,
			"status": status,
		})
	}

	path, _ := configFilePath(e)
	if _, err := os.Stat(path); err != nil {
		path += " (not created)"
	}

	fmt.Fprintln(w, TitleStyle.Render("chatbot configuration"))
	row := func(label string, value interface{}) {
		fmt.Fprintf(w, "%s %s\n", RenderLabel(label), ValueStyle.Render(fmt.Sprint(value)))
	}
	row("Config file", path)
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Backend"), RenderStatus(status))
	fmt.Fprintln(w, SectionStyle.Render("Values"))
	for _, key := range config.GetAllKeys() {
		v, err := cfg.Get(key)
		if err != nil {
			continue
		}
		row(key, v)
	}
	return nil
}
