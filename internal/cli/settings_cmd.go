// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbot/internal/settings"
)

// =============================================================================
// SETTINGS
// =============================================================================

func newSettingsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change preferences",
		Long: `Show or change preferences.

Fields: theme (light, dark, auto), fontSize (12-20), temperature (0-1),
voiceEnabled (true, false). Field names are case-insensitive and may use
snake_case.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(e, func(store *settings.Store) error {
				return showSettings(cmd.OutOrStdout(), store.Load(), e.opts.jsonOutput)
			})
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <field>",
			Short: "Print one preference",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(e, func(store *settings.Store) error {
					v, err := store.Load().Get(args[0])
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), v)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:     "set <field> <value>",
			Short:   "Change one preference",
			Example: "  chatbot settings set theme dark\n  chatbot settings set temperature 0.3",
			Args:    cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(e, func(store *settings.Store) error {
					st, err := store.Update(args[0], args[1])
					if err != nil {
						return err
					}
					return showSettings(cmd.OutOrStdout(), st, e.opts.jsonOutput)
				})
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Restore default preferences",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withStore(e, func(store *settings.Store) error {
					st, err := store.Reset()
					if err != nil {
						return err
					}
					return showSettings(cmd.OutOrStdout(), st, e.opts.jsonOutput)
				})
			},
		},
	)
	return cmd
}

// withStore opens the configured settings store for the duration of fn.
func withStore(e *env, fn func(*settings.Store) error) error {
	store, err := openStore(e.cfg, e.logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func showSettings(w io.Writer, st settings.Settings, jsonMode bool) error {
	if jsonMode {
		return writeJSON(w, st)
	}
	printSettings(w, st)
	return nil
}

// printSettings renders preferences as a label/value list.
func printSettings(w io.Writer, st settings.Settings) {
	for _, field := range settings.Fields() {
		v, _ := st.Get(field)
		fmt.Fprintf(w, "%s %s\n", RenderLabel(field+":", 16), ValueStyle.Render(strings.TrimSpace(fmt.Sprint(v))))
	}
}
