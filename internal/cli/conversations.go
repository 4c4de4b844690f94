// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbot/internal/export"
	"github.com/jeranaias/chatbot/internal/model"
	"github.com/jeranaias/chatbot/internal/storage"
)

// =============================================================================
// CONVERSATIONS
// =============================================================================

func newConversationsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "Manage conversations saved on the server",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listConversations(cmd, e)
		},
	}

	var saveName string
	save := &cobra.Command{
		Use:   "save <export.json>",
		Short: "Save a JSON export as a server-side conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return saveConversation(cmd, e, args[0], saveName)
		},
	}
	save.Flags().StringVarP(&saveName, "name", "n", "", "conversation name (default: the export's name)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved conversations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return listConversations(cmd, e)
			},
		},
		&cobra.Command{
			Use:   "show <file>",
			Short: "Print a saved conversation",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := storageClient(e)
				if err != nil {
					return err
				}
				rec, err := client.Load(cmd.Context(), args[0])
				if err != nil {
					return NewCommandError("conversations", "show", args[0], err)
				}
				if e.opts.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), rec)
				}
				fmt.Fprint(cmd.OutOrStdout(), storage.FormatRecord(rec))
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <file>",
			Short: "Delete a saved conversation",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := storageClient(e)
				if err != nil {
					return err
				}
				ack, err := client.Delete(cmd.Context(), args[0])
				if err != nil {
					return NewCommandError("conversations", "delete", args[0], err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render(ack))
				return nil
			},
		},
		save,
	)
	return cmd
}

// storageClient builds a persistence client on the configured backend.
func storageClient(e *env) (*storage.Client, error) {
	if e.cfg == nil {
		return nil, NewCommandError("conversations", "connect", "configuration not loaded", nil)
	}
	return storage.NewClient(newBackendClient(e.cfg, e.logger)), nil
}

func listConversations(cmd *cobra.Command, e *env) error {
	client, err := storageClient(e)
	if err != nil {
		return err
	}
	list, err := client.List(cmd.Context())
	if err != nil {
		return NewCommandError("conversations", "list", "request failed", err)
	}
	if e.opts.jsonOutput {
		return writeJSON(cmd.OutOrStdout(), list)
	}
	fmt.Fprint(cmd.OutOrStdout(), storage.FormatList(list))
	return nil
}

// exportDocument is the JSON export layout read back by "save".
type exportDocument struct {
	Name     string           `json:"name"`
	Messages []*model.Message `json:"messages"`
}

func saveConversation(cmd *cobra.Command, e *env, path, name string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewCommandError("conversations", "save", "read export", err)
	}
	var doc exportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return NewCommandError("conversations", "save", "parse export", err)
	}
	if name == "" {
		name = doc.Name
	}

	client, err := storageClient(e)
	if err != nil {
		return err
	}
	saved, err := client.Save(cmd.Context(), name, doc.Messages)
	if err != nil {
		return NewCommandError("conversations", "save", path, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render(saved.Message))
	return nil
}

// =============================================================================
// EXPORT
// =============================================================================

func newExportCommand(e *env) *cobra.Command {
	var (
		format    string
		outputDir string
		toStdout  bool
	)
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export a saved conversation as Markdown, JSON or HTML",
		Example: `  chatbot export chat_20240101.json
  chatbot export chat_20240101.json --format html --output ~/exports
  chatbot export chat_20240101.json --format json --stdout`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validExportFormat(format) {
				return ErrUnsupportedFormat(format, export.Formats)
			}
			client, err := storageClient(e)
			if err != nil {
				return err
			}
			rec, err := client.Load(cmd.Context(), args[0])
			if err != nil {
				return NewCommandError("export", "load", args[0], err)
			}

			opts := export.DefaultOptions()
			if outputDir != "" {
				opts.OutputDir = outputDir
			}
			exporter, err := export.New(format, opts)
			if err != nil {
				return err
			}
			t := &export.Transcript{Title: rec.Name, Exported: time.Now(), Messages: rec.Messages}
			if toStdout {
				return export.ToWriter(t, exporter, cmd.OutOrStdout())
			}
			path, err := export.ToFile(t, exporter, opts)
			if err != nil {
				return NewCommandError("export", "write", format, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Chat exported successfully")+" "+DimStyle.Render(path))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "F", "md", "output format: md, json, html")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default: current directory)")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "write to stdout instead of a file")
	return cmd
}
