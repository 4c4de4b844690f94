// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbot/internal/chat"
	"github.com/jeranaias/chatbot/internal/staging"
	"github.com/jeranaias/chatbot/internal/ui/components"
)

// =============================================================================
// ASK
// =============================================================================

func newAskCommand(e *env) *cobra.Command {
	var files []string
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message and print the reply",
		Long: `Send one message and print the reply.

The message may also be piped on stdin. Files given with --file are uploaded
first, in order, each printing its own result.`,
		Example: `  chatbot ask "What is a goroutine?"
  chatbot ask /search golang generics
  chatbot ask /wiki Alan Turing
  git diff | chatbot ask "Review this change"
  chatbot ask -f notes.txt "Summarize the notes"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if piped := readPipedStdin(cmd.InOrStdin()); piped != "" {
				text = strings.TrimSpace(text + "\n\n" + piped)
			}
			if strings.TrimSpace(text) == "" && len(files) == 0 {
				return ErrMissingArgument("message", `chatbot ask "Hello"`)
			}
			return runAsk(cmd, e, text, files)
		},
	}
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "file to upload before the message (repeatable)")
	return cmd
}

func runAsk(cmd *cobra.Command, e *env, text string, paths []string) error {
	out := cmd.OutOrStdout()
	app, err := e.newApp(out)
	if err != nil {
		return err
	}
	defer app.Close()

	p := newPrinter(app, false)
	var shell chat.Shell = p
	if e.opts.jsonOutput {
		// Only the JSON document is printed.
		app.Notifier = components.NewToastManager(nil, nil)
		shell = chat.NopShell{}
	}
	session, err := app.NewSession(shell)
	if err != nil {
		return err
	}
	p.track(session.Messages())

	staged, err := loadFiles(paths)
	if err != nil {
		return err
	}
	before := len(session.Messages())
	if err := session.SubmitWith(cmd.Context(), text, staged); err != nil {
		return err
	}

	if e.opts.jsonOutput {
		return writeJSON(out, map[string]interface{}{"messages": session.Messages()[before:]})
	}
	return nil
}

// loadFiles reads every path into a staged file.
func loadFiles(paths []string) ([]*staging.File, error) {
	files := make([]*staging.File, 0, len(paths))
	for _, p := range paths {
		f, err := staging.FileFromPath(p)
		if err != nil {
			return nil, NewCommandError("upload", "read", p, err)
		}
		files = append(files, f)
	}
	return files, nil
}

// readPipedStdin returns stdin's contents when it is a pipe or file.
func readPipedStdin(in io.Reader) string {
	f, ok := in.(*os.File)
	if !ok {
		return ""
	}
	stat, err := f.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
		return ""
	}
	var sb strings.Builder
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String())
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// =============================================================================
// UPLOAD
// =============================================================================

func newUploadCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload files into the chat context",
		Long: `Upload files into the chat context.

Supported types are images, PDF, Word, plain text, CSV, JSON and Excel. Files
are sent one at a time; a failure does not stop the rest.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := e.newApp(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()

			counter := &errorCounter{Notifier: app.Toasts}
			app.Notifier = counter
			p := newPrinter(app, false)
			session, err := app.NewSession(p)
			if err != nil {
				return err
			}
			p.track(session.Messages())
			files, err := loadFiles(args)
			if err != nil {
				return err
			}
			if err := session.SubmitWith(cmd.Context(), "", files); err != nil {
				return err
			}

			// Rejected types and failed uploads both raise an error toast.
			if failed := counter.count(); failed > 0 {
				return NewCommandError("upload", "send", fmt.Sprintf("%d of %d files failed", failed, len(files)), nil)
			}
			return nil
		},
	}
}
