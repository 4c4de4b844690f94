// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/chatbot/internal/chat"
	"github.com/jeranaias/chatbot/internal/config"
	"github.com/jeranaias/chatbot/internal/export"
	"github.com/jeranaias/chatbot/internal/model"
	"github.com/jeranaias/chatbot/internal/staging"
	"github.com/jeranaias/chatbot/internal/storage"
	"github.com/jeranaias/chatbot/internal/ui/components"
)

// errAlreadyReported marks failures the session has shown as a toast.
var errAlreadyReported = errors.New("already reported")

// =============================================================================
// REPL COMMANDS
// =============================================================================

// replCommand is one slash command of the interactive chat. Lines that do
// not name a command, including "/search ..." and "/wiki ...", are sent to
// the session as chat input.
type replCommand struct {
	names []string
	args  string
	help  string
	run   func(r *repl, ctx context.Context, args string) error
}

var replCommands []replCommand

func init() {
	replCommands = []replCommand{
		{[]string{"/help", "/h"}, "", "Show available commands", (*repl).cmdHelp},
		{[]string{"/quit", "/q", "/exit"}, "", "Exit chat", (*repl).cmdQuit},
		{[]string{"/clear", "/c"}, "", "Clear the conversation", (*repl).cmdClear},
		{[]string{"/history"}, "", "Show the whole transcript", (*repl).cmdHistory},
		{[]string{"/edit"}, "#n <text>", "Edit one of your messages", (*repl).cmdEdit},
		{[]string{"/delete"}, "#n", "Delete one of your messages", (*repl).cmdDelete},
		{[]string{"/regen", "/regenerate"}, "[#n]", "Ask again for a reply (default: last)", (*repl).cmdRegenerate},
		{[]string{"/copy"}, "[#n]", "Copy a message to the clipboard", (*repl).cmdCopy},
		{[]string{"/speak"}, "[#n]", "Read a reply aloud", (*repl).cmdSpeak},
		{[]string{"/listen"}, "", "Dictate your next message", (*repl).cmdListen},
		{[]string{"/quick"}, "[name]", "Start from a prompt template", (*repl).cmdQuick},
		{[]string{"/attach"}, "<path>...", "Stage files to send with the next message", (*repl).cmdAttach},
		{[]string{"/detach"}, "<name>", "Remove a staged file", (*repl).cmdDetach},
		{[]string{"/files"}, "", "List staged files", (*repl).cmdFiles},
		{[]string{"/theme"}, "", "Cycle light, dark and auto themes", (*repl).cmdTheme},
		{[]string{"/font"}, "<size>", "Set the font size preference", (*repl).cmdFont},
		{[]string{"/temp", "/temperature"}, "<0-1>", "Set the reply temperature", (*repl).cmdTemperature},
		{[]string{"/voice"}, "", "Toggle spoken replies", (*repl).cmdVoice},
		{[]string{"/settings"}, "", "Show preferences", (*repl).cmdSettings},
		{[]string{"/save"}, "[name]", "Save the conversation on the server", (*repl).cmdSave},
		{[]string{"/list"}, "", "List saved conversations", (*repl).cmdList},
		{[]string{"/load"}, "<file>", "Open a saved conversation", (*repl).cmdLoad},
		{[]string{"/forget"}, "<file>", "Delete a saved conversation", (*repl).cmdForget},
		{[]string{"/export"}, "[md|json|html]", "Export the transcript to a file", (*repl).cmdExport},
	}
}

// lookupCommand finds the slash command named by the first word of line.
func lookupCommand(line string) (*replCommand, string, bool) {
	if !strings.HasPrefix(line, "/") {
		return nil, "", false
	}
	name, args, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	for i := range replCommands {
		for _, n := range replCommands[i].names {
			if n == name {
				return &replCommands[i], strings.TrimSpace(args), true
			}
		}
	}
	return nil, "", false
}

// completeCommand offers slash command names for tab completion.
func completeCommand(line string) []string {
	if !strings.HasPrefix(line, "/") || strings.Contains(line, " ") {
		return nil
	}
	var out []string
	for _, c := range replCommands {
		for _, n := range c.names {
			if strings.HasPrefix(n, strings.ToLower(line)) {
				out = append(out, n)
			}
		}
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// REPL
// =============================================================================

// repl drives a session from typed lines.
type repl struct {
	app     *App
	session *chat.Session
	shell   *printer
	out     io.Writer
	quit    bool

	// waitForEnter blocks until the user ends a dictation. Nil returns
	// at once, which stops the recording immediately.
	waitForEnter func(prompt string)
}

func newREPL(app *App) (*repl, error) {
	shell := newPrinter(app, false)
	session, err := app.NewSession(shell)
	if err != nil {
		return nil, err
	}
	shell.track(session.Messages())
	return &repl{app: app, session: session, shell: shell, out: app.Out}, nil
}

// handleLine runs a slash command or submits the line as chat input.
func (r *repl) handleLine(ctx context.Context, line string) error {
	if cmd, args, ok := lookupCommand(strings.TrimSpace(line)); ok {
		return cmd.run(r, ctx, args)
	}
	return r.session.Submit(ctx, line)
}

// do runs an action. Failures the session already showed as toasts come
// back as errAlreadyReported.
func (r *repl) do(ctx context.Context, req chat.Request) (*chat.Result, error) {
	res, err := r.session.Do(ctx, req)
	if err != nil && sessionReported(req.Action, err) {
		return res, errAlreadyReported
	}
	return res, err
}

func sessionReported(a chat.Action, err error) bool {
	if errors.Is(err, chat.ErrNotAllowed) ||
		errors.Is(err, chat.ErrNoUserMessage) ||
		errors.Is(err, model.ErrMessageNotFound) {
		return false
	}
	switch a {
	case chat.ActionSaveConversation, chat.ActionListConversations,
		chat.ActionLoadConversation, chat.ActionDeleteConversation,
		chat.ActionRegenerate, chat.ActionCopyMessage,
		chat.ActionExport, chat.ActionStageFile:
		return true
	}
	return false
}

// lastBotRef returns the position of the newest bot message as "#n".
func (r *repl) lastBotRef() string {
	msgs := r.session.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].IsUser() {
			return fmt.Sprintf("#%d", i+1)
		}
	}
	return ""
}

func (r *repl) refOrLastBot(args string) string {
	if args == "" {
		return r.lastBotRef()
	}
	return args
}

// prompt is the input prompt. Staged files are counted in it.
func (r *repl) prompt() string {
	if n := len(r.session.Staged()); n > 0 {
		return fmt.Sprintf("[%d staged] > ", n)
	}
	return "> "
}

// run reads lines until /quit or end of input.
func (r *repl) run(ctx context.Context) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeCommand)

	historyFile, histErr := config.HistoryPath()
	if histErr == nil {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}
	defer func() {
		if histErr != nil || config.EnsureConfigDir() != nil {
			return
		}
		if f, err := os.Create(historyFile); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}()

	r.waitForEnter = func(prompt string) { _, _ = line.Prompt(prompt) }
	r.printBanner()

	for !r.quit {
		var (
			text string
			err  error
		)
		if pending := r.shell.takeInput(); pending != "" {
			text, err = line.PromptWithSuggestion(r.prompt(), pending, -1)
		} else {
			text, err = line.Prompt(r.prompt())
		}
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			fmt.Fprintln(r.out, DimStyle.Render("(type /quit to exit)"))
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(r.out)
			return nil
		case err != nil:
			return err
		}
		if strings.TrimSpace(text) != "" {
			line.AppendHistory(text)
		}

		// Ctrl+C while a request runs cancels only that request.
		turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		err = r.handleLine(turnCtx, text)
		stop()
		switch {
		case err == nil, errors.Is(err, errAlreadyReported):
		case errors.Is(err, context.Canceled) && ctx.Err() == nil:
			fmt.Fprintln(r.out, WarningStyle.Render("Cancelled"))
		default:
			DisplayError(r.out, err, false)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func (r *repl) printBanner() {
	fmt.Fprintln(r.out, TitleStyle.Render("chatbot")+" "+DimStyle.Render(r.app.Config.Backend.BaseURL))
	fmt.Fprintln(r.out, DimStyle.Render("Type /help for commands, /search or /wiki to look things up."))
	fmt.Fprintln(r.out)
	for i, m := range r.session.Messages() {
		r.shell.print(m, i+1, "")
	}
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

func (r *repl) cmdHelp(_ context.Context, _ string) error {
	fmt.Fprintln(r.out, SectionStyle.Render("Commands"))
	for _, c := range replCommands {
		name := strings.Join(c.names, ", ")
		if c.args != "" {
			name += " " + c.args
		}
		fmt.Fprintf(r.out, "  %s %s\n", CommandStyle.Render(fmt.Sprintf("%-28s", name)), c.help)
	}
	fmt.Fprintf(r.out, "  %s %s\n", CommandStyle.Render(fmt.Sprintf("%-28s", chat.PrefixSearch+"<query>")), "Search the web")
	fmt.Fprintf(r.out, "  %s %s\n", CommandStyle.Render(fmt.Sprintf("%-28s", chat.PrefixWiki+"<topic>")), "Search Wikipedia")
	return nil
}

func (r *repl) cmdQuit(_ context.Context, _ string) error {
	r.quit = true
	return nil
}

func (r *repl) cmdClear(ctx context.Context, _ string) error {
	_, err := r.do(ctx, chat.Request{Action: chat.ActionClearHistory})
	return err
}

func (r *repl) cmdHistory(_ context.Context, _ string) error {
	r.shell.TranscriptReset(r.session.Messages())
	return nil
}

func (r *repl) cmdEdit(ctx context.Context, args string) error {
	ref, text, _ := strings.Cut(args, " ")
	text = strings.TrimSpace(text)
	if ref == "" || text == "" {
		return ErrMissingArgument("text", "/edit #2 corrected question")
	}
	_, err := r.do(ctx, chat.Request{Action: chat.ActionEditMessage, MessageID: ref, Text: text})
	return err
}

func (r *repl) cmdDelete(ctx context.Context, args string) error {
	if args == "" {
		return ErrMissingArgument("message", "/delete #2")
	}
	_, err := r.do(ctx, chat.Request{Action: chat.ActionDeleteMessage, MessageID: args})
	return err
}

func (r *repl) cmdRegenerate(ctx context.Context, args string) error {
	_, err := r.do(ctx, chat.Request{Action: chat.ActionRegenerate, MessageID: r.refOrLastBot(args)})
	return err
}

func (r *repl) cmdCopy(ctx context.Context, args string) error {
	_, err := r.do(ctx, chat.Request{Action: chat.ActionCopyMessage, MessageID: r.refOrLastBot(args)})
	return err
}

func (r *repl) cmdSpeak(ctx context.Context, args string) error {
	_, err := r.do(ctx, chat.Request{Action: chat.ActionSpeakMessage, MessageID: r.refOrLastBot(args)})
	return err
}

// cmdListen records until Enter is pressed. The transcript becomes the
// suggested text of the next prompt.
func (r *repl) cmdListen(ctx context.Context, _ string) error {
	if !r.session.Voice().IsAvailable() {
		return chat.ErrVoiceUnavailable
	}
	if _, err := r.do(ctx, chat.Request{Action: chat.ActionToggleRecording}); err != nil {
		return err
	}
	if r.waitForEnter != nil {
		r.waitForEnter("Listening... press Enter to stop ")
	}
	if r.session.Recording() {
		if _, err := r.do(ctx, chat.Request{Action: chat.ActionToggleRecording}); err != nil {
			return err
		}
	}
	r.session.WaitRecording()
	return nil
}

func (r *repl) cmdQuick(ctx context.Context, args string) error {
	if args == "" {
		names := make([]string, 0, len(chat.QuickPrompts))
		for name := range chat.QuickPrompts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(r.out, "  %s %s\n", CommandStyle.Render(fmt.Sprintf("%-10s", name)), DimStyle.Render(chat.QuickPrompts[name]))
		}
		return nil
	}
	_, err := r.do(ctx, chat.Request{Action: chat.ActionQuickAction, Value: args})
	return err
}

func (r *repl) cmdAttach(ctx context.Context, args string) error {
	paths := strings.Fields(args)
	if len(paths) == 0 {
		return ErrMissingArgument("path", "/attach notes.txt diagram.png")
	}
	for _, p := range paths {
		f, err := staging.FileFromPath(p)
		if err != nil {
			DisplayError(r.out, err, false)
			continue
		}
		_, _ = r.do(ctx, chat.Request{Action: chat.ActionStageFile, File: f})
	}
	return r.cmdFiles(ctx, "")
}

func (r *repl) cmdDetach(ctx context.Context, args string) error {
	if args == "" {
		return ErrMissingArgument("name", "/detach notes.txt")
	}
	_, err := r.do(ctx, chat.Request{Action: chat.ActionUnstageFile, Value: args})
	return err
}

func (r *repl) cmdFiles(_ context.Context, _ string) error {
	files := r.session.Staged()
	if len(files) == 0 {
		fmt.Fprintln(r.out, DimStyle.Render("No files staged."))
		return nil
	}
	fmt.Fprintln(r.out, components.RenderFileChips(files, r.app.Theme()))
	return nil
}

func (r *repl) cmdTheme(ctx context.Context, _ string) error {
	_, err := r.do(ctx, chat.Request{Action: chat.ActionCycleTheme})
	return err
}

func (r *repl) cmdFont(ctx context.Context, args string) error {
	if args == "" {
		return ErrMissingArgument("size", "/font 16")
	}
	_, err := r.do(ctx, chat.Request{Action: chat.ActionSetFontSize, Value: args})
	if err == nil {
		r.app.Toasts.AddSuccess("Font size set to " + args)
	}
	return err
}

func (r *repl) cmdTemperature(ctx context.Context, args string) error {
	if args == "" {
		return ErrMissingArgument("temperature", "/temp 0.4")
	}
	_, err := r.do(ctx, chat.Request{Action: chat.ActionSetTemperature, Value: args})
	if err == nil {
		r.app.Toasts.AddSuccess("Temperature set to " + args)
	}
	return err
}

func (r *repl) cmdVoice(ctx context.Context, _ string) error {
	res, err := r.do(ctx, chat.Request{Action: chat.ActionToggleVoiceSetting})
	if err != nil {
		return err
	}
	state := "off"
	if res.Settings.VoiceEnabled {
		state = "on"
	}
	r.app.Toasts.AddStatus("Spoken replies " + state)
	if res.Settings.VoiceEnabled && !r.session.Voice().IsAvailable() {
		r.app.Toasts.AddWarning("No speech synthesizer found; replies will not be spoken")
	}
	return nil
}

func (r *repl) cmdSettings(_ context.Context, _ string) error {
	printSettings(r.out, r.session.Settings())
	return nil
}

func (r *repl) cmdSave(ctx context.Context, args string) error {
	_, err := r.do(ctx, chat.Request{Action: chat.ActionSaveConversation, Text: args})
	return err
}

func (r *repl) cmdList(ctx context.Context, _ string) error {
	res, err := r.do(ctx, chat.Request{Action: chat.ActionListConversations})
	if err != nil {
		return err
	}
	fmt.Fprint(r.out, storage.FormatList(res.Conversations))
	return nil
}

func (r *repl) cmdLoad(ctx context.Context, args string) error {
	if args == "" {
		return ErrMissingArgument("file", "/load chat_20240101.json")
	}
	_, err := r.do(ctx, chat.Request{Action: chat.ActionLoadConversation, Value: args})
	return err
}

func (r *repl) cmdForget(ctx context.Context, args string) error {
	if args == "" {
		return ErrMissingArgument("file", "/forget chat_20240101.json")
	}
	_, err := r.do(ctx, chat.Request{Action: chat.ActionDeleteConversation, Value: args})
	return err
}

func (r *repl) cmdExport(ctx context.Context, args string) error {
	format := strings.ToLower(args)
	if format == "" {
		format = "md"
	}
	if !validExportFormat(format) {
		return ErrUnsupportedFormat(format, export.Formats)
	}
	res, err := r.do(ctx, chat.Request{Action: chat.ActionExport, Value: format})
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, DimStyle.Render(res.Path))
	return nil
}

func validExportFormat(format string) bool {
	switch format {
	case "md", "markdown", "json", "html", "htm":
		return true
	}
	return false
}
