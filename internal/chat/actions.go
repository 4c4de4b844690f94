// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/chatbot/internal/export"
	"github.com/jeranaias/chatbot/internal/model"
	"github.com/jeranaias/chatbot/internal/settings"
	"github.com/jeranaias/chatbot/internal/staging"
	"github.com/jeranaias/chatbot/internal/storage"
	"github.com/jeranaias/chatbot/internal/voice"
)

// =============================================================================
// ACTIONS
// =============================================================================

// Action is a user command other than typing text.
type Action int

const (
	ActionSend Action = iota
	ActionClearHistory
	ActionCycleTheme
	ActionSetFontSize
	ActionSetTemperature
	ActionToggleVoiceSetting
	ActionQuickAction
	ActionEditMessage
	ActionDeleteMessage
	ActionRegenerate
	ActionSpeakMessage
	ActionCopyMessage
	ActionToggleRecording
	ActionSaveConversation
	ActionListConversations
	ActionLoadConversation
	ActionDeleteConversation
	ActionExport
	ActionStageFile
	ActionUnstageFile
)

var actionNames = map[Action]string{
	ActionSend:               "send",
	ActionClearHistory:       "clear-history",
	ActionCycleTheme:         "cycle-theme",
	ActionSetFontSize:        "set-font-size",
	ActionSetTemperature:     "set-temperature",
	ActionToggleVoiceSetting: "toggle-voice",
	ActionQuickAction:        "quick-action",
	ActionEditMessage:        "edit-message",
	ActionDeleteMessage:      "delete-message",
	ActionRegenerate:         "regenerate",
	ActionSpeakMessage:       "speak-message",
	ActionCopyMessage:        "copy-message",
	ActionToggleRecording:    "toggle-recording",
	ActionSaveConversation:   "save-conversation",
	ActionListConversations:  "list-conversations",
	ActionLoadConversation:   "load-conversation",
	ActionDeleteConversation: "delete-conversation",
	ActionExport:             "export",
	ActionStageFile:          "stage-file",
	ActionUnstageFile:        "unstage-file",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "action(" + strconv.Itoa(int(a)) + ")"
}

// Request carries the arguments of an action. Which fields matter depends
// on the action:
//
//	Text      send, edit-message (new text), save-conversation (name)
//	MessageID edit/delete/regenerate/speak/copy-message
//	Value     set-font-size, set-temperature, quick-action, load/delete-
//	          conversation (filename), export (format), unstage-file (name)
//	File      stage-file
type Request struct {
	Action    Action
	Text      string
	MessageID string
	Value     string
	File      *staging.File
}

// Result is what an action produced, when anything.
type Result struct {
	// Text is the prompt placed in the input by a quick action or the
	// new body of a regenerated message.
	Text string
	// Conversations is the saved list after list, save or delete.
	Conversations []model.Summary
	// Record is the conversation opened by load.
	Record *model.Record
	// Path is the file written by export.
	Path string
	// Settings are the preferences after a settings action.
	Settings settings.Settings
}

type handler func(s *Session, ctx context.Context, req Request) (*Result, error)

var handlers = map[Action]handler{
	ActionSend:               (*Session).doSend,
	ActionClearHistory:       (*Session).doClearHistory,
	ActionCycleTheme:         (*Session).doCycleTheme,
	ActionSetFontSize:        (*Session).doSetFontSize,
	ActionSetTemperature:     (*Session).doSetTemperature,
	ActionToggleVoiceSetting: (*Session).doToggleVoice,
	ActionQuickAction:        (*Session).doQuickAction,
	ActionEditMessage:        (*Session).doEditMessage,
	ActionDeleteMessage:      (*Session).doDeleteMessage,
	ActionRegenerate:         (*Session).doRegenerate,
	ActionSpeakMessage:       (*Session).doSpeakMessage,
	ActionCopyMessage:        (*Session).doCopyMessage,
	ActionToggleRecording:    (*Session).doToggleRecording,
	ActionSaveConversation:   (*Session).doSaveConversation,
	ActionListConversations:  (*Session).doListConversations,
	ActionLoadConversation:   (*Session).doLoadConversation,
	ActionDeleteConversation: (*Session).doDeleteConversation,
	ActionExport:             (*Session).doExport,
	ActionStageFile:          (*Session).doStageFile,
	ActionUnstageFile:        (*Session).doUnstageFile,
}

// Do runs one action. The returned Result may be nil.
func (s *Session) Do(ctx context.Context, req Request) (*Result, error) {
	h, ok := handlers[req.Action]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, req.Action)
	}
	s.logger.Debug().Str("action", req.Action.String()).Msg("action")
	return h(s, ctx, req)
}

// QuickPrompts are the prompt templates offered as quick actions.
var QuickPrompts = map[string]string{
	"translate": "Please translate the following text to English: ",
	"summarize": "Please provide a concise summary of: ",
	"explain":   "Please explain this code: ",
	"creative":  "Write a creative story about: ",
	"math":      "Help me solve this math problem: ",
}

// =============================================================================
// TRANSCRIPT ACTIONS
// =============================================================================

func (s *Session) doSend(ctx context.Context, req Request) (*Result, error) {
	return nil, s.Submit(ctx, req.Text)
}

// doClearHistory empties the transcript down to the welcome greeting,
// drops staged files and tells the server to forget uploaded context.
func (s *Session) doClearHistory(ctx context.Context, _ Request) (*Result, error) {
	s.turnMu.Lock()
	s.mu.Lock()
	s.conv.Clear()
	msgs := s.conv.Messages()
	s.mu.Unlock()
	s.turnMu.Unlock()

	s.queue.Clear()
	s.shell.TranscriptReset(msgs)
	s.backend.ClearContext(context.WithoutCancel(ctx))
	s.shell.FocusInput()
	s.notify.AddSuccess("Chat history cleared")
	return nil, nil
}

func (s *Session) doEditMessage(_ context.Context, req Request) (*Result, error) {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	m, err := s.message(req.MessageID)
	if err != nil {
		return nil, err
	}
	if !m.IsUser() {
		return nil, ErrNotAllowed
	}
	if req.Text == "" || req.Text == m.Text {
		return nil, nil
	}

	s.mu.Lock()
	_ = s.conv.SetText(m.ID, req.Text)
	s.mu.Unlock()
	m.Text = req.Text
	s.shell.MessageChanged(m)
	return &Result{Text: req.Text}, nil
}

func (s *Session) doDeleteMessage(_ context.Context, req Request) (*Result, error) {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	m, err := s.message(req.MessageID)
	if err != nil {
		return nil, err
	}
	if !m.IsUser() {
		return nil, ErrNotAllowed
	}
	s.mu.Lock()
	_ = s.conv.Remove(m.ID)
	s.mu.Unlock()
	s.shell.MessageRemoved(m.ID)
	return nil, nil
}

// doRegenerate asks the chat endpoint again with the user message right
// before a bot reply and replaces the reply's text.
func (s *Session) doRegenerate(ctx context.Context, req Request) (*Result, error) {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	m, err := s.message(req.MessageID)
	if err != nil {
		return nil, err
	}
	if m.IsUser() {
		return nil, ErrNotAllowed
	}
	s.mu.Lock()
	prev, err := s.conv.Before(m.ID)
	s.mu.Unlock()
	if err != nil || !prev.IsUser() {
		return nil, ErrNoUserMessage
	}

	s.setBusy(true)
	reply, err := s.backend.Chat(ctx, prev.Text, s.Settings().Temperature)
	s.setBusy(false)
	if err != nil {
		s.notify.AddError(UserMessage(err))
		return nil, err
	}

	s.mu.Lock()
	err = s.conv.SetText(m.ID, reply)
	s.mu.Unlock()
	if err != nil {
		// Deleted while the request was in flight.
		return nil, err
	}
	m.Text = reply
	s.shell.MessageChanged(m)
	return &Result{Text: reply}, nil
}

func (s *Session) doSpeakMessage(ctx context.Context, req Request) (*Result, error) {
	m, err := s.message(req.MessageID)
	if err != nil {
		return nil, err
	}
	if m.IsUser() {
		return nil, ErrNotAllowed
	}
	if !s.voice.IsAvailable() {
		return nil, ErrVoiceUnavailable
	}
	s.speak(ctx, m.Text)
	return nil, nil
}

func (s *Session) doCopyMessage(_ context.Context, req Request) (*Result, error) {
	m, err := s.message(req.MessageID)
	if err != nil {
		return nil, err
	}
	if s.clipboard == nil {
		s.notify.AddError("Clipboard not available")
		return nil, ErrNoClipboard
	}
	if err := s.clipboard(m.Text); err != nil {
		s.notify.AddError("Failed to copy message: " + err.Error())
		return nil, err
	}
	s.notify.AddSuccess("Message copied to clipboard")
	return &Result{Text: m.Text}, nil
}

func (s *Session) doExport(_ context.Context, req Request) (*Result, error) {
	exporter, err := export.New(req.Value, s.exportOpts)
	if err != nil {
		s.notify.AddError("Export failed: " + err.Error())
		return nil, err
	}
	t := &export.Transcript{Exported: time.Now(), Messages: s.Messages()}
	path, err := export.ToFile(t, exporter, s.exportOpts)
	if err != nil {
		s.notify.AddError("Export failed: " + err.Error())
		return nil, err
	}
	s.notify.AddSuccess("Chat exported successfully")
	return &Result{Path: path}, nil
}

// message looks up a message by ID, accepting a 1-based position too.
func (s *Session) message(ref string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, err := strconv.Atoi(strings.TrimPrefix(ref, "#")); err == nil {
		msgs := s.conv.Messages()
		if n < 1 || n > len(msgs) {
			return nil, model.ErrMessageNotFound
		}
		return msgs[n-1], nil
	}
	return s.conv.Get(ref)
}

// =============================================================================
// SETTINGS ACTIONS
// =============================================================================

func (s *Session) doCycleTheme(_ context.Context, _ Request) (*Result, error) {
	next, err := s.store.Modify(func(st *settings.Settings) {
		st.Theme = st.Theme.Next()
	})
	if err != nil {
		return nil, err
	}
	s.applySettings(next)
	s.notify.AddSuccess("Theme switched to " + string(next.Theme))
	return &Result{Settings: next}, nil
}

func (s *Session) doSetFontSize(_ context.Context, req Request) (*Result, error) {
	return s.updateSetting(settings.FieldFontSize, req.Value)
}

func (s *Session) doSetTemperature(_ context.Context, req Request) (*Result, error) {
	return s.updateSetting(settings.FieldTemperature, req.Value)
}

func (s *Session) doToggleVoice(_ context.Context, _ Request) (*Result, error) {
	next, err := s.store.Modify(func(st *settings.Settings) {
		st.VoiceEnabled = !st.VoiceEnabled
	})
	if err != nil {
		return nil, err
	}
	s.applySettings(next)
	return &Result{Settings: next}, nil
}

// UpdateSetting changes one preference by field name and persists it.
func (s *Session) UpdateSetting(field, value string) (settings.Settings, error) {
	res, err := s.updateSetting(field, value)
	if err != nil {
		return s.Settings(), err
	}
	return res.Settings, nil
}

func (s *Session) updateSetting(field, value string) (*Result, error) {
	next, err := s.store.Update(field, value)
	if err != nil {
		return nil, err
	}
	s.applySettings(next)
	return &Result{Settings: next}, nil
}

func (s *Session) applySettings(next settings.Settings) {
	s.mu.Lock()
	s.settings = next
	s.mu.Unlock()
	s.shell.SettingsChanged(next)
}

func (s *Session) doQuickAction(_ context.Context, req Request) (*Result, error) {
	prompt, ok := QuickPrompts[strings.ToLower(req.Value)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuickAction, req.Value)
	}
	s.shell.SetInput(prompt)
	s.shell.FocusInput()
	return &Result{Text: prompt}, nil
}

// =============================================================================
// VOICE INPUT
// =============================================================================

// doToggleRecording starts listening, or stops a recording in progress.
// The transcript is delivered through Shell.SetInput.
func (s *Session) doToggleRecording(ctx context.Context, _ Request) (*Result, error) {
	h, ok := s.voice.Handle()
	if !ok {
		return nil, nil
	}

	s.mu.Lock()
	if s.recording {
		stop := s.stopListen
		s.mu.Unlock()
		stop()
		return nil, nil
	}
	listenCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	s.recording = true
	s.stopListen = cancel
	s.listenDone = done
	s.mu.Unlock()

	go s.listen(listenCtx, cancel, h, done)
	return nil, nil
}

func (s *Session) listen(ctx context.Context, cancel context.CancelFunc, h voice.Handle, done chan struct{}) {
	defer close(done)
	transcript, err := h.Listen(ctx)
	stopped := ctx.Err() != nil
	cancel()

	s.mu.Lock()
	s.recording = false
	s.stopListen = nil
	s.mu.Unlock()

	switch {
	case err == nil:
		s.shell.SetInput(transcript)
	case stopped:
		// Stopped by the user.
	default:
		s.notify.AddError("Voice recognition error: " + err.Error())
	}
}

// WaitRecording blocks until the current recording, if any, has ended.
func (s *Session) WaitRecording() {
	s.mu.Lock()
	done := s.listenDone
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// =============================================================================
// STAGING ACTIONS
// =============================================================================

func (s *Session) doStageFile(_ context.Context, req Request) (*Result, error) {
	if req.File == nil {
		s.notify.AddError("No file given")
		return nil, errors.New("no file given")
	}
	return nil, s.Stage(req.File)
}

func (s *Session) doUnstageFile(_ context.Context, req Request) (*Result, error) {
	s.Unstage(req.Value)
	return nil, nil
}

// =============================================================================
// PERSISTENCE ACTIONS
// =============================================================================

// Persistence failures end up in toasts, never in the transcript. Errors
// the server reported get "Failed to ..."; transport errors "Error ...".
func (s *Session) persistenceError(verb string, err error) {
	var ce *storage.ConversationError
	if errors.As(err, &ce) {
		s.notify.AddError("Failed to " + verb + ": " + err.Error())
		return
	}
	s.notify.AddError("Error " + gerund(verb) + ": " + err.Error())
}

func gerund(verb string) string {
	word, rest, _ := strings.Cut(verb, " ")
	if strings.HasSuffix(word, "e") {
		word = strings.TrimSuffix(word, "e")
	}
	return word + "ing " + rest
}

func (s *Session) requirePersistence() error {
	if s.persistence == nil {
		s.notify.AddError("Conversation storage is not configured")
		return ErrNoPersistence
	}
	return nil
}

func (s *Session) doSaveConversation(ctx context.Context, req Request) (*Result, error) {
	if err := s.requirePersistence(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	hasTurns := s.conv.HasTurns()
	turns := s.conv.Turns()
	s.mu.Unlock()
	if !hasTurns {
		s.notify.AddWarning("No conversation to save")
		return nil, storage.ErrNothingToSave
	}

	saved, err := s.persistence.Save(ctx, req.Text, turns)
	if err != nil {
		s.persistenceError("save conversation", err)
		return nil, err
	}
	s.notify.AddSuccess(saved.Message)

	res := &Result{}
	if list, err := s.listConversations(ctx); err == nil {
		res.Conversations = list
	}
	return res, nil
}

func (s *Session) doListConversations(ctx context.Context, _ Request) (*Result, error) {
	if err := s.requirePersistence(); err != nil {
		return nil, err
	}
	list, err := s.listConversations(ctx)
	if err != nil {
		return nil, err
	}
	return &Result{Conversations: list}, nil
}

func (s *Session) listConversations(ctx context.Context) ([]model.Summary, error) {
	list, err := s.persistence.List(ctx)
	if err != nil {
		s.persistenceError("load conversations", err)
		return nil, err
	}
	return list, nil
}

// doLoadConversation replaces the transcript with a saved conversation.
// On failure the transcript is left untouched.
func (s *Session) doLoadConversation(ctx context.Context, req Request) (*Result, error) {
	if err := s.requirePersistence(); err != nil {
		return nil, err
	}
	rec, err := s.persistence.Load(ctx, req.Value)
	if err != nil {
		s.persistenceError("load conversation", err)
		return nil, err
	}

	s.turnMu.Lock()
	s.mu.Lock()
	s.conv.Clear()
	for _, m := range rec.Messages {
		s.conv.Add(model.NewMessage(m.Sender, m.Text))
	}
	msgs := s.conv.Messages()
	s.mu.Unlock()
	s.turnMu.Unlock()

	s.shell.TranscriptReset(msgs)
	s.notify.AddSuccess("Loaded conversation: " + rec.Name)
	return &Result{Record: rec}, nil
}

func (s *Session) doDeleteConversation(ctx context.Context, req Request) (*Result, error) {
	if err := s.requirePersistence(); err != nil {
		return nil, err
	}
	ack, err := s.persistence.Delete(ctx, req.Value)
	if err != nil {
		s.persistenceError("delete conversation", err)
		return nil, err
	}
	s.notify.AddSuccess(ack)

	res := &Result{}
	if list, err := s.listConversations(ctx); err == nil {
		res.Conversations = list
	}
	return res, nil
}
