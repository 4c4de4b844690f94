// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/chatbot/internal/backend"
	"github.com/jeranaias/chatbot/internal/export"
	"github.com/jeranaias/chatbot/internal/model"
	"github.com/jeranaias/chatbot/internal/settings"
	"github.com/jeranaias/chatbot/internal/staging"
	"github.com/jeranaias/chatbot/internal/storage"
	"github.com/jeranaias/chatbot/internal/voice"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Backend is the part of *backend.Client the session uses.
type Backend interface {
	Chat(ctx context.Context, message string, temperature float64) (string, error)
	Search(ctx context.Context, query string) (*backend.SearchResponse, error)
	Wikipedia(ctx context.Context, query string) (*backend.WikiResponse, error)
	Upload(ctx context.Context, req backend.UploadRequest) (*backend.UploadResponse, error)
	ClearContext(ctx context.Context) <-chan struct{}
}

// Persistence stores conversations on the backend. *storage.Client
// implements it.
type Persistence interface {
	Save(ctx context.Context, name string, messages []*model.Message) (*storage.SaveResult, error)
	List(ctx context.Context) ([]model.Summary, error)
	Load(ctx context.Context, filename string) (*model.Record, error)
	Delete(ctx context.Context, filename string) (string, error)
}

// SettingsStore persists user preferences. *settings.Store implements it.
type SettingsStore interface {
	Load() settings.Settings
	Update(field string, value interface{}) (settings.Settings, error)
	Modify(fn func(*settings.Settings)) (settings.Settings, error)
}

// Options wires a Session. Backend is required; everything else has a
// working default.
type Options struct {
	Backend     Backend
	Persistence Persistence
	Settings    SettingsStore
	Queue       *staging.Queue
	Voice       voice.Capability
	Notifier    Notifier
	Indicator   Indicator
	Shell       Shell
	// Clipboard copies text for the copy action. Nil disables copying.
	Clipboard func(text string) error
	// WelcomeMessage is the greeting kept at the top of the transcript.
	WelcomeMessage string
	// Export configures the export action.
	Export *export.Options
	Logger zerolog.Logger
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one chat conversation and the controller around it. It is
// safe for concurrent use; text turns are serialized so a turn's user and
// bot messages are always adjacent.
type Session struct {
	backend     Backend
	persistence Persistence
	store       SettingsStore
	queue       *staging.Queue
	voice       voice.Capability
	notify      Notifier
	indicator   Indicator
	shell       Shell
	clipboard   func(string) error
	exportOpts  *export.Options
	logger      zerolog.Logger

	// turnMu is held for a whole turn and for every transcript edit.
	turnMu sync.Mutex

	// mu guards the fields below.
	mu         sync.Mutex
	conv       *model.Conversation
	settings   settings.Settings
	busy       bool
	recording  bool
	stopListen context.CancelFunc
	listenDone chan struct{}
}

// New creates a session. Settings are loaded once here.
func New(opts Options) (*Session, error) {
	if opts.Backend == nil {
		return nil, errors.New("chat: backend is required")
	}
	s := &Session{
		backend:     opts.Backend,
		persistence: opts.Persistence,
		store:       opts.Settings,
		queue:       opts.Queue,
		voice:       opts.Voice,
		notify:      opts.Notifier,
		indicator:   opts.Indicator,
		shell:       opts.Shell,
		clipboard:   opts.Clipboard,
		exportOpts:  opts.Export,
		logger:      opts.Logger,
		conv:        model.NewConversation(opts.WelcomeMessage),
	}
	if s.persistence == nil {
		if poster, ok := opts.Backend.(storage.Poster); ok {
			s.persistence = storage.NewClient(poster)
		}
	}
	if s.store == nil {
		s.store = settings.NewStore(settings.NewMemoryKV())
	}
	if s.queue == nil {
		s.queue = staging.NewQueue()
	}
	if s.notify == nil {
		s.notify = nopNotifier{}
	}
	if s.indicator == nil {
		s.indicator = nopIndicator{}
	}
	if s.shell == nil {
		s.shell = NopShell{}
	}
	if s.exportOpts == nil {
		s.exportOpts = export.DefaultOptions()
	}
	s.settings = s.store.Load()
	return s, nil
}

// Messages returns a snapshot of the transcript.
func (s *Session) Messages() []*model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Messages()
}

// Busy reports whether a backend request for a turn is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Settings returns the current preferences.
func (s *Session) Settings() settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// ReloadSettings rereads preferences from the store after another process
// changed them.
func (s *Session) ReloadSettings() settings.Settings {
	next := s.store.Load()
	s.applySettings(next)
	return next
}

// Staged returns the files waiting to be sent.
func (s *Session) Staged() []staging.File {
	return s.queue.Files()
}

// Voice returns the speech capability detected at startup.
func (s *Session) Voice() voice.Capability {
	return s.voice
}

// Recording reports whether voice input is being captured.
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit handles one press of "send". Staged files are uploaded first, in
// order, each producing a bot message and a toast. Then non-empty text
// produces one user message and one bot message. Input that is blank with
// nothing staged is ignored.
func (s *Session) Submit(ctx context.Context, raw string) error {
	text := strings.TrimSpace(raw)
	if text == "" && s.queue.Pending() == 0 {
		return nil
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	if s.queue.Pending() > 0 {
		s.uploadStaged(ctx)
	}
	if text != "" {
		s.runTurn(ctx, text)
	}
	s.shell.FocusInput()
	return ctx.Err()
}

// SubmitWith stages files and then submits. A file that cannot be staged
// is reported with a toast and skipped.
func (s *Session) SubmitWith(ctx context.Context, raw string, files []*staging.File) error {
	for _, f := range files {
		_ = s.Stage(f)
	}
	return s.Submit(ctx, raw)
}

// Stage adds a file to the upload queue. Unsupported types are rejected
// with a toast.
func (s *Session) Stage(f *staging.File) error {
	if err := s.queue.Stage(f); err != nil {
		s.notify.AddError(err.Error())
		return err
	}
	return nil
}

// Unstage removes a staged file by name.
func (s *Session) Unstage(name string) {
	s.queue.Unstage(name)
}

func (s *Session) uploadStaged(ctx context.Context) {
	s.indicator.Show()
	s.queue.UploadAll(ctx, s.backend, func(o staging.Outcome) {
		s.indicator.Hide()
		s.appendMessage(model.NewBotMessage(o.BotText()))
		if o.OK() {
			s.notify.AddSuccess(o.ToastText())
		} else {
			s.notify.AddError(o.ToastText())
		}
		s.indicator.Show()
	})
	s.indicator.Hide()
}

func (s *Session) runTurn(ctx context.Context, text string) {
	s.appendMessage(model.NewUserMessage(text))
	s.shell.ClearInput()

	s.setBusy(true)
	reply, speak := s.respond(ctx, text)
	s.setBusy(false)

	s.appendMessage(model.NewBotMessage(reply))
	if speak {
		s.speak(ctx, reply)
	}
}

// respond makes the single backend round trip of a turn. speak is true
// when the reply came from the chat endpoint and should be read aloud.
func (s *Session) respond(ctx context.Context, text string) (reply string, speak bool) {
	route, arg := ParseInput(text)
	log := s.logger.With().Str("route", route.String()).Logger()

	switch route {
	case RouteSearch:
		resp, err := s.backend.Search(ctx, arg)
		if err != nil {
			log.Warn().Err(err).Msg("search failed")
			return searchFailed(err), false
		}
		return FormatSearchResults(arg, resp.Results), false
	case RouteWiki:
		resp, err := s.backend.Wikipedia(ctx, arg)
		if err != nil {
			log.Warn().Err(err).Msg("wikipedia search failed")
			return wikiFailed(err), false
		}
		return FormatWikiResults(arg, resp.Results), false
	}

	temperature := s.Settings().Temperature
	resp, err := s.backend.Chat(ctx, arg, temperature)
	if err != nil {
		log.Warn().Err(err).Msg("chat request failed")
		return UserMessage(err), false
	}
	return resp, s.Settings().VoiceEnabled
}

func (s *Session) setBusy(busy bool) {
	s.mu.Lock()
	s.busy = busy
	s.mu.Unlock()
	if busy {
		s.indicator.Show()
	} else {
		s.indicator.Hide()
	}
}

func (s *Session) appendMessage(m *model.Message) {
	s.mu.Lock()
	s.conv.Add(m)
	s.mu.Unlock()
	s.shell.MessageAdded(m.Clone())
}

// speak reads text aloud when voice is available. Failures are only logged.
func (s *Session) speak(ctx context.Context, text string) {
	h, ok := s.voice.Handle()
	if !ok {
		return
	}
	if err := h.Speak(context.WithoutCancel(ctx), text); err != nil {
		s.logger.Debug().Err(err).Msg("speech output failed")
	}
}
