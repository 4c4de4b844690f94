// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatbot/internal/backend"
	"github.com/jeranaias/chatbot/internal/model"
	"github.com/jeranaias/chatbot/internal/settings"
	"github.com/jeranaias/chatbot/internal/staging"
	"github.com/jeranaias/chatbot/internal/storage"
	"github.com/jeranaias/chatbot/internal/voice"
)

// =============================================================================
// EVENT LOG
// =============================================================================

// events records the order of observable side effects across fakes.
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(s string) {
	e.mu.Lock()
	e.log = append(e.log, s)
	e.mu.Unlock()
}

func (e *events) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

func (e *events) with(prefix string) []string {
	var out []string
	for _, s := range e.all() {
		if strings.HasPrefix(s, prefix) {
			out = append(out, strings.TrimPrefix(s, prefix))
		}
	}
	return out
}

// =============================================================================
// FAKE BACKEND
// =============================================================================

type fakeBackend struct {
	ev *events

	mu           sync.Mutex
	chatCalls    []string
	temperatures []float64
	searchCalls  []string
	wikiCalls    []string
	uploads      []backend.UploadRequest
	clears       int

	chatFn   func(msg string) (string, error)
	searchFn func(q string) (*backend.SearchResponse, error)
	wikiFn   func(q string) (*backend.WikiResponse, error)
	uploadFn func(req backend.UploadRequest) (*backend.UploadResponse, error)
}

func (f *fakeBackend) Chat(_ context.Context, msg string, temperature float64) (string, error) {
	f.mu.Lock()
	f.chatCalls = append(f.chatCalls, msg)
	f.temperatures = append(f.temperatures, temperature)
	f.mu.Unlock()
	f.ev.add("backend:chat")
	if f.chatFn != nil {
		return f.chatFn(msg)
	}
	return "echo: " + msg, nil
}

func (f *fakeBackend) Search(_ context.Context, q string) (*backend.SearchResponse, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, q)
	f.mu.Unlock()
	f.ev.add("backend:search")
	if f.searchFn != nil {
		return f.searchFn(q)
	}
	return &backend.SearchResponse{Query: q}, nil
}

func (f *fakeBackend) Wikipedia(_ context.Context, q string) (*backend.WikiResponse, error) {
	f.mu.Lock()
	f.wikiCalls = append(f.wikiCalls, q)
	f.mu.Unlock()
	f.ev.add("backend:wiki")
	if f.wikiFn != nil {
		return f.wikiFn(q)
	}
	return &backend.WikiResponse{Query: q}, nil
}

func (f *fakeBackend) Upload(_ context.Context, req backend.UploadRequest) (*backend.UploadResponse, error) {
	f.mu.Lock()
	f.uploads = append(f.uploads, req)
	f.mu.Unlock()
	f.ev.add("backend:upload:" + req.FileName)
	if f.uploadFn != nil {
		return f.uploadFn(req)
	}
	return &backend.UploadResponse{Content: "Got " + req.FileName}, nil
}

func (f *fakeBackend) ClearContext(context.Context) <-chan struct{} {
	f.mu.Lock()
	f.clears++
	f.mu.Unlock()
	done := make(chan struct{})
	close(done)
	return done
}

func (f *fakeBackend) roundTrips() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chatCalls) + len(f.searchCalls) + len(f.wikiCalls)
}

// =============================================================================
// FAKE PERSISTENCE
// =============================================================================

type fakePersistence struct {
	saved     []*model.Message
	savedName string
	list      []model.Summary
	record    *model.Record
	err       error
	listErr   error
}

func (f *fakePersistence) Save(_ context.Context, name string, msgs []*model.Message) (*storage.SaveResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.savedName = name
	f.saved = msgs
	return &storage.SaveResult{Message: "Conversation saved as " + name, Filename: name + ".json"}, nil
}

func (f *fakePersistence) List(context.Context) ([]model.Summary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.list, nil
}

func (f *fakePersistence) Load(context.Context, string) (*model.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

func (f *fakePersistence) Delete(_ context.Context, filename string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "Deleted " + filename, nil
}

// =============================================================================
// FAKE FRONT END
// =============================================================================

type fakeShell struct {
	NopShell
	ev    *events
	mu    sync.Mutex
	input string
}

func (s *fakeShell) ClearInput() { s.ev.add("shell:clear-input") }
func (s *fakeShell) FocusInput() { s.ev.add("shell:focus") }

func (s *fakeShell) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
	s.ev.add("shell:input:" + text)
}

func (s *fakeShell) MessageAdded(m *model.Message) {
	s.ev.add("msg:" + string(m.Sender) + ":" + m.Text)
}

func (s *fakeShell) getInput() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

type fakeNotifier struct{ ev *events }

func (n fakeNotifier) AddStatus(m string) int  { n.ev.add("toast:info:" + m); return 1 }
func (n fakeNotifier) AddSuccess(m string) int { n.ev.add("toast:success:" + m); return 1 }
func (n fakeNotifier) AddWarning(m string) int { n.ev.add("toast:warning:" + m); return 1 }
func (n fakeNotifier) AddError(m string) int   { n.ev.add("toast:error:" + m); return 1 }

type fakeIndicator struct{ ev *events }

func (i fakeIndicator) Show() { i.ev.add("indicator:show") }
func (i fakeIndicator) Hide() { i.ev.add("indicator:hide") }

type fakeVoice struct {
	ev       *events
	listenFn func(ctx context.Context) (string, error)
}

func (v *fakeVoice) Listen(ctx context.Context) (string, error) {
	if v.listenFn != nil {
		return v.listenFn(ctx)
	}
	return "spoken words", nil
}

func (v *fakeVoice) Speak(_ context.Context, text string) error {
	v.ev.add("voice:speak:" + text)
	return nil
}

func (v *fakeVoice) Stop() {}

// =============================================================================
// HARNESS
// =============================================================================

type harness struct {
	s       *Session
	ev      *events
	backend *fakeBackend
	persist *fakePersistence
	shell   *fakeShell
	voice   *fakeVoice
	store   *settings.Store
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()
	ev := &events{}
	h := &harness{
		ev:      ev,
		backend: &fakeBackend{ev: ev},
		persist: &fakePersistence{},
		shell:   &fakeShell{ev: ev},
		voice:   &fakeVoice{ev: ev},
		store:   settings.NewStore(settings.NewMemoryKV()),
	}
	opts := Options{
		Backend:        h.backend,
		Persistence:    h.persist,
		Settings:       h.store,
		Queue:          staging.NewQueue().WithClearDelay(0),
		Voice:          voice.Available(h.voice),
		Notifier:       fakeNotifier{ev: ev},
		Indicator:      fakeIndicator{ev: ev},
		Shell:          h.shell,
		WelcomeMessage: "Hello! How can I help?",
	}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := New(opts)
	require.NoError(t, err)
	h.s = s
	return h
}

func texts(msgs []*model.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = string(m.Sender) + ":" + m.Text
	}
	return out
}
