// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatbot/internal/backend"
	"github.com/jeranaias/chatbot/internal/chat"
	"github.com/jeranaias/chatbot/internal/config"
	"github.com/jeranaias/chatbot/internal/model"
	"github.com/jeranaias/chatbot/internal/settings"
	"github.com/jeranaias/chatbot/internal/storage"
	"github.com/jeranaias/chatbot/internal/voice"
)

// =============================================================================
// FAKE BACKEND
// =============================================================================

// fakeBackend records what the client sent and answers like the chat server.
type fakeBackend struct {
	mu      sync.Mutex
	chats   []string
	uploads []string
	saved   []string
	deleted []string
}

func (f *fakeBackend) record(list *[]string, v string) {
	f.mu.Lock()
	*list = append(*list, v)
	f.mu.Unlock()
}

func (f *fakeBackend) snapshot(list *[]string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), *list...)
}

func newFakeBackend(t *testing.T) (*httptest.Server, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{}
	mux := http.NewServeMux()

	reply := func(w http.ResponseWriter, status int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		fb.record(&fb.chats, req.Message)
		reply(w, http.StatusOK, map[string]string{"response": "echo: " + req.Message})
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		reply(w, http.StatusOK, map[string]interface{}{
			"query":   req.Query,
			"results": []map[string]string{{"title": "Go", "snippet": "The Go language", "url": "https://go.dev"}},
		})
	})
	mux.HandleFunc("/wikipedia", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		reply(w, http.StatusOK, map[string]interface{}{
			"query":   req.Query,
			"results": []map[string]string{{"title": "Alan Turing", "summary": "Mathematician", "url": "#"}},
		})
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FileName string `json:"fileName"`
			FileType string `json:"fileType"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		fb.record(&fb.uploads, req.FileName)
		if strings.HasPrefix(req.FileName, "bad") {
			reply(w, http.StatusInternalServerError, map[string]string{"error": "too big"})
			return
		}
		reply(w, http.StatusOK, map[string]string{
			"message":  "ok",
			"content":  "Extracted " + req.FileName,
			"fileName": req.FileName,
			"fileType": req.FileType,
		})
	})
	mux.HandleFunc("/save-conversation", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		fb.record(&fb.saved, req.Name)
		reply(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"message":  "Conversation saved successfully",
			"filename": req.Name + ".json",
		})
	})
	mux.HandleFunc("/list-conversations", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"conversations": []map[string]interface{}{
				{"name": "Trip plans", "filename": "trip.json", "created": "2024-05-01T10:00:00", "message_count": 4},
			},
		})
	})
	mux.HandleFunc("/load-conversation", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Filename string `json:"filename"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Filename != "trip.json" {
			reply(w, http.StatusNotFound, map[string]string{"error": "Conversation not found"})
			return
		}
		reply(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"conversation": map[string]interface{}{
				"name":    "Trip plans",
				"created": "2024-05-01T10:00:00",
				"messages": []map[string]string{
					{"sender": "user", "text": "Where should we go?", "time": "10:00"},
					{"sender": "bot", "text": "Lisbon is lovely in May.", "time": "10:01"},
				},
			},
		})
	})
	mux.HandleFunc("/delete-conversation", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Filename string `json:"filename"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		fb.record(&fb.deleted, req.Filename)
		reply(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Conversation deleted"})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, fb
}

// =============================================================================
// HELPERS
// =============================================================================

// testEnv returns an env pointed at baseURL with preferences kept in memory.
func testEnv(t *testing.T, baseURL string) *env {
	t.Helper()
	t.Setenv("CHATBOT_HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")

	cfg := config.Default()
	cfg.SetDefaults()
	cfg.Backend.BaseURL = baseURL
	cfg.Settings.Store = "memory"
	cfg.Uploads.ClearDelayMs = -1
	cfg.Logging.Level = "disabled"
	cfg.UI.Color = "never"
	cfg.UI.Spinner = false

	store := settings.NewStore(settings.NewMemoryKV())
	unavailable := voice.Unavailable()
	e := &env{cfg: cfg}
	e.newApp = func(w io.Writer) (*App, error) {
		return NewApp(e.cfg, AppOptions{
			Out:    w,
			Logger: zerolog.Nop(),
			Store:  store,
			Voice:  &unavailable,
		})
	}
	return e
}

// run executes the command tree with args and returns everything printed.
func run(t *testing.T, e *env, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand(e)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func newTestREPL(t *testing.T, e *env) (*repl, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	app, err := e.newApp(&out)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	r, err := newREPL(app)
	require.NoError(t, err)
	return r, &out
}

// =============================================================================
// ASK / UPLOAD
// =============================================================================

func TestAsk_PrintsReply(t *testing.T) {
	srv, fb := newFakeBackend(t)
	e := testEnv(t, srv.URL)

	out, err := run(t, e, "ask", "hello", "there")
	require.NoError(t, err)
	assert.Contains(t, out, "echo: hello there")
	assert.NotContains(t, out, "User ", "the user's own message is not echoed")
	assert.Equal(t, []string{"hello there"}, fb.snapshot(&fb.chats))
}

func TestAsk_SearchPrefix(t *testing.T) {
	srv, fb := newFakeBackend(t)
	e := testEnv(t, srv.URL)

	out, err := run(t, e, "ask", "/search", "golang")
	require.NoError(t, err)
	assert.Contains(t, out, `Web Search Results for:** "golang"`)
	assert.Contains(t, out, "https://go.dev")
	assert.Empty(t, fb.snapshot(&fb.chats), "searches do not go to /chat")

	out, err = run(t, e, "ask", "/wiki", "Alan Turing")
	require.NoError(t, err)
	assert.Contains(t, out, `Wikipedia Results for:** "Alan Turing"`)
}

func TestAsk_JSONOutput(t *testing.T) {
	srv, _ := newFakeBackend(t)
	e := testEnv(t, srv.URL)

	out, err := run(t, e, "--json", "ask", "hi")
	require.NoError(t, err)

	var doc struct {
		Messages []model.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	require.Len(t, doc.Messages, 2)
	assert.Equal(t, model.SenderUser, doc.Messages[0].Sender)
	assert.Equal(t, "hi", doc.Messages[0].Text)
	assert.Equal(t, "echo: hi", doc.Messages[1].Text)
}

func TestAsk_MissingMessage(t *testing.T) {
	srv, _ := newFakeBackend(t)
	e := testEnv(t, srv.URL)

	_, err := run(t, e, "ask")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestAsk_UploadsFilesFirst(t *testing.T) {
	srv, fb := newFakeBackend(t)
	e := testEnv(t, srv.URL)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("meeting at noon"), 0o600))

	out, err := run(t, e, "ask", "-f", path, "Summarize")
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt"}, fb.snapshot(&fb.uploads))
	assert.Equal(t, []string{"Summarize"}, fb.snapshot(&fb.chats))
	assert.Contains(t, out, "Extracted notes.txt")
	assert.Contains(t, out, "notes.txt uploaded successfully!")
	assert.Less(t, strings.Index(out, "Extracted notes.txt"), strings.Index(out, "echo: Summarize"))
}

func TestUpload_ReportsFailures(t *testing.T) {
	srv, fb := newFakeBackend(t)
	e := testEnv(t, srv.URL)
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(good, []byte("fine"), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte("huge"), 0o600))

	out, err := run(t, e, "upload", good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	assert.Equal(t, []string{"good.txt", "bad.txt"}, fb.snapshot(&fb.uploads))
	assert.Contains(t, out, "❌ Upload failed for bad.txt: too big")
	assert.Contains(t, out, "Failed to upload bad.txt")

	out, err = run(t, e, "upload", good)
	require.NoError(t, err)
	assert.Contains(t, out, "good.txt uploaded successfully!")
}

func TestUpload_MissingFile(t *testing.T) {
	srv, fb := newFakeBackend(t)
	e := testEnv(t, srv.URL)

	_, err := run(t, e, "upload", filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	var cmdErr *CommandError
	assert.True(t, errors.As(err, &cmdErr))
	assert.Empty(t, fb.snapshot(&fb.uploads))
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestSettings_SetGetReset(t *testing.T) {
	srv, _ := newFakeBackend(t)
	e := testEnv(t, srv.URL)
	e.cfg.Settings.Store = "file"
	e.cfg.Settings.Path = filepath.Join(t.TempDir(), "settings.json")

	out, err := run(t, e, "settings", "set", "theme", "dark")
	require.NoError(t, err)
	assert.Contains(t, out, "dark")

	out, err = run(t, e, "settings", "get", "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	out, err = run(t, e, "settings", "get", "font_size")
	require.NoError(t, err)
	assert.Equal(t, "15\n", out)

	_, err = run(t, e, "settings", "reset")
	require.NoError(t, err)
	out, err = run(t, e, "settings", "get", "theme")
	require.NoError(t, err)
	assert.Equal(t, "auto\n", out)
}

func TestSettings_InvalidValues(t *testing.T) {
	srv, _ := newFakeBackend(t)
	e := testEnv(t, srv.URL)

	_, err := run(t, e, "settings", "set", "fontSize", "99")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	_, err = run(t, e, "settings", "get", "colour")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestSettings_JSON(t *testing.T) {
	srv, _ := newFakeBackend(t)
	e := testEnv(t, srv.URL)

	out, err := run(t, e, "--json", "settings")
	require.NoError(t, err)
	var st settings.Settings
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, settings.Defaults(), st)
}

// =============================================================================
// CONVERSATIONS / EXPORT
// =============================================================================

func TestConversations_ListShowDelete(t *testing.T) {
	srv, fb := newFakeBackend(t)
	e := testEnv(t, srv.URL)

	out, err := run(t, e, "conversations")
	require.NoError(t, err)
	assert.Contains(t, out, "Trip plans")
	assert.Contains(t, out, "2024-05-01 10:00")

	out, err = run(t, e, "conv", "show", "trip.json")
	require.NoError(t, err)
	assert.Contains(t, out, "Trip plans (2 messages)")
	assert.Contains(t, out, "Lisbon is lovely in May.")

	out, err = run(t, e, "conversations", "delete", "trip.json")
	require.NoError(t, err)
	assert.Contains(t, out, "Conversation deleted")
	assert.Equal(t, []string{"trip.json"}, fb.snapshot(&fb.deleted))
}

func TestConversations_ShowMissing(t *testing.T) {
	srv, _ := newFakeBackend(t)
	e := testEnv(t, srv.URL)

	_, err := run(t, e, "conversations", "show", "gone.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrConversationNotFound)
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))
}

func TestConversations_SaveFromExport(t *testing.T) {
	srv, fb := newFakeBackend(t)
	e := testEnv(t, srv.URL)
	path := filepath.Join(t.TempDir(), "export.json")
	doc := `{"name": "Exported chat", "messages": [{"sender": "user", "text": "hi", "time": "09:00"}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	out, err := run(t, e, "conversations", "save", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Conversation saved successfully")

	_, err = run(t, e, "conversations", "save", path, "--name", "Renamed")
	require.NoError(t, err)
	assert.Equal(t, []string{"Exported chat", "Renamed"}, fb.snapshot(&fb.saved))
}

func TestExport_Stdout(t *testing.T) {
	srv, _ := newFakeBackend(t)
	e := testEnv(t, srv.URL)

	out, err := run(t, e, "export", "trip.json", "--stdout")
	require.NoError(t, err)
	assert.Contains(t, out, "# Chat Export - ")
	assert.Contains(t, out, "Where should we go?")
	assert.Contains(t, out, "Lisbon is lovely in May.")
}

func TestExport_WritesFile(t *testing.T) {
	srv, _ := newFakeBackend(t)
	e := testEnv(t, srv.URL)
	dir := t.TempDir()

	_, err := run(t, e, "export", "trip.json", "--format", "json", "--output", dir)
	require.NoError(t, err)
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestExport_RejectsUnknownFormat(t *testing.T) {
	srv, _ := newFakeBackend(t)
	e := testEnv(t, srv.URL)

	_, err := run(t, e, "export", "trip.json", "--format", "pdf")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

// =============================================================================
// CONFIG / VERSION
// =============================================================================

func TestConfig_ShowReportsBackendStatus(t *testing.T) {
	srv, _ := newFakeBackend(t)
	e := testEnv(t, srv.URL)

	out, err := run(t, e, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "online")
	assert.Contains(t, out, "backend.base_url")
	assert.Contains(t, out, srv.URL)

	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()
	out, err = run(t, e, "--backend", downURL, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "offline")
}

func TestConfig_GetAndSet(t *testing.T) {
	srv, _ := newFakeBackend(t)
	e := testEnv(t, srv.URL)
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := run(t, e, "config", "get", "backend.base_url")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"\n", out)

	_, err = run(t, e, "--config", path, "config", "set", "backend.timeout_secs", "5")
	require.NoError(t, err)
	saved, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 5, saved.Backend.TimeoutSecs)

	_, err = run(t, e, "config", "get", "backend.nope")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	_, err = run(t, e, "--config", path, "config", "set", "backend.timeout_secs", "soon")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestConfig_EnvironmentsAreIndependent(t *testing.T) {
	first, _ := newFakeBackend(t)
	second, _ := newFakeBackend(t)
	a := testEnv(t, first.URL)
	b := testEnv(t, second.URL)

	_, err := run(t, a, "--backend", "http://127.0.0.1:1", "config", "get", "backend.base_url")
	require.NoError(t, err)

	out, err := run(t, b, "config", "get", "backend.base_url")
	require.NoError(t, err)
	assert.Equal(t, second.URL+"\n", out)
}

func TestConfig_Path(t *testing.T) {
	srv, _ := newFakeBackend(t)
	e := testEnv(t, srv.URL)

	out, err := run(t, e, "--config", "/tmp/elsewhere.toml", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/elsewhere.toml\n", out)
}

func TestVersion(t *testing.T) {
	srv, _ := newFakeBackend(t)
	e := testEnv(t, srv.URL)

	out, err := run(t, e, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "chatbot "+Version)
	assert.Contains(t, out, "commit:")
}

// =============================================================================
// ERRORS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", ErrMissingArgument("file", "x"), ExitUsageError},
		{"settings value", fmt.Errorf("wrap: %w", settings.ErrInvalidValue), ExitUsageError},
		{"config", config.ValidationError{Field: "backend.base_url", Message: "bad"}, ExitConfigError},
		{"not found", storage.ErrConversationNotFound, ExitNotFoundError},
		{"transport", &backend.TransportError{Path: "/chat", Err: errors.New("refused")}, ExitNetworkError},
		{"command", NewCommandError("upload", "send", "failed", nil), ExitGeneralError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayError(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, NewCommandError("conversations", "delete", "trip.json", storage.ErrConversationNotFound), true)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, false, got["success"])
	assert.Equal(t, "command_error", got["error_type"])
	assert.Equal(t, "delete", got["action"])
	assert.Equal(t, float64(ExitNotFoundError), got["exit_code"])

	buf.Reset()
	DisplayError(&buf, errors.New("plain"), false)
	assert.Contains(t, buf.String(), "[ERROR] plain")

	buf.Reset()
	DisplayError(&buf, nil, false)
	assert.Empty(t, buf.String())
}

// =============================================================================
// REPL
// =============================================================================

func TestLookupCommand(t *testing.T) {
	cmd, args, ok := lookupCommand("/EDIT #2 new text")
	require.True(t, ok)
	assert.Equal(t, "/edit", cmd.names[0])
	assert.Equal(t, "#2 new text", args)

	_, _, ok = lookupCommand("/search golang")
	assert.False(t, ok, "search is chat input")
	_, _, ok = lookupCommand("hello")
	assert.False(t, ok)
}

func TestCompleteCommand(t *testing.T) {
	assert.Equal(t, []string{"/delete", "/detach"}, completeCommand("/de"))
	assert.Nil(t, completeCommand("/delete #"))
	assert.Nil(t, completeCommand("hello"))
}

func TestREPL_ChatAndEdit(t *testing.T) {
	srv, fb := newFakeBackend(t)
	r, out := newTestREPL(t, testEnv(t, srv.URL))
	ctx := context.Background()

	require.NoError(t, r.handleLine(ctx, "hello"))
	assert.Contains(t, out.String(), "echo: hello")
	require.Len(t, r.session.Messages(), 3)

	require.NoError(t, r.handleLine(ctx, "/edit #2 hello again"))
	assert.Equal(t, "hello again", r.session.Messages()[1].Text)
	assert.Contains(t, out.String(), "(edited)")

	require.NoError(t, r.handleLine(ctx, "/regen"))
	assert.Equal(t, []string{"hello", "hello again"}, fb.snapshot(&fb.chats))
	assert.Equal(t, "echo: hello again", r.session.Messages()[2].Text)

	err := r.handleLine(ctx, "/edit #3 not mine")
	assert.ErrorIs(t, err, chat.ErrNotAllowed)

	require.NoError(t, r.handleLine(ctx, "/delete #2"))
	assert.Contains(t, out.String(), "Message #2 deleted")
	assert.Len(t, r.session.Messages(), 2)
}

func TestREPL_MissingArguments(t *testing.T) {
	srv, _ := newFakeBackend(t)
	r, _ := newTestREPL(t, testEnv(t, srv.URL))
	ctx := context.Background()

	for _, line := range []string{"/edit #2", "/delete", "/attach", "/load", "/font"} {
		err := r.handleLine(ctx, line)
		var valErr *ValidationError
		assert.True(t, errors.As(err, &valErr), line)
	}
	assert.Equal(t, ExitUsageError, GetExitCode(r.handleLine(ctx, "/export pdf")))
}

func TestREPL_UnknownSlashGoesToChat(t *testing.T) {
	srv, fb := newFakeBackend(t)
	r, _ := newTestREPL(t, testEnv(t, srv.URL))

	require.NoError(t, r.handleLine(context.Background(), "/shrug"))
	assert.Equal(t, []string{"/shrug"}, fb.snapshot(&fb.chats))
}

func TestREPL_QuickFillsPrompt(t *testing.T) {
	srv, _ := newFakeBackend(t)
	r, out := newTestREPL(t, testEnv(t, srv.URL))
	ctx := context.Background()

	require.NoError(t, r.handleLine(ctx, "/quick"))
	assert.Contains(t, out.String(), "summarize")

	require.NoError(t, r.handleLine(ctx, "/quick summarize"))
	assert.Equal(t, chat.QuickPrompts["summarize"], r.shell.takeInput())
	assert.Empty(t, r.shell.takeInput())

	err := r.handleLine(ctx, "/quick haiku")
	assert.ErrorIs(t, err, chat.ErrUnknownQuickAction)
}

func TestREPL_AttachAndSend(t *testing.T) {
	srv, fb := newFakeBackend(t)
	r, out := newTestREPL(t, testEnv(t, srv.URL))
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	require.NoError(t, r.handleLine(ctx, "/files"))
	assert.Contains(t, out.String(), "No files staged.")

	require.NoError(t, r.handleLine(ctx, "/attach "+path))
	assert.Contains(t, out.String(), "notes.txt")
	assert.Equal(t, "[1 staged] > ", r.prompt())

	require.NoError(t, r.handleLine(ctx, "read it"))
	assert.Equal(t, []string{"notes.txt"}, fb.snapshot(&fb.uploads))
	assert.Equal(t, []string{"read it"}, fb.snapshot(&fb.chats))
	assert.Equal(t, "> ", r.prompt())
}

func TestREPL_Preferences(t *testing.T) {
	srv, _ := newFakeBackend(t)
	r, out := newTestREPL(t, testEnv(t, srv.URL))
	ctx := context.Background()

	require.NoError(t, r.handleLine(ctx, "/theme"))
	assert.Equal(t, settings.ThemeLight, r.session.Settings().Theme)

	require.NoError(t, r.handleLine(ctx, "/temp 0.3"))
	assert.InDelta(t, 0.3, r.session.Settings().Temperature, 1e-9)

	require.NoError(t, r.handleLine(ctx, "/voice"))
	assert.True(t, r.session.Settings().VoiceEnabled)
	assert.Contains(t, out.String(), "No speech synthesizer found")

	require.NoError(t, r.handleLine(ctx, "/settings"))
	assert.Contains(t, out.String(), "temperature:")

	err := r.handleLine(ctx, "/listen")
	assert.ErrorIs(t, err, chat.ErrVoiceUnavailable)
}

func TestREPL_ServerConversations(t *testing.T) {
	srv, fb := newFakeBackend(t)
	r, out := newTestREPL(t, testEnv(t, srv.URL))
	ctx := context.Background()

	require.NoError(t, r.handleLine(ctx, "/list"))
	assert.Contains(t, out.String(), "Trip plans")

	require.NoError(t, r.handleLine(ctx, "/load trip.json"))
	msgs := r.session.Messages()
	require.Len(t, msgs, 3, "welcome plus the two loaded messages")
	assert.Equal(t, "Lisbon is lovely in May.", msgs[2].Text)

	require.NoError(t, r.handleLine(ctx, "/save Holiday"))
	assert.Equal(t, []string{"Holiday"}, fb.snapshot(&fb.saved))

	err := r.handleLine(ctx, "/load gone.json")
	assert.ErrorIs(t, err, errAlreadyReported)
	assert.Contains(t, out.String(), "Conversation not found")

	require.NoError(t, r.handleLine(ctx, "/clear"))
	assert.Len(t, r.session.Messages(), 1)
}

func TestREPL_Quit(t *testing.T) {
	srv, _ := newFakeBackend(t)
	r, _ := newTestREPL(t, testEnv(t, srv.URL))

	require.NoError(t, r.handleLine(context.Background(), "/q"))
	assert.True(t, r.quit)
}

// =============================================================================
// PRINTER
// =============================================================================

func TestPrinter_TracksPositions(t *testing.T) {
	srv, _ := newFakeBackend(t)
	e := testEnv(t, srv.URL)
	var out bytes.Buffer
	app, err := e.newApp(&out)
	require.NoError(t, err)
	p := newPrinter(app, true)

	a := model.NewUserMessage("first")
	b := model.NewBotMessage("second")
	c := model.NewUserMessage("third")
	p.MessageAdded(a)
	p.MessageAdded(b)
	p.MessageAdded(c)
	assert.Contains(t, out.String(), "#3")
	assert.Equal(t, 2, p.indexOf(b.ID))

	p.MessageRemoved(a.ID)
	assert.Contains(t, out.String(), "Message #1 deleted")
	assert.Equal(t, 1, p.indexOf(b.ID))
	assert.Equal(t, 2, p.indexOf(c.ID))

	p.TranscriptReset([]*model.Message{c})
	assert.Equal(t, 1, p.indexOf(c.ID))
	assert.Equal(t, 0, p.indexOf(b.ID))
}
