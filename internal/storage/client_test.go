// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatbot/internal/backend"
	"github.com/jeranaias/chatbot/internal/model"
)

// =============================================================================
// FAKE SERVER
// =============================================================================

// fakeServer mimics the chat server's conversation endpoints in memory.
type fakeServer struct {
	mu      sync.Mutex
	records map[string]*model.Record
	calls   []string
}

func newFakeServer(t *testing.T) (*fakeServer, *Client) {
	t.Helper()
	fs := &fakeServer{records: map[string]*model.Record{}}
	mux := http.NewServeMux()
	mux.HandleFunc(backend.PathSaveConversation, fs.save)
	mux.HandleFunc(backend.PathListConversations, fs.list)
	mux.HandleFunc(backend.PathLoadConversation, fs.load)
	mux.HandleFunc(backend.PathDeleteConversation, fs.remove)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	c := NewClient(backend.New(server.URL))
	c.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	return fs, c
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (fs *fakeServer) save(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string           `json:"name"`
		Messages []*model.Message `json:"messages"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.calls = append(fs.calls, "save")
	fs.records[req.Name] = &model.Record{Name: req.Name, Created: "2025-03-01T09:00:00", Messages: req.Messages}
	writeJSON(w, 200, map[string]interface{}{
		"success": true, "message": `Conversation saved as "` + req.Name + `"`, "filename": req.Name,
	})
}

func (fs *fakeServer) list(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.calls = append(fs.calls, "list")
	var out []model.Summary
	for name, rec := range fs.records {
		out = append(out, model.Summary{Name: rec.Name, Filename: name, Created: rec.Created, MessageCount: len(rec.Messages)})
	}
	writeJSON(w, 200, map[string]interface{}{"success": true, "conversations": out})
}

func (fs *fakeServer) load(w http.ResponseWriter, r *http.Request) {
	var req struct{ Filename string }
	_ = json.NewDecoder(r.Body).Decode(&req)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.calls = append(fs.calls, "load")
	rec, ok := fs.records[req.Filename]
	if !ok {
		writeJSON(w, 404, map[string]string{"error": "Conversation not found"})
		return
	}
	writeJSON(w, 200, map[string]interface{}{"success": true, "conversation": rec})
}

func (fs *fakeServer) remove(w http.ResponseWriter, r *http.Request) {
	var req struct{ Filename string }
	_ = json.NewDecoder(r.Body).Decode(&req)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.calls = append(fs.calls, "delete")
	if _, ok := fs.records[req.Filename]; !ok {
		writeJSON(w, 404, map[string]string{"error": "Conversation not found"})
		return
	}
	delete(fs.records, req.Filename)
	writeJSON(w, 200, map[string]interface{}{"success": true, "message": `Conversation "` + req.Filename + `" deleted successfully`})
}

// =============================================================================
// ROUND TRIP
// =============================================================================

func TestClient_SaveListLoadDelete(t *testing.T) {
	_, c := newFakeServer(t)
	ctx := context.Background()

	msgs := []*model.Message{
		{Sender: model.SenderUser, Text: "hi", Timestamp: "09:00"},
		{Sender: model.SenderBot, Text: "hello", Timestamp: "09:00"},
	}

	res, err := c.Save(ctx, "", msgs)
	require.NoError(t, err)
	assert.Equal(t, "Conversation_2025-03-01", res.Filename)
	assert.Equal(t, `Conversation saved as "Conversation_2025-03-01"`, res.Message)

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].MessageCount)

	rec, err := c.Load(ctx, res.Filename)
	require.NoError(t, err)
	require.Len(t, rec.Messages, 2)
	assert.Equal(t, "hello", rec.Messages[1].Text)
	assert.Equal(t, res.Filename, rec.Filename)

	ack, err := c.Delete(ctx, res.Filename)
	require.NoError(t, err)
	assert.Contains(t, ack, "deleted successfully")

	list, err = c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

// =============================================================================
// FAIL CLOSED
// =============================================================================

func TestClient_NotFound(t *testing.T) {
	_, c := newFakeServer(t)
	_, err := c.Load(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrConversationNotFound))

	_, err = c.Delete(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrConversationNotFound))
}

func TestClient_LocalValidationMakesNoRequest(t *testing.T) {
	fs, c := newFakeServer(t)
	ctx := context.Background()

	_, err := c.Save(ctx, "x", nil)
	assert.True(t, errors.Is(err, ErrNothingToSave))
	_, err = c.Load(ctx, " ")
	assert.True(t, errors.Is(err, ErrMissingFilename))
	_, err = c.Delete(ctx, "")
	assert.True(t, errors.Is(err, ErrMissingFilename))

	assert.Empty(t, fs.calls)
}

func TestClient_SuccessFalseIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]interface{}{"success": false, "error": "disk full"})
	}))
	defer server.Close()

	c := NewClient(backend.New(server.URL))
	_, err := c.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, "disk full", err.Error())
}

func TestClient_ServerErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 500, map[string]string{"error": "Save error: denied"})
	}))
	defer server.Close()

	_, err := NewClient(backend.New(server.URL)).Save(context.Background(), "a",
		[]*model.Message{{Sender: model.SenderUser, Text: "x"}})
	require.Error(t, err)
	assert.Equal(t, "Save error: denied", err.Error())
}

func TestClient_TransportErrorPassesThrough(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(backend.New(url)).List(context.Background())
	assert.True(t, backend.IsTransport(err))
}

// =============================================================================
// FORMATTING
// =============================================================================

func TestFormatList(t *testing.T) {
	assert.Equal(t, "No saved conversations.\n", FormatList(nil))

	out := FormatList([]model.Summary{
		{Name: "Trip planning", Filename: "trip", Created: "2025-03-01T09:30:00.123456", MessageCount: 7},
	})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], "Trip planning")
	assert.Contains(t, lines[2], "2025-03-01 09:30")
	assert.True(t, strings.HasSuffix(lines[2], "7"))
}

func TestFormatRecord(t *testing.T) {
	out := FormatRecord(&model.Record{Name: "n", Messages: []*model.Message{
		{Sender: model.SenderUser, Text: "q", Timestamp: "10:00"},
	}})
	assert.Contains(t, out, "[10:00] User: q")
}
