// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/chatbot/internal/backend"
	"github.com/jeranaias/chatbot/internal/model"
)

// Poster sends a JSON request and decodes the JSON reply.
// *backend.Client implements it.
type Poster interface {
	PostJSON(ctx context.Context, path string, body, out interface{}) error
}

// Client is the conversation persistence client.
type Client struct {
	poster Poster
	now    func() time.Time
}

// NewClient creates a persistence client over poster.
func NewClient(poster Poster) *Client {
	return &Client{poster: poster, now: time.Now}
}

// envelope is the reply shape shared by all persistence endpoints.
type envelope struct {
	Success       bool            `json:"success"`
	Message       string          `json:"message,omitempty"`
	Error         string          `json:"error,omitempty"`
	Filename      string          `json:"filename,omitempty"`
	Conversations []model.Summary `json:"conversations,omitempty"`
	Conversation  *model.Record   `json:"conversation,omitempty"`
}

type saveRequest struct {
	Name     string           `json:"name"`
	Messages []*model.Message `json:"messages"`
}

type filenameRequest struct {
	Filename string `json:"filename"`
}

// SaveResult is the server's acknowledgement of a save.
type SaveResult struct {
	Message  string
	Filename string
}

// Save stores messages under name. An empty name becomes
// "Conversation_<date>". An empty message list is rejected locally.
func (c *Client) Save(ctx context.Context, name string, messages []*model.Message) (*SaveResult, error) {
	if len(messages) == 0 {
		return nil, ErrNothingToSave
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = model.DefaultConversationName(c.now())
	}

	var env envelope
	if err := c.call(ctx, backend.PathSaveConversation, saveRequest{Name: name, Messages: messages}, &env); err != nil {
		return nil, err
	}
	res := &SaveResult{Message: env.Message, Filename: env.Filename}
	if res.Filename == "" {
		res.Filename = name
	}
	return res, nil
}

// List returns the saved conversations in the order the server sent them
// (newest first).
func (c *Client) List(ctx context.Context) ([]model.Summary, error) {
	var env envelope
	if err := c.call(ctx, backend.PathListConversations, struct{}{}, &env); err != nil {
		return nil, err
	}
	if env.Conversations == nil {
		return []model.Summary{}, nil
	}
	return env.Conversations, nil
}

// Load fetches one conversation by filename.
func (c *Client) Load(ctx context.Context, filename string) (*model.Record, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, ErrMissingFilename
	}
	var env envelope
	if err := c.call(ctx, backend.PathLoadConversation, filenameRequest{Filename: filename}, &env); err != nil {
		return nil, err
	}
	if env.Conversation == nil {
		return nil, &backend.FormatError{Path: backend.PathLoadConversation, Reason: "reply has no conversation"}
	}
	rec := env.Conversation
	if rec.Filename == "" {
		rec.Filename = filename
	}
	return rec, nil
}

// Delete removes one conversation and returns the server's acknowledgement.
func (c *Client) Delete(ctx context.Context, filename string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", ErrMissingFilename
	}
	var env envelope
	if err := c.call(ctx, backend.PathDeleteConversation, filenameRequest{Filename: filename}, &env); err != nil {
		return "", err
	}
	return env.Message, nil
}

// call posts and converts both HTTP and envelope failures into errors.
func (c *Client) call(ctx context.Context, path string, body interface{}, env *envelope) error {
	err := c.poster.PostJSON(ctx, path, body, env)
	if err != nil {
		var se *backend.HTTPStatusError
		if errors.As(err, &se) {
			if se.Status == http.StatusNotFound {
				return ErrConversationNotFound
			}
			if se.Message != "" {
				return &ConversationError{Message: se.Message}
			}
		}
		return err
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "request failed"
		}
		return &ConversationError{Message: msg}
	}
	return nil
}
