// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
)

// Endpoint paths.
const (
	PathChat               = "/chat"
	PathUpload             = "/upload"
	PathSearch             = "/search"
	PathWikipedia          = "/wikipedia"
	PathSaveConversation   = "/save-conversation"
	PathListConversations  = "/list-conversations"
	PathLoadConversation   = "/load-conversation"
	PathDeleteConversation = "/delete-conversation"
)

// =============================================================================
// CHAT
// =============================================================================

type chatRequest struct {
	Message     string  `json:"message"`
	Temperature float64 `json:"temperature"`
}

type chatResponse struct {
	Response *string `json:"response"`
}

// Chat sends one message and returns the reply text. A 2xx reply without a
// non-empty "response" field is a *FormatError.
func (c *Client) Chat(ctx context.Context, message string, temperature float64) (string, error) {
	var resp chatResponse
	if err := c.PostJSON(ctx, PathChat, chatRequest{Message: message, Temperature: temperature}, &resp); err != nil {
		return "", err
	}
	if resp.Response == nil || *resp.Response == "" {
		return "", &FormatError{Path: PathChat, Reason: ErrInvalidResponse}
	}
	return *resp.Response, nil
}

type clearContextRequest struct {
	Message      string `json:"message"`
	ClearContext bool   `json:"clear_context"`
}

// ClearContext asks the server to drop uploaded-file context. The request
// runs in the background; its result is ignored and failures are only
// logged. The returned channel closes once the attempt has finished.
func (c *Client) ClearContext(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := c.postJSON(ctx, c.clearContextURL, "clear-context", clearContextRequest{ClearContext: true}, nil)
		if err != nil {
			c.logger.Debug().Err(err).Str("url", c.clearContextURL).Msg("clear-context signal failed")
		}
	}()
	return done
}

// =============================================================================
// UPLOAD
// =============================================================================

// UploadRequest is one file encoded as a data URI.
type UploadRequest struct {
	FileData string `json:"fileData"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

// UploadResponse is the server's acknowledgement. Content is the text the
// server extracted from the file, meant to be shown as a bot message.
type UploadResponse struct {
	Message  string `json:"message"`
	Content  string `json:"content"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

// Upload sends one file.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (*UploadResponse, error) {
	var resp UploadResponse
	if err := c.PostJSON(ctx, PathUpload, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// =============================================================================
// SEARCH
// =============================================================================

type queryRequest struct {
	Query string `json:"query"`
}

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url,omitempty"`
}

// SearchResponse is the /search reply.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Status  string         `json:"status,omitempty"`
}

// Search runs a web search.
func (c *Client) Search(ctx context.Context, query string) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.PostJSON(ctx, PathSearch, queryRequest{Query: query}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WikiResult is one Wikipedia article.
type WikiResult struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	URL       string `json:"url,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// WikiResponse is the /wikipedia reply.
type WikiResponse struct {
	Query   string       `json:"query"`
	Results []WikiResult `json:"results"`
	Source  string       `json:"source,omitempty"`
	Status  string       `json:"status,omitempty"`
}

// Wikipedia searches Wikipedia.
func (c *Client) Wikipedia(ctx context.Context, query string) (*WikiResponse, error) {
	var resp WikiResponse
	if err := c.PostJSON(ctx, PathWikipedia, queryRequest{Query: query}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
