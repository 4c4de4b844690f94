// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jeranaias/chatbot/internal/backend"
)

var (
	// ErrNotAllowed is returned when an action does not apply to the
	// message it names, e.g. editing a bot reply.
	ErrNotAllowed = errors.New("action not allowed on this message")

	// ErrNoUserMessage is returned by regenerate when the reply does not
	// directly follow a user message.
	ErrNoUserMessage = errors.New("no user message before this reply")

	// ErrUnknownAction is returned by Do for an action outside the table.
	ErrUnknownAction = errors.New("unknown action")

	// ErrUnknownQuickAction is returned for a quick action without a prompt.
	ErrUnknownQuickAction = errors.New("unknown quick action")

	// ErrVoiceUnavailable is returned when speech is requested on a system
	// without speech commands.
	ErrVoiceUnavailable = errors.New("voice is not available")

	// ErrNoPersistence is returned by the conversation actions when the
	// session was built without conversation storage.
	ErrNoPersistence = errors.New("conversation storage is not configured")

	// ErrNoClipboard is returned by copy when no clipboard writer is set.
	ErrNoClipboard = errors.New("clipboard not available")
)

// User-facing replies for failed chat requests.
const (
	msgBadRequest   = "I'm sorry, but I couldn't process your request. Please try rephrasing your message."
	msgForbidden    = "I'm sorry, but there seems to be an issue with the API configuration. Please check with the administrator."
	msgRateLimited  = "I'm currently receiving too many requests. Please wait a moment and try again."
	msgUnreachable  = "I'm sorry, but I'm having trouble connecting to the server. Please check your connection and try again."
	msgGenericError = "I'm sorry, but I encountered an error: %s. Please try again later."
)

// UserMessage turns a chat failure into the reply shown in the transcript.
// Status codes are taken from the typed error, not from the message text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if backend.IsTransport(err) {
		return msgUnreachable
	}
	if status, ok := backend.StatusCode(err); ok {
		switch status {
		case http.StatusBadRequest:
			return msgBadRequest
		case http.StatusForbidden:
			return msgForbidden
		case http.StatusTooManyRequests:
			return msgRateLimited
		case http.StatusServiceUnavailable:
			return msgUnreachable
		}
	}
	return fmt.Sprintf(msgGenericError, err.Error())
}
