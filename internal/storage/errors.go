// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrConversationNotFound is returned when the server has no record with
	// the requested filename.
	ErrConversationNotFound = &ConversationError{Message: "Conversation not found"}

	// ErrNothingToSave is returned when saving a transcript with no turns.
	ErrNothingToSave = &ConversationError{Message: "No conversation to save"}

	// ErrMissingFilename is returned when load or delete get an empty name.
	ErrMissingFilename = &ConversationError{Message: "No filename provided"}
)

// ConversationError is a failure reported by the server for a persistence
// operation. Errors with the same message compare equal under errors.Is.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
