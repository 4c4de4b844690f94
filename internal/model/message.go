// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// String returns the wire form of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns the label used in exports and the transcript view.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "User"
	case SenderBot:
		return "Assistant"
	default:
		return string(s)
	}
}

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderBot
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// ClockLayout is the hour:minute form stored in Message.Timestamp.
const ClockLayout = "15:04"

// Message is one transcript entry. Text is the raw, unformatted body.
//
// The JSON form matches what the backend stores for saved conversations:
// {"sender": "...", "text": "...", "time": "..."}.
type Message struct {
	ID        string    `json:"-"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp string    `json:"time"`
	CreatedAt time.Time `json:"-"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(sender Sender, text string) *Message {
	now := time.Now()
	return &Message{
		ID:        newID(),
		Sender:    sender,
		Text:      text,
		Timestamp: now.Format(ClockLayout),
		CreatedAt: now,
	}
}

// NewUserMessage creates a message authored by the user.
func NewUserMessage(text string) *Message {
	return NewMessage(SenderUser, text)
}

// NewBotMessage creates a message authored by the backend.
func NewBotMessage(text string) *Message {
	return NewMessage(SenderBot, text)
}

// IsUser reports whether the user wrote the message.
func (m *Message) IsUser() bool {
	return m.Sender == SenderUser
}

// Clone returns a copy that can be handed out without sharing state.
func (m *Message) Clone() *Message {
	c := *m
	return &c
}

func newID() string {
	return "msg_" + uuid.NewString()
}
