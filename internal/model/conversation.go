// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "errors"

// ErrMessageNotFound is returned when an operation names an unknown message ID.
var ErrMessageNotFound = errors.New("message not found")

// Conversation is the ordered message list of a chat session. The optional
// welcome message is always first and survives Clear.
//
// Conversation is not safe for concurrent use; the chat session guards it.
type Conversation struct {
	welcome  *Message
	messages []*Message
}

// NewConversation creates a conversation. An empty welcome text means no
// greeting is shown.
func NewConversation(welcome string) *Conversation {
	c := &Conversation{}
	if welcome != "" {
		c.welcome = NewBotMessage(welcome)
		c.messages = append(c.messages, c.welcome)
	}
	return c
}

// Add appends a message.
func (c *Conversation) Add(msg *Message) {
	c.messages = append(c.messages, msg)
}

// Messages returns copies of all messages in order.
func (c *Conversation) Messages() []*Message {
	out := make([]*Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.Clone()
	}
	return out
}

// Len returns the number of messages, welcome included.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Get returns a copy of the message with the given ID.
func (c *Conversation) Get(id string) (*Message, error) {
	i := c.index(id)
	if i < 0 {
		return nil, ErrMessageNotFound
	}
	return c.messages[i].Clone(), nil
}

// SetText replaces the body of one message in place.
func (c *Conversation) SetText(id, text string) error {
	i := c.index(id)
	if i < 0 {
		return ErrMessageNotFound
	}
	c.messages[i].Text = text
	return nil
}

// Remove deletes one message.
func (c *Conversation) Remove(id string) error {
	i := c.index(id)
	if i < 0 {
		return ErrMessageNotFound
	}
	if c.messages[i] == c.welcome {
		c.welcome = nil
	}
	c.messages = append(c.messages[:i], c.messages[i+1:]...)
	return nil
}

// Before returns the message immediately preceding the one with the given
// ID, or ErrMessageNotFound when there is none.
func (c *Conversation) Before(id string) (*Message, error) {
	i := c.index(id)
	if i <= 0 {
		return nil, ErrMessageNotFound
	}
	return c.messages[i-1].Clone(), nil
}

// Clear drops every message except the welcome greeting.
func (c *Conversation) Clear() {
	c.messages = c.messages[:0]
	if c.welcome != nil {
		c.messages = append(c.messages, c.welcome)
	}
}

// HasTurns reports whether anything beyond the welcome greeting exists.
func (c *Conversation) HasTurns() bool {
	for _, m := range c.messages {
		if m != c.welcome {
			return true
		}
	}
	return false
}

// Turns returns copies of every message except the welcome greeting.
func (c *Conversation) Turns() []*Message {
	out := make([]*Message, 0, len(c.messages))
	for _, m := range c.messages {
		if m == c.welcome {
			continue
		}
		out = append(out, m.Clone())
	}
	return out
}

func (c *Conversation) index(id string) int {
	for i, m := range c.messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}
