// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat transcripts.
//
// # Key Types
//
//   - Message: one transcript entry with sender, raw text, and display time
//   - Conversation: the ordered, append-mostly list of messages for a session
//   - Record: a conversation as stored by the backend
//   - Summary: one entry of the backend's conversation listing
//
// # Usage
//
//	conv := model.NewConversation("Hello! How can I help?")
//	conv.Add(model.NewUserMessage("hi"))
//	if conv.HasTurns() {
//	    turns := conv.Turns() // welcome greeting excluded
//	}
package model
