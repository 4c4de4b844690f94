// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the conversation controller.
//
// A Session owns the transcript and turns user input into backend calls:
// staged files are uploaded first, then the text is sent as a chat message
// or, with a "/search " or "/wiki " prefix, as a search. Every text turn
// appends exactly one user message and one bot message, and turns never
// interleave.
//
// The session knows nothing about how it is displayed. A front end plugs in
// through the Shell, Notifier and Indicator interfaces and drives
// everything else through Submit and Do.
package chat
