// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package format turns raw message text into displayable output.
//
// HTML converts the small markdown subset the chat backend produces (bold,
// italic, fenced and inline code, newlines) into HTML with a fixed chain of
// regular expressions. Input is not escaped: callers must only pass
// trusted backend text. Rules run in order over the whole string, so a
// later rule can match text that an earlier rule produced; for example,
// asterisks inside a fenced code block are turned into <em> before the
// code block is recognised.
//
// Renderer prints the same raw text to a terminal, using glamour when
// markdown rendering is enabled and chroma-highlighted code blocks when it
// is not.
package format
