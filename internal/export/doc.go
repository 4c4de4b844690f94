// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the chat transcript to a file.
//
// Markdown is the primary format and matches what the web client produced:
//
//	# Chat Export - <date time>
//
//	## User (<time>)
//
//	<text>
//
//	---
//
// JSON and HTML are also available. Files are named chat-export-<date>.<ext>.
package export
