// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend is the HTTP client for the chat server.
//
// Every endpoint is a JSON POST relative to one base URL:
//
//	/chat                {message, temperature}      -> {response}
//	/upload              {fileData, fileName, fileType} -> {content}
//	/search              {query}                     -> {results: [{title, snippet, url}]}
//	/wikipedia           {query}                     -> {results: [{title, summary, url}]}
//	/save-conversation   {name, messages}            -> {success, message}
//	/list-conversations  {}                          -> {success, conversations}
//	/load-conversation   {filename}                  -> {success, conversation}
//	/delete-conversation {filename}                  -> {success, message}
//
// Failures are reported as one of three error types: TransportError when
// the server could not be reached, HTTPStatusError for a non-2xx reply, and
// FormatError when a 2xx reply lacks the expected field. Requests are not
// retried.
//
// The clear-context signal goes to a separately configured URL and its
// outcome is ignored.
package backend
