// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across the chatbot packages.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file writing with fsync and rename
//   - Truncate: display-width aware truncation with ellipsis
//   - FormatFileSize: human readable byte counts (base 1024)
//
// # Usage
//
//	label := util.Truncate(name, 15)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
