// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings persists the user's chat preferences.
//
// Settings are stored as one JSON value under a fixed key in a KV backend.
// Loading merges whatever was persisted over the defaults, so older or
// partial records keep working. Every change is written back immediately.
//
// # Backends
//
//   - FileKV: a JSON file written atomically
//   - SQLiteKV: a single-table SQLite database (pure Go driver)
//   - MemoryKV: in-process map, used by tests and --ephemeral sessions
//
// # Usage
//
//	kv, _ := settings.NewFileKV(path)
//	store := settings.NewStore(kv)
//	s := store.Load()
//	s, err := store.Update("theme", "dark")
package settings
