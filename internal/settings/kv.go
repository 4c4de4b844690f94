// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/jeranaias/chatbot/internal/util"
)

// KV is a minimal string-keyed byte store.
type KV interface {
	// Get returns the value and whether the key existed.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Close() error
}

// =============================================================================
// MEMORY
// =============================================================================

// MemoryKV keeps values in process memory.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Close() error { return nil }

// =============================================================================
// FILE
// =============================================================================

// FileKV stores all keys in one JSON object on disk. Each Set rewrites the
// file atomically.
type FileKV struct {
	path string
	mu   sync.Mutex
}

// NewFileKV returns a store backed by path. The file is created on first Set.
func NewFileKV(path string) (*FileKV, error) {
	if path == "" {
		return nil, errors.New("settings file path is empty")
	}
	return &FileKV{path: path}, nil
}

// Path returns the backing file.
func (f *FileKV) Path() string {
	return f.path
}

func (f *FileKV) readAll() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	all := map[string]json.RawMessage{}
	if len(data) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	return all, nil
}

func (f *FileKV) Get(key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all, err := f.readAll()
	if err != nil {
		return nil, false, err
	}
	v, ok := all[key]
	return []byte(v), ok, nil
}

// Set stores value, which must be valid JSON.
func (f *FileKV) Set(key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("value for %q is not valid JSON", key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	all, err := f.readAll()
	if err != nil {
		// Overwrite an unreadable file rather than refusing every change.
		all = map[string]json.RawMessage{}
	}
	all[key] = json.RawMessage(value)
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFileWithDir(f.path, data, 0600, 0700)
}

func (f *FileKV) Close() error { return nil }
