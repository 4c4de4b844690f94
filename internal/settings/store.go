// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// StorageKey is the KV key holding the settings record.
const StorageKey = "chatbot-settings"

var (
	// ErrUnknownField is returned for a field name Settings does not have.
	ErrUnknownField = errors.New("unknown settings field")
	// ErrInvalidValue is returned when a value fails parsing or range checks.
	ErrInvalidValue = errors.New("invalid settings value")
)

// Store loads and saves Settings through a KV backend.
type Store struct {
	kv     KV
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewStore creates a store on top of kv.
func NewStore(kv KV) *Store {
	return &Store{kv: kv, logger: zerolog.Nop()}
}

// WithLogger sets the logger used for storage warnings.
func (s *Store) WithLogger(logger zerolog.Logger) *Store {
	s.logger = logger
	return s
}

// Load returns the stored settings merged over Defaults. Missing, corrupt,
// or unreadable records yield the defaults; problems are logged, never
// returned, because a session must always be able to start.
func (s *Store) Load() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() Settings {
	out := Defaults()

	raw, ok, err := s.kv.Get(StorageKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("settings: read failed, using defaults")
		return out
	}
	if !ok {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		s.logger.Warn().Err(err).Msg("settings: stored record is corrupt, using defaults")
		return Defaults()
	}
	return out.sanitize()
}

// Save persists the full record.
func (s *Store) Save(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(settings)
}

func (s *Store) save(settings Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.kv.Set(StorageKey, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Update loads the current record, sets one field, and saves it. The
// returned Settings reflect storage after the write.
func (s *Store) Update(field string, value interface{}) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.load()
	if err := cur.Set(field, value); err != nil {
		return cur, err
	}
	if err := s.save(cur); err != nil {
		return cur, err
	}
	return cur, nil
}

// Modify applies fn to the current record and saves the result, for
// changes that depend on the old value such as cycling the theme.
func (s *Store) Modify(fn func(*Settings)) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.load()
	fn(&cur)
	if err := cur.Validate(); err != nil {
		return s.load(), err
	}
	if err := s.save(cur); err != nil {
		return cur, err
	}
	return cur, nil
}

// Reset stores the defaults.
func (s *Store) Reset() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := Defaults()
	return d, s.save(d)
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.kv.Close()
}
