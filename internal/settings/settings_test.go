// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// SETTINGS VALUE TESTS
// =============================================================================

func TestDefaults(t *testing.T) {
	d := Defaults()
	assert.Equal(t, ThemeAuto, d.Theme)
	assert.Equal(t, 15, d.FontSize)
	assert.Equal(t, 0.7, d.Temperature)
	assert.False(t, d.VoiceEnabled)
	assert.NoError(t, d.Validate())
}

func TestTheme_NextCycles(t *testing.T) {
	assert.Equal(t, ThemeDark, ThemeLight.Next())
	assert.Equal(t, ThemeAuto, ThemeDark.Next())
	assert.Equal(t, ThemeLight, ThemeAuto.Next())
}

func TestSettings_Set(t *testing.T) {
	tests := []struct {
		field   string
		value   interface{}
		check   func(Settings) bool
		wantErr bool
	}{
		{"theme", "DARK", func(s Settings) bool { return s.Theme == ThemeDark }, false},
		{"font_size", "18", func(s Settings) bool { return s.FontSize == 18 }, false},
		{"fontSize", 12, func(s Settings) bool { return s.FontSize == 12 }, false},
		{"font-size", "16px", func(s Settings) bool { return s.FontSize == 16 }, false},
		{"temperature", "0.2", func(s Settings) bool { return s.Temperature == 0.2 }, false},
		{"voice_enabled", "on", func(s Settings) bool { return s.VoiceEnabled }, false},
		{"voiceEnabled", true, func(s Settings) bool { return s.VoiceEnabled }, false},
		{"theme", "sepia", nil, true},
		{"fontSize", 40, nil, true},
		{"temperature", 1.5, nil, true},
		{"voiceEnabled", "sometimes", nil, true},
		{"color", "red", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			s := Defaults()
			err := s.Set(tt.field, tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, Defaults(), s, "failed Set must not modify settings")
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.check(s), "unexpected result %+v", s)
		})
	}
}

func TestSettings_SetErrorKinds(t *testing.T) {
	s := Defaults()
	assert.True(t, errors.Is(s.Set("nope", 1), ErrUnknownField))
	assert.True(t, errors.Is(s.Set("fontSize", 99), ErrInvalidValue))
	assert.True(t, errors.Is(s.Set("temperature", "NaN"), ErrInvalidValue))
	assert.True(t, errors.Is(s.Set("temperature", math.NaN()), ErrInvalidValue))
	assert.Equal(t, Defaults().Temperature, s.Temperature)
}

// =============================================================================
// STORE TESTS (run against every backend)
// =============================================================================

func backends(t *testing.T) map[string]KV {
	t.Helper()
	dir := t.TempDir()

	fkv, err := NewFileKV(filepath.Join(dir, "settings.json"))
	require.NoError(t, err)

	skv, err := OpenSQLiteKV(filepath.Join(dir, "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { skv.Close() })

	return map[string]KV{
		"memory": NewMemoryKV(),
		"file":   fkv,
		"sqlite": skv,
	}
}

func TestStore_LoadWithoutRecordReturnsDefaults(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, Defaults(), NewStore(kv).Load())
		})
	}
}

func TestStore_UpdatePersists(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := NewStore(kv)

			got, err := store.Update("theme", "dark")
			require.NoError(t, err)
			assert.Equal(t, ThemeDark, got.Theme)

			_, err = store.Update("temperature", 0.3)
			require.NoError(t, err)

			loaded := NewStore(kv).Load()
			assert.Equal(t, ThemeDark, loaded.Theme)
			assert.Equal(t, 0.3, loaded.Temperature)
			assert.Equal(t, 15, loaded.FontSize)
		})
	}
}

func TestStore_PartialRecordMergesOverDefaults(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(StorageKey, []byte(`{"theme":"light"}`)))

	s := NewStore(kv).Load()
	assert.Equal(t, ThemeLight, s.Theme)
	assert.Equal(t, 15, s.FontSize)
	assert.Equal(t, 0.7, s.Temperature)
}

func TestStore_CorruptOrOutOfRangeRecord(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(StorageKey, []byte(`{not json`)))
	assert.Equal(t, Defaults(), NewStore(kv).Load())

	require.NoError(t, kv.Set(StorageKey, []byte(`{"theme":"neon","fontSize":99,"temperature":0.1}`)))
	s := NewStore(kv).Load()
	assert.Equal(t, ThemeAuto, s.Theme)
	assert.Equal(t, 15, s.FontSize)
	assert.Equal(t, 0.1, s.Temperature)
}

func TestStore_UpdateRejectsInvalidWithoutWriting(t *testing.T) {
	kv := NewMemoryKV()
	store := NewStore(kv)

	_, err := store.Update("fontSize", 3)
	require.Error(t, err)
	_, err = store.Update("temperature", "NaN")
	require.ErrorIs(t, err, ErrInvalidValue)

	_, ok, _ := kv.Get(StorageKey)
	assert.False(t, ok, "invalid update must not write")
}

func TestStore_ModifyCyclesTheme(t *testing.T) {
	store := NewStore(NewMemoryKV())
	for _, want := range []Theme{ThemeLight, ThemeDark, ThemeAuto} {
		s, err := store.Modify(func(s *Settings) { s.Theme = s.Theme.Next() })
		require.NoError(t, err)
		assert.Equal(t, want, s.Theme)
	}
}

func TestStore_Reset(t *testing.T) {
	store := NewStore(NewMemoryKV())
	_, err := store.Update("voiceEnabled", true)
	require.NoError(t, err)
	_, err = store.Reset()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), store.Load())
}

// =============================================================================
// FILE BACKEND TESTS
// =============================================================================

func TestFileKV_KeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	kv, err := NewFileKV(path)
	require.NoError(t, err)

	require.NoError(t, kv.Set("a", []byte(`1`)))
	require.NoError(t, kv.Set("b", []byte(`"two"`)))

	v, ok, err := kv.Get("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `1`, string(v))

	assert.Error(t, kv.Set("c", []byte(`{bad`)))
}

func TestStore_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	kv, err := NewFileKV(path)
	require.NoError(t, err)
	store := NewStore(kv)
	require.NoError(t, store.Save(Defaults()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan Settings, 4)
	require.NoError(t, store.Watch(ctx, func(s Settings) { changes <- s }))

	// Simulate another process editing the file.
	require.NoError(t, os.WriteFile(path, []byte(`{"chatbot-settings":{"theme":"dark"}}`), 0600))

	select {
	case s := <-changes:
		assert.Equal(t, ThemeDark, s.Theme)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification received")
	}
}

func TestStore_WatchRequiresFileBackend(t *testing.T) {
	err := NewStore(NewMemoryKV()).Watch(context.Background(), func(Settings) {})
	assert.Error(t, err)
}
