// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Theme is the color scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

// Next returns the theme that follows t in the light, dark, auto cycle.
func (t Theme) Next() Theme {
	switch t {
	case ThemeLight:
		return ThemeDark
	case ThemeDark:
		return ThemeAuto
	default:
		return ThemeLight
	}
}

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeAuto
}

// Font size bounds, in pixels.
const (
	MinFontSize = 12
	MaxFontSize = 20
)

// Settings are the user preferences. JSON names match the stored record.
type Settings struct {
	Theme        Theme   `json:"theme"`
	FontSize     int     `json:"fontSize"`
	Temperature  float64 `json:"temperature"`
	VoiceEnabled bool    `json:"voiceEnabled"`
}

// Defaults returns the settings used when nothing has been stored.
func Defaults() Settings {
	return Settings{
		Theme:        ThemeAuto,
		FontSize:     15,
		Temperature:  0.7,
		VoiceEnabled: false,
	}
}

// Validate checks every field against its allowed range.
func (s Settings) Validate() error {
	if !s.Theme.Valid() {
		return fmt.Errorf("%w: theme must be light, dark, or auto, got %q", ErrInvalidValue, s.Theme)
	}
	if s.FontSize < MinFontSize || s.FontSize > MaxFontSize {
		return fmt.Errorf("%w: fontSize must be between %d and %d, got %d", ErrInvalidValue, MinFontSize, MaxFontSize, s.FontSize)
	}
	if math.IsNaN(s.Temperature) || s.Temperature < 0 || s.Temperature > 1 {
		return fmt.Errorf("%w: temperature must be between 0 and 1, got %g", ErrInvalidValue, s.Temperature)
	}
	return nil
}

// sanitize replaces out-of-range values read from storage with defaults so a
// hand-edited record cannot break the session.
func (s Settings) sanitize() Settings {
	d := Defaults()
	if !s.Theme.Valid() {
		s.Theme = d.Theme
	}
	if s.FontSize < MinFontSize || s.FontSize > MaxFontSize {
		s.FontSize = d.FontSize
	}
	if math.IsNaN(s.Temperature) || s.Temperature < 0 || s.Temperature > 1 {
		s.Temperature = d.Temperature
	}
	return s
}

// Field names accepted by Set, in canonical form.
const (
	FieldTheme        = "theme"
	FieldFontSize     = "fontSize"
	FieldTemperature  = "temperature"
	FieldVoiceEnabled = "voiceEnabled"
)

// Fields lists the canonical field names.
func Fields() []string {
	return []string{FieldTheme, FieldFontSize, FieldTemperature, FieldVoiceEnabled}
}

// canonicalField maps "font_size", "font-size", "FONTSIZE" and friends to
// the canonical name.
func canonicalField(name string) (string, bool) {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(name))
	for _, f := range Fields() {
		if strings.ToLower(f) == key {
			return f, true
		}
	}
	return "", false
}

// Set assigns one field by name. String values are parsed into the field's
// type. The result is validated; s is left unchanged on error.
func (s *Settings) Set(field string, value interface{}) error {
	name, ok := canonicalField(field)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	next := *s
	switch name {
	case FieldTheme:
		v, err := asString(value)
		if err != nil {
			return err
		}
		next.Theme = Theme(strings.ToLower(v))
	case FieldFontSize:
		v, err := asInt(value)
		if err != nil {
			return err
		}
		next.FontSize = v
	case FieldTemperature:
		v, err := asFloat(value)
		if err != nil {
			return err
		}
		next.Temperature = v
	case FieldVoiceEnabled:
		v, err := asBool(value)
		if err != nil {
			return err
		}
		next.VoiceEnabled = v
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}

// Get returns one field by name.
func (s Settings) Get(field string) (interface{}, error) {
	name, ok := canonicalField(field)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	switch name {
	case FieldTheme:
		return s.Theme, nil
	case FieldFontSize:
		return s.FontSize, nil
	case FieldTemperature:
		return s.Temperature, nil
	default:
		return s.VoiceEnabled, nil
	}
}

func asString(v interface{}) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case Theme:
		return string(x), nil
	}
	return "", fmt.Errorf("%w: expected string, got %T", ErrInvalidValue, v)
}

func asInt(v interface{}) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		return int(x), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(x), "px"))
		if err != nil {
			return 0, fmt.Errorf("%w: invalid integer %q", ErrInvalidValue, x)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: expected integer, got %T", ErrInvalidValue, v)
}

func asFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid number %q", ErrInvalidValue, x)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: expected number, got %T", ErrInvalidValue, v)
}

func asBool(v interface{}) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "1", "true", "yes", "on":
			return true, nil
		case "0", "false", "no", "off":
			return false, nil
		}
		return false, fmt.Errorf("%w: invalid boolean %q", ErrInvalidValue, x)
	}
	return false, fmt.Errorf("%w: expected boolean, got %T", ErrInvalidValue, v)
}
