// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/chatbot/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chatbot configuration.
type Config struct {
	Version string `toml:"version" json:"version" yaml:"version"`

	// Backend is the chat server this client talks to.
	Backend BackendConfig `toml:"backend" json:"backend" yaml:"backend"`

	// Settings selects where user preferences are persisted.
	Settings SettingsConfig `toml:"settings" json:"settings" yaml:"settings"`

	Uploads UploadsConfig `toml:"uploads" json:"uploads" yaml:"uploads"`

	Voice VoiceConfig `toml:"voice" json:"voice" yaml:"voice"`

	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	UI UIConfig `toml:"ui" json:"ui" yaml:"ui"`
}

// BackendConfig contains the chat backend connection settings.
type BackendConfig struct {
	// BaseURL is prefixed to every endpoint path (/chat, /upload, ...).
	BaseURL string `toml:"base_url" json:"base_url" yaml:"base_url" env:"CHATBOT_BACKEND_URL"`
	// ClearContextURL receives the clear-context signal.
	// Empty means <base_url>/api/chat.
	ClearContextURL string `toml:"clear_context_url" json:"clear_context_url" yaml:"clear_context_url" env:"CHATBOT_CLEAR_CONTEXT_URL"`
	// TimeoutSecs bounds each request. 0 disables the client-side timeout.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" yaml:"timeout_secs" env:"CHATBOT_BACKEND_TIMEOUT"`
	// RateLimit caps requests per second. 0 disables limiting.
	RateLimit float64 `toml:"rate_limit" json:"rate_limit" yaml:"rate_limit" env:"CHATBOT_RATE_LIMIT"`
}

// SettingsConfig selects the settings key-value backend.
type SettingsConfig struct {
	// Store is "file", "sqlite", or "memory".
	Store string `toml:"store" json:"store" yaml:"store" env:"CHATBOT_SETTINGS_STORE"`
	// Path is the file or database location. Empty uses the config directory.
	Path string `toml:"path" json:"path" yaml:"path" env:"CHATBOT_SETTINGS_PATH"`
}

// UploadsConfig controls the file staging queue.
type UploadsConfig struct {
	// ClearDelayMs is how long finished uploads stay listed before the queue
	// is cleared. 0 uses the default of 3000; a negative value clears at once.
	ClearDelayMs int `toml:"clear_delay_ms" json:"clear_delay_ms" yaml:"clear_delay_ms" env:"CHATBOT_UPLOAD_CLEAR_DELAY_MS"`
}

// VoiceConfig names the external speech commands.
type VoiceConfig struct {
	// TTSCommand speaks text given on stdin. Empty means autodetect.
	TTSCommand string `toml:"tts_command" json:"tts_command" yaml:"tts_command" env:"CHATBOT_TTS_COMMAND"`
	// STTCommand records speech and prints a transcript on stdout.
	// Empty disables voice input.
	STTCommand string `toml:"stt_command" json:"stt_command" yaml:"stt_command" env:"CHATBOT_STT_COMMAND"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	// Level is a zerolog level name: trace, debug, info, warn, error, disabled.
	Level string `toml:"level" json:"level" yaml:"level" env:"CHATBOT_LOG_LEVEL"`
	// File receives log output. Empty writes to stderr.
	File string `toml:"file" json:"file" yaml:"file" env:"CHATBOT_LOG_FILE"`
	// JSON writes structured lines instead of the console format.
	JSON bool `toml:"json" json:"json" yaml:"json" env:"CHATBOT_LOG_JSON"`
}

// UIConfig contains terminal presentation settings.
type UIConfig struct {
	// Markdown renders bot replies through glamour when stdout is a TTY.
	Markdown bool `toml:"markdown" json:"markdown" yaml:"markdown" env:"CHATBOT_MARKDOWN"`
	// Color is "auto", "always", or "never".
	Color string `toml:"color" json:"color" yaml:"color" env:"CHATBOT_COLOR"`
	// WelcomeMessage is the first bot message of every session.
	WelcomeMessage string `toml:"welcome_message" json:"welcome_message" yaml:"welcome_message"`
	// Spinner shows an animated busy indicator while waiting for replies.
	Spinner bool `toml:"spinner" json:"spinner" yaml:"spinner"`
}

// DefaultWelcomeMessage greets the user at the start of a session.
const DefaultWelcomeMessage = "Hello! I'm your AI assistant. How can I help you today?"

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Version: "1",
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000",
		},
		Settings: SettingsConfig{
			Store: "file",
		},
		Uploads: UploadsConfig{
			ClearDelayMs: 3000,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		UI: UIConfig{
			Markdown:       true,
			Color:          "auto",
			WelcomeMessage: DefaultWelcomeMessage,
			Spinner:        true,
		},
	}
}

// ClearContextEndpoint returns the URL that receives the clear-context signal.
func (c *Config) ClearContextEndpoint() string {
	if c.Backend.ClearContextURL != "" {
		return c.Backend.ClearContextURL
	}
	return strings.TrimRight(c.Backend.BaseURL, "/") + "/api/chat"
}

// Timeout returns the per-request timeout, or 0 for none.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSecs) * time.Second
}

// ClearDelay returns how long finished uploads remain listed.
func (c *Config) ClearDelay() time.Duration {
	if c.Uploads.ClearDelayMs < 0 {
		return 0
	}
	return time.Duration(c.Uploads.ClearDelayMs) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chatbot configuration directory. CHATBOT_HOME
// overrides the default of ~/.chatbot.
func ConfigDir() (string, error) {
	if dir := os.Getenv("CHATBOT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatbot"), nil
}

// ConfigPath returns the path of the config file with the given extension.
func ConfigPath(ext string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config."+ext), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// SettingsPath returns the settings store location for the configured
// backend kind.
func (c *Config) SettingsPath() (string, error) {
	if c.Settings.Path != "" {
		return c.Settings.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if c.Settings.Store == "sqlite" {
		return filepath.Join(dir, "settings.db"), nil
	}
	return filepath.Join(dir, "settings.json"), nil
}

// HistoryPath returns the REPL line history file.
func HistoryPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// searchOrder lists config file extensions in precedence order.
var searchOrder = []string{"toml", "json", "yaml"}

// Load loads configuration from the first config file found in the config
// directory, falling back to defaults. A .env file in the working directory
// is read before environment overrides are applied.
//
// When a file exists but cannot be parsed, defaults are returned together
// with the parse error so callers can warn and continue.
func Load() (*Config, error) {
	loadDotEnv(".env")

	var loadErr error
	for _, ext := range searchOrder {
		path, err := ConfigPath(ext)
		if err != nil {
			break
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		if err == nil {
			return cfg, nil
		}
		loadErr = err
		break
	}

	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads a specific file, choosing the decoder by extension
// (.json, .yaml/.yml, anything else TOML), then applies environment
// overrides, defaults, and validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = decodeJSON(cfg, path)
	case ".yaml", ".yml":
		err = decodeYAML(cfg, path)
	default:
		err = decodeTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) finish() error {
	if err := c.ApplyEnvOverrides(); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func decodeTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

func decodeJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

func decodeYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode YAML file: %w", err)
	}
	return nil
}

// loadDotEnv reads KEY=VALUE pairs into the process environment without
// overriding variables that are already set.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// ApplyEnvOverrides copies CHATBOT_* environment variables onto the config.
func (c *Config) ApplyEnvOverrides() error {
	return env.Parse(c)
}

// SetDefaults fills zero values that have no meaningful zero meaning.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = d.Backend.BaseURL
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
	if c.Settings.Store == "" {
		c.Settings.Store = d.Settings.Store
	}
	if c.Uploads.ClearDelayMs == 0 {
		c.Uploads.ClearDelayMs = d.Uploads.ClearDelayMs
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.UI.Color == "" {
		c.UI.Color = d.UI.Color
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath("toml")
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the configuration using the format implied by the
// path's extension. Files are written atomically with 0600 permissions.
func SaveToPath(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = encodeTOML(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func encodeTOML(cfg *Config) ([]byte, error) {
	var b strings.Builder
	b.WriteString("# chatbot configuration file\n")
	b.WriteString("# Generated by chatbot - edit with care\n\n")
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validStores    = map[string]bool{"file": true, "sqlite": true, "memory": true}
	validLogLevels = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true, "disabled": true}
	validColors    = map[string]bool{"auto": true, "always": true, "never": true}
)

// Validate validates the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if err := validateHTTPURL(c.Backend.BaseURL); err != nil {
		errs = append(errs, ValidationError{Field: "backend.base_url", Message: err.Error()})
	}
	if c.Backend.ClearContextURL != "" {
		if err := validateHTTPURL(c.Backend.ClearContextURL); err != nil {
			errs = append(errs, ValidationError{Field: "backend.clear_context_url", Message: err.Error()})
		}
	}
	if c.Backend.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "backend.timeout_secs",
			Message: fmt.Sprintf("must be >= 0, got %d", c.Backend.TimeoutSecs),
		})
	}
	if c.Backend.RateLimit < 0 {
		errs = append(errs, ValidationError{
			Field:   "backend.rate_limit",
			Message: fmt.Sprintf("must be >= 0, got %g", c.Backend.RateLimit),
		})
	}

	if !validStores[strings.ToLower(c.Settings.Store)] {
		errs = append(errs, ValidationError{
			Field:   "settings.store",
			Message: fmt.Sprintf("invalid store '%s', must be one of: file, sqlite, memory", c.Settings.Store),
		})
	}

	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s'", c.Logging.Level),
		})
	}

	if !validColors[strings.ToLower(c.UI.Color)] {
		errs = append(errs, ValidationError{
			Field:   "ui.color",
			Message: fmt.Sprintf("invalid color mode '%s', must be one of: auto, always, never", c.UI.Color),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https, got '%s'", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host: '%s'", raw)
	}
	return nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g. "backend.base_url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("'%s' is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go
// field name for a case-insensitive match.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strings.ToLower(strVal))
			if err != nil {
				return fmt.Errorf("invalid boolean value: %q", strVal)
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns every configuration key in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"backend.base_url",
		"backend.clear_context_url",
		"backend.timeout_secs",
		"backend.rate_limit",
		"settings.store",
		"settings.path",
		"uploads.clear_delay_ms",
		"voice.tts_command",
		"voice.stt_command",
		"logging.level",
		"logging.file",
		"logging.json",
		"ui.markdown",
		"ui.color",
		"ui.welcome_message",
		"ui.spinner",
	}
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config as indented JSON for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
