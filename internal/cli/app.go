// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"

	"github.com/jeranaias/chatbot/internal/backend"
	"github.com/jeranaias/chatbot/internal/chat"
	"github.com/jeranaias/chatbot/internal/config"
	"github.com/jeranaias/chatbot/internal/export"
	"github.com/jeranaias/chatbot/internal/format"
	"github.com/jeranaias/chatbot/internal/settings"
	"github.com/jeranaias/chatbot/internal/staging"
	"github.com/jeranaias/chatbot/internal/ui/components"
	"github.com/jeranaias/chatbot/internal/ui/styles"
	"github.com/jeranaias/chatbot/internal/voice"
)

// =============================================================================
// APP
// =============================================================================

// App holds everything a command needs, built once from the configuration.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Backend *backend.Client
	Store   *settings.Store
	Voice   voice.Capability
	Toasts  *components.ToastManager
	Spinner *components.Spinner

	// Notifier receives session toasts. Nil means Toasts.
	Notifier chat.Notifier

	// Out receives transcript output. Interactive is true when Out is a
	// terminal; it enables the animated spinner and the OSC 52 clipboard.
	Out         io.Writer
	Interactive bool
	Profile     termenv.Profile

	mu       sync.Mutex
	theme    *styles.Theme
	renderer *format.Renderer
}

// AppOptions are the inputs of NewApp that do not come from Config.
type AppOptions struct {
	Out         io.Writer
	Interactive bool
	Logger      zerolog.Logger
	// Store overrides the settings store named by the configuration.
	Store *settings.Store
	// Voice overrides speech detection.
	Voice *voice.Capability
}

// NewApp wires the backend client, settings store, voice capability and
// terminal presentation from cfg.
func NewApp(cfg *config.Config, opts AppOptions) (*App, error) {
	a := &App{
		Config:      cfg,
		Logger:      opts.Logger,
		Out:         opts.Out,
		Interactive: opts.Interactive,
		Profile:     termenv.Ascii,
	}
	if a.Interactive {
		a.Profile = ColorProfile(cfg.UI.Color)
	} else if cfg.UI.Color == "always" {
		a.Profile = ColorProfile("always")
	}
	lipgloss.SetColorProfile(a.Profile)

	a.Backend = newBackendClient(cfg, a.Logger)

	a.Store = opts.Store
	if a.Store == nil {
		store, err := openStore(cfg, a.Logger)
		if err != nil {
			return nil, err
		}
		a.Store = store
	}

	if opts.Voice != nil {
		a.Voice = *opts.Voice
	} else {
		a.Voice = voice.Detect(cfg.Voice, a.Logger)
	}

	a.Toasts = components.NewToastManager(a.Out, nil)
	a.applySettings(a.Store.Load())
	a.Spinner = components.NewSpinner(a.Out, a.Theme(), a.Interactive && cfg.UI.Spinner)
	return a, nil
}

func newBackendClient(cfg *config.Config, logger zerolog.Logger) *backend.Client {
	return backend.New(cfg.Backend.BaseURL).
		WithTimeout(cfg.Timeout()).
		WithRateLimit(cfg.Backend.RateLimit).
		WithClearContextURL(cfg.ClearContextEndpoint()).
		WithLogger(logger)
}

// openStore opens the settings KV backend selected in the configuration.
func openStore(cfg *config.Config, logger zerolog.Logger) (*settings.Store, error) {
	if cfg.Settings.Store == "memory" {
		return settings.NewStore(settings.NewMemoryKV()).WithLogger(logger), nil
	}
	path, err := cfg.SettingsPath()
	if err != nil {
		return nil, err
	}

	var kv settings.KV
	switch cfg.Settings.Store {
	case "sqlite":
		kv, err = settings.OpenSQLiteKV(path)
	default:
		kv, err = settings.NewFileKV(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}
	return settings.NewStore(kv).WithLogger(logger), nil
}

// Theme returns the styles for the current settings, or nil when output
// has no color.
func (a *App) Theme() *styles.Theme {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.theme
}

// Renderer returns the message body renderer for the current settings.
func (a *App) Renderer() *format.Renderer {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.renderer
}

// applySettings rebuilds the theme and renderer after a preference change.
func (a *App) applySettings(st settings.Settings) {
	color := a.Profile != termenv.Ascii
	var theme *styles.Theme
	glamourStyle := string(st.Theme)
	if color {
		theme = styles.NewTheme(string(st.Theme), a.Profile)
		glamourStyle = theme.GlamourStyle()
	}
	renderer := format.NewRenderer(format.RendererOptions{
		Markdown: a.Config.UI.Markdown,
		Color:    color,
		Theme:    glamourStyle,
		Width:    TerminalWidth(),
	})

	a.mu.Lock()
	a.theme = theme
	a.renderer = renderer
	a.mu.Unlock()
	a.Toasts.SetTheme(theme)
}

// WatchSettings reloads the session's preferences when another process
// rewrites the settings file. Other stores are not watched.
func (a *App) WatchSettings(ctx context.Context, s *chat.Session) {
	if a.Config.Settings.Store != "" && a.Config.Settings.Store != "file" {
		return
	}
	err := a.Store.Watch(ctx, func(settings.Settings) {
		s.ReloadSettings()
	})
	if err != nil {
		a.Logger.Debug().Err(err).Msg("settings watch unavailable")
	}
}

// NewSession builds a chat session whose view updates go to shell.
func (a *App) NewSession(shell chat.Shell) (*chat.Session, error) {
	queue := staging.NewQueue().
		WithClearDelay(a.Config.ClearDelay()).
		WithLogger(a.Logger)

	exportOpts := export.DefaultOptions()
	if th := a.Theme(); th != nil && th.IsDark {
		exportOpts.Theme = "dark"
	}

	return chat.New(chat.Options{
		Backend:        a.Backend,
		Settings:       a.Store,
		Queue:          queue,
		Voice:          a.Voice,
		Notifier:       a.notifier(),
		Indicator:      a.Spinner,
		Shell:          shell,
		Clipboard:      clipboardWriter(a.Out, a.Interactive),
		WelcomeMessage: a.Config.UI.WelcomeMessage,
		Export:         exportOpts,
		Logger:         a.Logger,
	})
}

func (a *App) notifier() chat.Notifier {
	if a.Notifier != nil {
		return a.Notifier
	}
	return a.Toasts
}

// errorCounter counts error toasts on their way to another notifier.
type errorCounter struct {
	chat.Notifier
	mu     sync.Mutex
	errors int
}

func (c *errorCounter) AddError(message string) int {
	c.mu.Lock()
	c.errors++
	c.mu.Unlock()
	return c.Notifier.AddError(message)
}

func (c *errorCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors
}

// Close releases the settings store.
func (a *App) Close() error {
	return a.Store.Close()
}
