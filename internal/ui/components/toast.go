// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jeranaias/chatbot/internal/ui/styles"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind is the severity of a toast.
type ToastKind int

const (
	ToastKindStatus ToastKind = iota
	ToastKindError
	ToastKindWarning
	ToastKindSuccess
)

func (k ToastKind) String() string {
	switch k {
	case ToastKindError:
		return "error"
	case ToastKindWarning:
		return "warning"
	case ToastKindSuccess:
		return "success"
	default:
		return "info"
	}
}

// Display durations by kind. Errors stay longest.
const (
	DefaultToastDuration = 4 * time.Second
	ErrorToastDuration   = 8 * time.Second
	WarningToastDuration = 6 * time.Second
)

// Toast is a short-lived notification.
type Toast struct {
	ID        int
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration
}

// NewToast creates a toast with the duration for its kind.
func NewToast(kind ToastKind, message string) Toast {
	d := DefaultToastDuration
	switch kind {
	case ToastKindError:
		d = ErrorToastDuration
	case ToastKindWarning:
		d = WarningToastDuration
	}
	return Toast{Message: message, Kind: kind, CreatedAt: time.Now(), Duration: d}
}

// IsExpired reports whether the toast should be gone at now.
func (t Toast) IsExpired(now time.Time) bool {
	return now.Sub(t.CreatedAt) >= t.Duration
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastManager keeps recent toasts. When it has an output writer each toast
// is also printed as a line the moment it is added, which is how the REPL
// shows them.
type ToastManager struct {
	mu        sync.Mutex
	toasts    []Toast
	nextID    int
	maxToasts int
	out       io.Writer
	theme     *styles.Theme
	now       func() time.Time
}

// NewToastManager creates a manager. out and theme may be nil.
func NewToastManager(out io.Writer, theme *styles.Theme) *ToastManager {
	return &ToastManager{
		nextID:    1,
		maxToasts: 5,
		out:       out,
		theme:     theme,
		now:       time.Now,
	}
}

// SetTheme swaps the styles used for printing, e.g. after a theme change.
func (m *ToastManager) SetTheme(theme *styles.Theme) {
	m.mu.Lock()
	m.theme = theme
	m.mu.Unlock()
}

// AddToast stores a toast, newest first, and prints it.
func (m *ToastManager) AddToast(t Toast) int {
	m.mu.Lock()
	if t.ID == 0 {
		t.ID = m.nextID
		m.nextID++
	}
	m.toasts = append([]Toast{t}, m.toasts...)
	if len(m.toasts) > m.maxToasts {
		m.toasts = m.toasts[:m.maxToasts]
	}
	out, theme := m.out, m.theme
	m.mu.Unlock()

	if out != nil {
		fmt.Fprintln(out, RenderToast(t, theme))
	}
	return t.ID
}

func (m *ToastManager) AddError(message string) int {
	return m.AddToast(NewToast(ToastKindError, message))
}

func (m *ToastManager) AddWarning(message string) int {
	return m.AddToast(NewToast(ToastKindWarning, message))
}

func (m *ToastManager) AddStatus(message string) int {
	return m.AddToast(NewToast(ToastKindStatus, message))
}

func (m *ToastManager) AddSuccess(message string) int {
	return m.AddToast(NewToast(ToastKindSuccess, message))
}

// TickToasts drops expired toasts and returns the rest.
func (m *ToastManager) TickToasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	active := make([]Toast, 0, len(m.toasts))
	for _, t := range m.toasts {
		if !t.IsExpired(now) {
			active = append(active, t)
		}
	}
	m.toasts = active
	return append([]Toast(nil), active...)
}

// GetToasts returns a copy of the current toasts.
func (m *ToastManager) GetToasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Toast(nil), m.toasts...)
}

// Clear removes all toasts.
func (m *ToastManager) Clear() {
	m.mu.Lock()
	m.toasts = nil
	m.mu.Unlock()
}

// RenderToast renders one toast as a single styled line.
func RenderToast(t Toast, theme *styles.Theme) string {
	var icon string
	switch t.Kind {
	case ToastKindError:
		icon = styles.StatusIndicators.Error
	case ToastKindWarning:
		icon = styles.StatusIndicators.Warning
	case ToastKindSuccess:
		icon = styles.StatusIndicators.Success
	default:
		icon = styles.StatusIndicators.Info
	}
	if theme == nil {
		return icon + " " + t.Message
	}
	switch t.Kind {
	case ToastKindError:
		icon = theme.ErrorText.Render(icon)
	case ToastKindWarning:
		icon = theme.Warning.Render(icon)
	case ToastKindSuccess:
		icon = theme.Success.Render(icon)
	default:
		icon = theme.Info.Render(icon)
	}
	return icon + " " + theme.Body.Render(t.Message)
}
