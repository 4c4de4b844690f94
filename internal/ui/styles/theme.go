// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styles used by the terminal front end.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Brand      lipgloss.Style
	UserName   lipgloss.Style
	BotName    lipgloss.Style
	Timestamp  lipgloss.Style
	Body       lipgloss.Style
	Muted      lipgloss.Style
	Prompt     lipgloss.Style
	Spinner    lipgloss.Style
	FileChip   lipgloss.Style
	ErrorText  lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	Info       lipgloss.Style
	TableHead  lipgloss.Style
	TableRow   lipgloss.Style
	Separator  lipgloss.Style
	Highlight  lipgloss.Style
	StatusLine lipgloss.Style
}

// NewTheme builds styles for a theme mode ("light", "dark" or "auto") and
// color profile. In auto mode the terminal background is queried.
func NewTheme(mode string, profile termenv.Profile) *Theme {
	isDark := true
	switch mode {
	case "light":
		isDark = false
	case "dark":
		isDark = true
	default:
		isDark = termenv.HasDarkBackground()
	}

	renderer := lipgloss.NewRenderer(io.Discard)
	renderer.SetColorProfile(profile)
	renderer.SetHasDarkBackground(isDark)

	t := &Theme{IsDark: isDark, ColorProfile: profile}
	t.initStyles(renderer)
	return t
}

// GlamourStyle is the glamour standard style matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

func (t *Theme) initStyles(r *lipgloss.Renderer) {
	t.Brand = r.NewStyle().Bold(true).Foreground(Cyan)
	t.UserName = r.NewStyle().Bold(true).Foreground(Cyan)
	t.BotName = r.NewStyle().Bold(true).Foreground(Purple)
	t.Timestamp = r.NewStyle().Foreground(TextMuted)
	t.Body = r.NewStyle().Foreground(TextPrimary)
	t.Muted = r.NewStyle().Foreground(TextMuted).Italic(true)
	t.Prompt = r.NewStyle().Foreground(Cyan).Bold(true)
	t.Spinner = r.NewStyle().Foreground(Purple)
	t.FileChip = r.NewStyle().
		Foreground(TextSecondary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.ErrorText = r.NewStyle().Foreground(Rose).Bold(true)
	t.Success = r.NewStyle().Foreground(Emerald).Bold(true)
	t.Warning = r.NewStyle().Foreground(Amber).Bold(true)
	t.Info = r.NewStyle().Foreground(Cyan)
	t.TableHead = r.NewStyle().Bold(true).Foreground(TextPrimary).Underline(true)
	t.TableRow = r.NewStyle().Foreground(TextSecondary)
	t.Separator = r.NewStyle().Foreground(Overlay)
	t.Highlight = r.NewStyle().Foreground(Cyan).Underline(true)
	t.StatusLine = r.NewStyle().Foreground(TextSecondary).Background(SurfaceDim).Padding(0, 1)
}
