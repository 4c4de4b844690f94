// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles holds the terminal color palette and the lipgloss styles
// built from it.
//
// Colors are lipgloss.AdaptiveColor values so one palette serves light and
// dark terminals. The user's theme setting decides which half is used:
// "light" and "dark" force it, "auto" asks the terminal.
package styles
