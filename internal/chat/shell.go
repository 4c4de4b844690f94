// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/chatbot/internal/model"
	"github.com/jeranaias/chatbot/internal/settings"
)

// Notifier shows short-lived toasts. *components.ToastManager implements it.
type Notifier interface {
	AddStatus(message string) int
	AddSuccess(message string) int
	AddWarning(message string) int
	AddError(message string) int
}

// Indicator is the "bot is typing" signal.
type Indicator interface {
	Show()
	Hide()
}

// Shell receives view updates. Calls may come from any goroutine.
type Shell interface {
	ClearInput()
	FocusInput()
	SetInput(text string)
	MessageAdded(m *model.Message)
	MessageChanged(m *model.Message)
	MessageRemoved(id string)
	TranscriptReset(msgs []*model.Message)
	SettingsChanged(s settings.Settings)
}

// NopShell ignores every update. Embed it to implement part of Shell.
type NopShell struct{}

func (NopShell) ClearInput() {}
func (NopShell) FocusInput() {}
func (NopShell) SetInput(string) {}
func (NopShell) MessageAdded(*model.Message) {}
func (NopShell) MessageChanged(*model.Message) {}
func (NopShell) MessageRemoved(string) {}
func (NopShell) TranscriptReset([]*model.Message) {}
func (NopShell) SettingsChanged(settings.Settings) {}

type nopNotifier struct{}

func (nopNotifier) AddStatus(string) int  { return 0 }
func (nopNotifier) AddSuccess(string) int { return 0 }
func (nopNotifier) AddWarning(string) int { return 0 }
func (nopNotifier) AddError(string) int   { return 0 }

type nopIndicator struct{}

func (nopIndicator) Show() {}
func (nopIndicator) Hide() {}
