// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// clipboardWriter returns the copy function handed to the chat session.
// The system clipboard is tried first. Without one (ssh, headless) the text
// is sent to the terminal as an OSC 52 sequence when tty is a terminal.
func clipboardWriter(tty io.Writer, isTerminal bool) func(string) error {
	return func(text string) error {
		err := clipboard.WriteAll(text)
		if err == nil {
			return nil
		}
		if clipboard.Unsupported && isTerminal {
			_, err = osc52.New(text).WriteTo(tty)
		}
		return err
	}
}
