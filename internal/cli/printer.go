// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"sync"

	"github.com/jeranaias/chatbot/internal/model"
	"github.com/jeranaias/chatbot/internal/settings"
	"github.com/jeranaias/chatbot/internal/ui/components"
)

// printer is the chat.Shell of the command line. It prints transcript
// changes to the App's output and keeps the text the session wants placed
// in the input line, which the REPL offers at its next prompt.
type printer struct {
	app *App

	// echoUser prints the user's own messages. The REPL leaves it off
	// because the terminal already shows what was typed.
	echoUser bool

	mu    sync.Mutex
	ids   []string
	input string
}

func newPrinter(app *App, echoUser bool) *printer {
	return &printer{app: app, echoUser: echoUser}
}

func (p *printer) ClearInput() {
	p.mu.Lock()
	p.input = ""
	p.mu.Unlock()
}

func (p *printer) FocusInput() {}

func (p *printer) SetInput(text string) {
	p.mu.Lock()
	p.input = text
	p.mu.Unlock()
}

// takeInput returns and clears the pending input text.
func (p *printer) takeInput() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	text := p.input
	p.input = ""
	return text
}

func (p *printer) MessageAdded(m *model.Message) {
	p.mu.Lock()
	p.ids = append(p.ids, m.ID)
	index := len(p.ids)
	p.mu.Unlock()

	if m.IsUser() && !p.echoUser {
		return
	}
	p.print(m, index, "")
}

func (p *printer) MessageChanged(m *model.Message) {
	p.print(m, p.indexOf(m.ID), " (edited)")
}

func (p *printer) MessageRemoved(id string) {
	p.mu.Lock()
	index := 0
	for i, have := range p.ids {
		if have == id {
			index = i + 1
			p.ids = append(p.ids[:i], p.ids[i+1:]...)
			break
		}
	}
	p.mu.Unlock()
	if index > 0 {
		fmt.Fprintln(p.app.Out, DimStyle.Render(fmt.Sprintf("Message #%d deleted", index)))
	}
}

func (p *printer) TranscriptReset(msgs []*model.Message) {
	p.track(msgs)
	fmt.Fprintln(p.app.Out, RenderSeparator())
	for i, m := range msgs {
		p.print(m, i+1, "")
	}
}

// track replaces the known positions without printing. Sessions start
// with a welcome message that is never announced as added.
func (p *printer) track(msgs []*model.Message) {
	p.mu.Lock()
	p.ids = p.ids[:0]
	for _, m := range msgs {
		p.ids = append(p.ids, m.ID)
	}
	p.mu.Unlock()
}

func (p *printer) SettingsChanged(st settings.Settings) {
	p.app.applySettings(st)
}

func (p *printer) indexOf(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, have := range p.ids {
		if have == id {
			return i + 1
		}
	}
	return 0
}

func (p *printer) print(m *model.Message, index int, suffix string) {
	out := components.RenderMessage(m, index, p.app.Renderer(), p.app.Theme())
	fmt.Fprintf(p.app.Out, "%s%s\n\n", out, suffix)
}
