// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"

	"github.com/jeranaias/chatbot/internal/ui/styles"
)

// Spinner is the typing indicator shown while the backend works. On a
// terminal it animates on the current line; otherwise it only tracks state.
type Spinner struct {
	frames  spinner.Spinner
	message string
	out     io.Writer
	theme   *styles.Theme
	animate bool

	mu     sync.Mutex
	active bool
	stop   chan struct{}
	done   chan struct{}
}

// NewSpinner creates a stopped spinner. animate should be true only when out
// is a terminal.
func NewSpinner(out io.Writer, theme *styles.Theme, animate bool) *Spinner {
	return &Spinner{
		frames:  spinner.Line,
		message: "Thinking",
		out:     out,
		theme:   theme,
		animate: animate && out != nil,
	}
}

// SetMessage changes the label next to the frames.
func (s *Spinner) SetMessage(msg string) {
	s.mu.Lock()
	s.message = msg
	s.mu.Unlock()
}

// Show starts the indicator. Calling it while shown does nothing.
func (s *Spinner) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	if !s.animate {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done, s.message)
}

// Hide stops the indicator and erases its line.
func (s *Spinner) Hide() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

// Active reports whether the indicator is shown.
func (s *Spinner) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Frame returns frame i of the animation, wrapping around.
func (s *Spinner) Frame(i int) string {
	return s.frames.Frames[i%len(s.frames.Frames)]
}

func (s *Spinner) run(stop <-chan struct{}, done chan<- struct{}, message string) {
	defer close(done)
	ticker := time.NewTicker(s.frames.FPS)
	defer ticker.Stop()

	for i := 0; ; i++ {
		frame := s.Frame(i)
		if s.theme != nil {
			frame = s.theme.Spinner.Render(frame)
		}
		fmt.Fprintf(s.out, "\r%s %s...", frame, message)
		select {
		case <-stop:
			fmt.Fprint(s.out, "\r\033[K")
			return
		case <-ticker.C:
		}
	}
}
