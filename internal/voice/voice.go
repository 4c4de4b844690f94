// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package voice provides optional speech input and output.
//
// Speech is delegated to external programs: a text-to-speech command that
// reads text on stdin, and a speech-to-text command that records from the
// microphone and prints a transcript on stdout. Whether voice is usable is
// decided once, when the session starts, and expressed as a Capability.
package voice

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/chatbot/internal/config"
)

// =============================================================================
// CAPABILITY
// =============================================================================

// Handle performs speech I/O.
type Handle interface {
	// Listen records one utterance and returns its transcript.
	Listen(ctx context.Context) (string, error)
	// Speak starts reading text aloud, interrupting any utterance in
	// progress. It returns once playback has started.
	Speak(ctx context.Context, text string) error
	// Stop interrupts playback.
	Stop()
}

// Capability is either Available with a Handle or Unavailable.
type Capability struct {
	handle Handle
}

// Available wraps a working handle.
func Available(h Handle) Capability {
	return Capability{handle: h}
}

// Unavailable is the capability of a system without speech support.
func Unavailable() Capability {
	return Capability{}
}

// Handle returns the handle and whether voice is available.
func (c Capability) Handle() (Handle, bool) {
	return c.handle, c.handle != nil
}

// IsAvailable reports whether voice can be used.
func (c Capability) IsAvailable() bool {
	return c.handle != nil
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrNoRecognizer is returned by Listen when no speech-to-text command is set.
var ErrNoRecognizer = errors.New("not-allowed")

// ErrNoSpeech is returned when the recognizer produced an empty transcript.
var ErrNoSpeech = errors.New("no-speech")

// SpeechError wraps a failure of the speech commands. Its message is the
// bare cause so it reads well after "Voice recognition error: ".
type SpeechError struct {
	Op  string
	Err error
}

func (e *SpeechError) Error() string {
	return e.Err.Error()
}

func (e *SpeechError) Unwrap() error { return e.Err }

// =============================================================================
// COMMAND HANDLE
// =============================================================================

// ttsCandidates are probed in order when no command is configured.
var ttsCandidates = [][]string{
	{"say"},
	{"espeak-ng", "--stdin"},
	{"espeak", "--stdin"},
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// CommandHandle runs external speech programs.
type CommandHandle struct {
	tts    []string
	stt    []string
	logger zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Detect builds the voice capability from configuration. A configured
// command is used as is; otherwise the first text-to-speech program found
// on PATH is used. With neither TTS nor STT, voice is Unavailable.
func Detect(cfg config.VoiceConfig, logger zerolog.Logger) Capability {
	tts := strings.Fields(cfg.TTSCommand)
	if len(tts) == 0 {
		for _, cand := range ttsCandidates {
			if _, err := lookPath(cand[0]); err == nil {
				tts = cand
				break
			}
		}
	}
	stt := strings.Fields(cfg.STTCommand)
	if len(tts) == 0 && len(stt) == 0 {
		logger.Debug().Msg("no speech commands found, voice disabled")
		return Unavailable()
	}
	logger.Debug().Strs("tts", tts).Strs("stt", stt).Msg("voice available")
	return Available(NewCommandHandle(tts, stt, logger))
}

// NewCommandHandle creates a handle from argv slices. Either may be empty.
func NewCommandHandle(tts, stt []string, logger zerolog.Logger) *CommandHandle {
	return &CommandHandle{tts: tts, stt: stt, logger: logger}
}

// Listen runs the speech-to-text command and returns its trimmed output.
func (h *CommandHandle) Listen(ctx context.Context) (string, error) {
	if len(h.stt) == 0 {
		return "", &SpeechError{Op: "listen", Err: ErrNoRecognizer}
	}
	out, err := exec.CommandContext(ctx, h.stt[0], h.stt[1:]...).Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", &SpeechError{Op: "listen", Err: errors.New("aborted")}
		}
		return "", &SpeechError{Op: "listen", Err: fmt.Errorf("%s: %w", h.stt[0], err)}
	}
	transcript := strings.TrimSpace(string(out))
	if transcript == "" {
		return "", &SpeechError{Op: "listen", Err: ErrNoSpeech}
	}
	return transcript, nil
}

// Speak starts the text-to-speech command with text on stdin. A previous
// utterance still playing is stopped first.
func (h *CommandHandle) Speak(ctx context.Context, text string) error {
	if len(h.tts) == 0 {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}

	speakCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(speakCtx, h.tts[0], h.tts[1:]...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Start(); err != nil {
		cancel()
		return &SpeechError{Op: "speak", Err: fmt.Errorf("%s: %w", h.tts[0], err)}
	}
	h.cancel = cancel

	go func() {
		if err := cmd.Wait(); err != nil && speakCtx.Err() == nil {
			h.logger.Debug().Err(err).Msg("speech playback failed")
		}
		cancel()
	}()
	return nil
}

// Stop interrupts the current utterance, if any.
func (h *CommandHandle) Stop() {
	h.mu.Lock()
	cancel := h.cancel
	h.cancel = nil
	h.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
