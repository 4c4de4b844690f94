// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jeranaias/chatbot/internal/model"
	"github.com/jeranaias/chatbot/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Transcript is what gets exported.
type Transcript struct {
	Title    string
	Exported time.Time
	Messages []*model.Message
}

// Exporter renders a transcript in one format.
type Exporter interface {
	Export(t *Transcript) ([]byte, error)
	FileExtension() string
	MimeType() string
}

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("transcript has no messages")

// Formats lists the names accepted by New.
var Formats = []string{"md", "json", "html"}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is where files are written. Default: current directory.
	OutputDir string
	// Theme for HTML export, "light" or "dark". Default: "light".
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{OutputDir: ".", Theme: "light"}
}

// New returns the exporter for a format name: md (or markdown), json, html.
func New(format string, opts *Options) (Exporter, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", "md", "markdown":
		return NewMarkdownExporter(), nil
	case "json":
		return NewJSONExporter(), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// FileName is the default name for an export made at now.
func FileName(ext string, now time.Time) string {
	return "chat-export-" + now.Format("2006-01-02") + ext
}

// ToFile renders t and writes it under opts.OutputDir. It returns the path
// written.
func ToFile(t *Transcript, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, FileName(exporter.FileExtension(), t.Exported))
	if err := util.AtomicWriteFileWithDir(path, content, 0644, 0755); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// ToWriter is ToFile for an already open destination such as stdout.
func ToWriter(t *Transcript, exporter Exporter, w io.Writer) error {
	content, err := exporter.Export(t)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	_, err = w.Write(content)
	return err
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

var titleCaser = cases.Title(language.English)

// senderLabel is "User" or "Assistant"; unknown senders are title-cased.
func senderLabel(s model.Sender) string {
	if s.Valid() {
		return s.DisplayName()
	}
	return titleCaser.String(string(s))
}

// formatTimestamp is the long date-time form used in export headers.
func formatTimestamp(t time.Time) string {
	return t.Format("1/2/2006, 3:04:05 PM")
}

func validate(t *Transcript) error {
	if t == nil {
		return errors.New("transcript is nil")
	}
	if len(t.Messages) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}
