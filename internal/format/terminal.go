// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
)

// RendererOptions configure terminal output.
type RendererOptions struct {
	// Markdown enables glamour rendering.
	Markdown bool
	// Color enables ANSI escape sequences. When false, text is returned as is.
	Color bool
	// Theme is "light", "dark", or "auto".
	Theme string
	// Width wraps rendered markdown. 0 means 80.
	Width int
}

// Renderer prints raw message text for a terminal.
type Renderer struct {
	opts     RendererOptions
	markdown *glamour.TermRenderer
}

// NewRenderer builds a renderer. If glamour cannot be initialised the
// renderer silently falls back to plain output with highlighted code.
func NewRenderer(opts RendererOptions) *Renderer {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	r := &Renderer{opts: opts}
	if opts.Markdown && opts.Color {
		styleOpt := glamour.WithAutoStyle()
		switch opts.Theme {
		case "light", "dark":
			styleOpt = glamour.WithStandardStyle(opts.Theme)
		}
		if tr, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(opts.Width)); err == nil {
			r.markdown = tr
		}
	}
	return r
}

// Render returns text ready to print.
func (r *Renderer) Render(text string) string {
	if !r.opts.Color {
		return text
	}
	if r.markdown != nil {
		if out, err := r.markdown.Render(text); err == nil {
			return strings.TrimRight(out, "\n") + "\n"
		}
	}
	return r.highlightBlocks(text)
}

// highlightBlocks replaces each fenced block with its highlighted code and
// leaves the surrounding prose untouched.
func (r *Renderer) highlightBlocks(text string) string {
	blocks := CodeBlocks(text)
	if len(blocks) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, blk := range blocks {
		b.WriteString(text[last:blk.Start])
		b.WriteString(Highlight(blk.Code, blk.Language, r.chromaStyle()))
		last = blk.End
	}
	b.WriteString(text[last:])
	return b.String()
}

func (r *Renderer) chromaStyle() string {
	if r.opts.Theme == "light" {
		return "github"
	}
	return "monokai"
}

// Highlight applies chroma syntax highlighting for a 256-color terminal.
// Unknown languages are guessed from the code; on any failure the code is
// returned unchanged.
func Highlight(code, language, style string) string {
	lexer := lexers.Get(language)
	if lexer == nil || language == DefaultCodeLanguage {
		if guessed := lexers.Analyse(code); guessed != nil {
			lexer = guessed
		}
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	s := chromaStyles.Get(style)
	if s == nil {
		s = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, s, iterator); err != nil {
		return code
	}
	return buf.String()
}
