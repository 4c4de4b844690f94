// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// HTMLExporter writes a standalone page with embedded CSS. Message bodies
// are rendered from markdown; raw HTML in them is dropped.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export renders the transcript as an HTML document.
func (e *HTMLExporter) Export(t *Transcript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}

	title := t.Title
	if title == "" {
		title = "Chat Export - " + formatTimestamp(t.Exported)
	}
	theme := e.options.Theme
	if theme != "dark" {
		theme = "light"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(title)))
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", theme))
	sb.WriteString(fmt.Sprintf("<h1>%s</h1>\n<main>\n", html.EscapeString(title)))
	for _, msg := range t.Messages {
		sb.WriteString(fmt.Sprintf("<section class=\"message %s-message\">\n", html.EscapeString(string(msg.Sender))))
		sb.WriteString(fmt.Sprintf("<header><strong>%s</strong> <time>%s</time></header>\n",
			html.EscapeString(senderLabel(msg.Sender)), html.EscapeString(msg.Timestamp)))
		sb.Write(renderMarkdown(msg.Text))
		sb.WriteString("</section>\n")
	}
	sb.WriteString("</main>\n</body>\n</html>\n")
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

func renderMarkdown(text string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.SkipHTML})
	return markdown.ToHTML([]byte(text), p, r)
}

const css = `    <style>
        body { font-family: system-ui, sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; }
        .light-theme { background: #ffffff; color: #1f2937; }
        .dark-theme { background: #1e1e2e; color: #cdd6f4; }
        .message { border-radius: 8px; padding: 0.75rem 1rem; margin: 1rem 0; }
        .user-message { background: rgba(8, 145, 178, 0.12); }
        .bot-message { background: rgba(124, 58, 237, 0.10); }
        header time { opacity: 0.6; font-size: 0.85em; }
        pre { overflow-x: auto; padding: 0.75rem; background: rgba(0, 0, 0, 0.06); border-radius: 6px; }
    </style>
`
