// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"regexp"
	"strings"
)

// DefaultCodeLanguage labels fenced blocks that name no language.
const DefaultCodeLanguage = "plaintext"

var (
	boldPattern       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern     = regexp.MustCompile(`\*(.*?)\*`)
	fencedCodePattern = regexp.MustCompile("```(\\w+)?\\n?([\\s\\S]*?)```")
	inlineCodePattern = regexp.MustCompile("`(.*?)`")
)

// HTML renders text into HTML. The rules are applied in this order:
//
//  1. **x**       -> <strong>x</strong>
//  2. *x*         -> <em>x</em>
//  3. ```lang\nx``` -> <pre><code class="language-lang">x</code></pre>
//  4. `x`         -> <code>x</code>
//  5. newline     -> <br>
//
// Code inside a fenced block is trimmed of surrounding whitespace.
func HTML(text string) string {
	out := boldPattern.ReplaceAllString(text, "<strong>$1</strong>")
	out = italicPattern.ReplaceAllString(out, "<em>$1</em>")
	out = fencedCodePattern.ReplaceAllStringFunc(out, renderFencedBlock)
	out = inlineCodePattern.ReplaceAllString(out, "<code>$1</code>")
	return strings.ReplaceAll(out, "\n", "<br>")
}

func renderFencedBlock(block string) string {
	m := fencedCodePattern.FindStringSubmatch(block)
	lang := m[1]
	if lang == "" {
		lang = DefaultCodeLanguage
	}
	return `<pre><code class="language-` + lang + `">` + strings.TrimSpace(m[2]) + `</code></pre>`
}

// CodeBlock is a fenced block found in raw message text.
type CodeBlock struct {
	Language string
	Code     string
	// Start and End are byte offsets of the whole fence in the source.
	Start, End int
}

// CodeBlocks returns every fenced code block in text, in order.
func CodeBlocks(text string) []CodeBlock {
	var blocks []CodeBlock
	for _, loc := range fencedCodePattern.FindAllStringSubmatchIndex(text, -1) {
		b := CodeBlock{Start: loc[0], End: loc[1], Language: DefaultCodeLanguage}
		if loc[2] >= 0 {
			b.Language = text[loc[2]:loc[3]]
		}
		b.Code = strings.TrimSpace(text[loc[4]:loc[5]])
		blocks = append(blocks, b)
	}
	return blocks
}
