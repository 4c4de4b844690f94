// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/chatbot/internal/format"
	"github.com/jeranaias/chatbot/internal/model"
	"github.com/jeranaias/chatbot/internal/staging"
	"github.com/jeranaias/chatbot/internal/ui/styles"
)

// RenderMessage renders one transcript entry: a header with the sender,
// time and position, then the body. index is 1-based and is what the REPL
// commands use to address messages.
func RenderMessage(m *model.Message, index int, r *format.Renderer, theme *styles.Theme) string {
	name := m.Sender.DisplayName()
	stamp := m.Timestamp
	ref := fmt.Sprintf("#%d", index)
	if theme != nil {
		if m.IsUser() {
			name = theme.UserName.Render(name)
		} else {
			name = theme.BotName.Render(name)
		}
		stamp = theme.Timestamp.Render(stamp)
		ref = theme.Muted.Render(ref)
	}

	body := m.Text
	if r != nil {
		body = r.Render(body)
	}
	return fmt.Sprintf("%s %s %s\n%s", name, stamp, ref, strings.TrimRight(body, "\n"))
}

// RenderFileChips renders staged files as "[icon name size status]" chips
// on one line.
func RenderFileChips(files []staging.File, theme *styles.Theme) string {
	if len(files) == 0 {
		return ""
	}
	chips := make([]string, 0, len(files))
	for _, f := range files {
		status := ""
		switch f.Status {
		case staging.StatusSuccess:
			status = " " + styles.StatusIndicators.Success
		case staging.StatusError:
			status = " " + styles.StatusIndicators.Error
		}
		chip := fmt.Sprintf("%s %s %s%s", f.Icon().Glyph(), f.DisplayName(), f.SizeLabel(), status)
		if theme != nil {
			chip = theme.FileChip.Render(chip)
		} else {
			chip = "[" + chip + "]"
		}
		chips = append(chips, chip)
	}
	return strings.Join(chips, " ")
}
