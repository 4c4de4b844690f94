// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/chatbot/internal/model"
	"github.com/jeranaias/chatbot/internal/util"
)

// FormatList renders saved conversations as a fixed-width table.
func FormatList(list []model.Summary) string {
	if len(list) == 0 {
		return "No saved conversations.\n"
	}

	var sb strings.Builder
	sb.WriteString(pad("#", 4) + pad("Name", 32) + pad("Created", 18) + "Messages\n")
	sb.WriteString(strings.Repeat("-", 62) + "\n")
	for i, s := range list {
		created := s.Created
		if t := s.CreatedTime(); !t.IsZero() {
			created = t.Format("2006-01-02 15:04")
		}
		sb.WriteString(pad(strconv.Itoa(i+1), 4) +
			pad(util.TruncateWidth(s.Name, 30), 32) +
			pad(created, 18) +
			strconv.Itoa(s.MessageCount) + "\n")
	}
	return sb.String()
}

// FormatRecord renders a loaded conversation as plain text for review.
func FormatRecord(rec *model.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d messages)\n\n", rec.Name, len(rec.Messages))
	for _, m := range rec.Messages {
		fmt.Fprintf(&sb, "[%s] %s: %s\n", m.Timestamp, m.Sender.DisplayName(), m.Text)
	}
	return sb.String()
}

// pad left-aligns s in a column of the given display width.
func pad(s string, width int) string {
	w := util.StringWidth(s)
	if w >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-w)
}
