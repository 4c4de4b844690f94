// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// Record is a saved conversation as the backend returns it. The client
// treats it as opaque apart from the fields below.
type Record struct {
	Name     string     `json:"name"`
	Created  string     `json:"created"`
	Messages []*Message `json:"messages"`
	Filename string     `json:"filename,omitempty"`
}

// Summary is one entry of the backend's conversation listing.
type Summary struct {
	Name         string `json:"name"`
	Filename     string `json:"filename"`
	Created      string `json:"created"`
	MessageCount int    `json:"message_count"`
}

// CreatedTime parses Created, which the backend writes in ISO 8601. The
// zero time is returned when the value cannot be parsed.
func (s Summary) CreatedTime() time.Time {
	return parseCreated(s.Created)
}

// CreatedTime parses Created like Summary.CreatedTime.
func (r *Record) CreatedTime() time.Time {
	return parseCreated(r.Created)
}

var createdLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseCreated(v string) time.Time {
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DefaultConversationName is the name offered when saving without one,
// e.g. "Conversation_2025-03-01".
func DefaultConversationName(now time.Time) string {
	return "Conversation_" + now.Format("2006-01-02")
}
