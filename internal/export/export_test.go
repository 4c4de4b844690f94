// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatbot/internal/model"
)

func sampleTranscript() *Transcript {
	return &Transcript{
		Exported: time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC),
		Messages: []*model.Message{
			{Sender: model.SenderUser, Text: "Hi **there**", Timestamp: "14:01"},
			{Sender: model.SenderBot, Text: "Hello!\n```go\nx := 1\n```", Timestamp: "14:02"},
		},
	}
}

func TestMarkdownExporter_Layout(t *testing.T) {
	out, err := NewMarkdownExporter().Export(sampleTranscript())
	require.NoError(t, err)

	want := "# Chat Export - 3/9/2025, 2:05:07 PM\n\n" +
		"## User (14:01)\n\nHi **there**\n\n---\n\n" +
		"## Assistant (14:02)\n\nHello!\n```go\nx := 1\n```\n\n---\n\n"
	assert.Equal(t, want, string(out))
}

func TestJSONExporter_RecordShape(t *testing.T) {
	tr := sampleTranscript()
	tr.Title = "demo"
	out, err := NewJSONExporter().Export(tr)
	require.NoError(t, err)

	var doc struct {
		Name     string `json:"name"`
		Messages []struct {
			Sender string `json:"sender"`
			Text   string `json:"text"`
			Time   string `json:"time"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "demo", doc.Name)
	require.Len(t, doc.Messages, 2)
	assert.Equal(t, "bot", doc.Messages[1].Sender)
	assert.Equal(t, "14:02", doc.Messages[1].Time)
}

func TestHTMLExporter_RendersMarkdownAndEscapes(t *testing.T) {
	tr := sampleTranscript()
	tr.Messages = append(tr.Messages, &model.Message{Sender: model.SenderUser, Text: "<script>x</script>", Timestamp: "14:03"})
	out, err := NewHTMLExporter(&Options{Theme: "dark"}).Export(tr)
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, `<body class="dark-theme">`)
	assert.Contains(t, s, "<strong>there</strong>")
	assert.Contains(t, s, `class="language-go"`)
	assert.NotContains(t, s, "<script>x</script>")
}

func TestNew_Formats(t *testing.T) {
	for format, ext := range map[string]string{"md": ".md", "markdown": ".md", "JSON": ".json", ".html": ".html"} {
		e, err := New(format, nil)
		require.NoError(t, err, format)
		assert.Equal(t, ext, e.FileExtension())
	}
	_, err := New("pdf", nil)
	assert.Error(t, err)
}

func TestToFile_NamesByDate(t *testing.T) {
	dir := t.TempDir()
	path, err := ToFile(sampleTranscript(), NewMarkdownExporter(), &Options{OutputDir: dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chat-export-2025-03-09.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Chat Export - "))
}

func TestExport_Empty(t *testing.T) {
	_, err := NewMarkdownExporter().Export(&Transcript{})
	assert.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestSenderLabel_Unknown(t *testing.T) {
	assert.Equal(t, "System", senderLabel(model.Sender("system")))
}
