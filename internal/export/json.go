// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/chatbot/internal/model"
)

// JSONExporter writes the same record shape the backend stores, so an
// export can be inspected with the same tools as a saved conversation.
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

type jsonDocument struct {
	Name     string           `json:"name"`
	Exported string           `json:"exported"`
	Messages []*model.Message `json:"messages"`
}

// Export renders the transcript as indented JSON.
func (e *JSONExporter) Export(t *Transcript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}
	doc := jsonDocument{
		Name:     t.Title,
		Exported: t.Exported.Format(time.RFC3339),
		Messages: t.Messages,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
