// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package staging

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"github.com/jeranaias/chatbot/internal/util"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the upload state of a staged file.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// =============================================================================
// FILE
// =============================================================================

// File is one attachment waiting to be uploaded.
type File struct {
	Name     string
	MimeType string
	Size     int64
	Content  []byte
	Status   Status
	Err      string
}

// NewFile builds a pending file from in-memory content.
func NewFile(name, mimeType string, content []byte) *File {
	return &File{
		Name:     name,
		MimeType: mimeType,
		Size:     int64(len(content)),
		Content:  content,
		Status:   StatusPending,
	}
}

// FileFromPath reads a file from disk. The MIME type comes from the
// extension, or from the leading bytes when the extension is unknown.
func FileFromPath(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	name := filepath.Base(path)
	return NewFile(name, DetectMIME(name, content), content), nil
}

// DetectMIME guesses the MIME type of a file. Parameters such as charset
// are stripped. An unknown type yields "".
func DetectMIME(name string, content []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			return mediaType
		}
		return t
	}
	if kind, err := filetype.Match(content); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	return ""
}

// DataURI encodes the content the way the upload endpoint expects.
func (f *File) DataURI() string {
	return EncodeDataURI(f.MimeType, f.Content)
}

// Extension returns the lowercase extension including the dot.
func (f *File) Extension() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// DisplayName is the label shown on the file chip.
func (f *File) DisplayName() string {
	return util.Truncate(f.Name, DisplayNameRunes)
}

// SizeLabel is the human readable size shown on the file chip.
func (f *File) SizeLabel() string {
	return util.FormatFileSize(f.Size)
}

// Icon returns the icon kind for the file chip.
func (f *File) Icon() IconKind {
	return IconFor(f.MimeType, f.Name)
}

func (f *File) clone() File {
	c := *f
	return c
}

// =============================================================================
// VALIDATION
// =============================================================================

// ErrUnsupportedType is matched by every *ValidationError.
var ErrUnsupportedType = errors.New("unsupported file type")

// ValidationError rejects a file whose type is not on the allow-list.
type ValidationError struct {
	Name     string
	MimeType string
}

func (e *ValidationError) Error() string {
	return "File type not supported: " + e.Name
}

// Is lets errors.Is(err, ErrUnsupportedType) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// DisplayNameRunes is how many runes of a file name the chip shows.
const DisplayNameRunes = 15

var allowedMIME = map[string]bool{
	"text/plain":         true,
	"text/markdown":      true,
	"text/html":          true,
	"text/css":           true,
	"text/javascript":    true,
	"application/json":   true,
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
}

var allowedExt = map[string]bool{
	".txt": true, ".md": true, ".py": true, ".js": true, ".html": true,
	".css": true, ".json": true, ".pdf": true, ".doc": true, ".docx": true,
	".xls": true, ".xlsx": true, ".jpg": true, ".jpeg": true, ".png": true,
	".gif": true, ".bmp": true,
}

// Supported reports whether a file with this MIME type or name may be staged.
// Either match is enough.
func Supported(mimeType, name string) bool {
	if allowedMIME[mimeType] {
		return true
	}
	return allowedExt[strings.ToLower(filepath.Ext(name))]
}

// Validate returns a *ValidationError when f cannot be staged.
func Validate(f *File) error {
	if !Supported(f.MimeType, f.Name) {
		return &ValidationError{Name: f.Name, MimeType: f.MimeType}
	}
	return nil
}

// =============================================================================
// ICONS
// =============================================================================

// IconKind names the glyph shown next to a staged file.
type IconKind string

const (
	IconImage   IconKind = "image"
	IconPDF     IconKind = "pdf"
	IconWord    IconKind = "word"
	IconExcel   IconKind = "excel"
	IconText    IconKind = "text"
	IconPython  IconKind = "python"
	IconJS      IconKind = "js"
	IconHTML    IconKind = "html"
	IconCSS     IconKind = "css"
	IconGeneric IconKind = "generic"
)

// IconFor picks an icon from the MIME type first, then the extension.
func IconFor(mimeType, name string) IconKind {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return IconImage
	case mimeType == "application/pdf":
		return IconPDF
	case strings.Contains(mimeType, "word"):
		return IconWord
	case strings.Contains(mimeType, "excel"):
		return IconExcel
	case strings.HasPrefix(mimeType, "text/") || ext == ".txt":
		return IconText
	case ext == ".py":
		return IconPython
	case ext == ".js":
		return IconJS
	case ext == ".html":
		return IconHTML
	case ext == ".css":
		return IconCSS
	default:
		return IconGeneric
	}
}

// Glyph is a one-cell symbol for the icon kind, used by the terminal shell.
func (k IconKind) Glyph() string {
	switch k {
	case IconImage:
		return "🖼"
	case IconPDF:
		return "📕"
	case IconWord:
		return "📘"
	case IconExcel:
		return "📗"
	case IconText:
		return "📄"
	case IconPython, IconJS, IconHTML, IconCSS:
		return "💻"
	default:
		return "📎"
	}
}
