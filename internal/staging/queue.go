// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package staging

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/chatbot/internal/backend"
	"github.com/jeranaias/chatbot/internal/util"
)

// DefaultClearDelay keeps upload status visible before the queue empties.
const DefaultClearDelay = 3 * time.Second

// Uploader sends one file to the backend. *backend.Client implements it.
type Uploader interface {
	Upload(ctx context.Context, req backend.UploadRequest) (*backend.UploadResponse, error)
}

// Scheduler runs f after d. time.AfterFunc satisfies it.
type Scheduler func(d time.Duration, f func()) *time.Timer

// EncodeDataURI builds "data:<mime>;base64,<payload>".
func EncodeDataURI(mimeType string, content []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(content)
}

// =============================================================================
// OUTCOME
// =============================================================================

// Outcome is the result of uploading one file.
type Outcome struct {
	File    File
	Content string
	Err     error
}

// OK reports whether the upload succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// BotText is the transcript message for this outcome.
func (o Outcome) BotText() string {
	if o.Err == nil {
		return o.Content
	}
	var se *backend.HTTPStatusError
	if errors.As(o.Err, &se) {
		return "❌ Upload failed for " + o.File.Name + ": " + o.Err.Error()
	}
	return "❌ Error uploading " + o.File.Name + ": " + o.Err.Error()
}

// ToastText is the notification for this outcome.
func (o Outcome) ToastText() string {
	if o.Err == nil {
		return "✅ " + o.File.Name + " uploaded successfully!"
	}
	var se *backend.HTTPStatusError
	if errors.As(o.Err, &se) {
		return "❌ Failed to upload " + o.File.Name
	}
	return "❌ Error uploading " + o.File.Name
}

// =============================================================================
// QUEUE
// =============================================================================

// Queue is the ordered list of staged files. It is safe for concurrent use.
type Queue struct {
	mu         sync.Mutex
	files      []*File
	clearDelay time.Duration
	schedule   Scheduler
	logger     zerolog.Logger

	// OnChange, when set, is called after the queue content or a file
	// status changes. It runs without the queue lock held.
	OnChange func()
}

// NewQueue creates an empty queue with the default clear delay.
func NewQueue() *Queue {
	return &Queue{
		clearDelay: DefaultClearDelay,
		schedule:   time.AfterFunc,
		logger:     zerolog.Nop(),
	}
}

// WithClearDelay sets how long finished files stay listed. Zero or less
// clears right after the batch.
func (q *Queue) WithClearDelay(d time.Duration) *Queue {
	q.clearDelay = d
	return q
}

// WithScheduler replaces time.AfterFunc, mainly for tests.
func (q *Queue) WithScheduler(s Scheduler) *Queue {
	q.schedule = s
	return q
}

// WithLogger sets the logger.
func (q *Queue) WithLogger(l zerolog.Logger) *Queue {
	q.logger = l
	return q
}

// Stage appends f as pending. Unsupported types are rejected with a
// *ValidationError and the queue is left unchanged.
func (q *Queue) Stage(f *File) error {
	if err := Validate(f); err != nil {
		return err
	}
	staged := f.clone()
	staged.Status = StatusPending
	staged.Err = ""
	if staged.Size == 0 {
		staged.Size = int64(len(staged.Content))
	}

	q.mu.Lock()
	q.files = append(q.files, &staged)
	q.mu.Unlock()

	q.logger.Debug().Str("file", f.Name).Str("mime", f.MimeType).Int64("size", staged.Size).Msg("file staged")
	q.changed()
	return nil
}

// Unstage removes the first file with the given name. Unknown names are
// ignored.
func (q *Queue) Unstage(name string) {
	q.mu.Lock()
	removed := false
	for i, f := range q.files {
		if f.Name == name {
			q.files = append(q.files[:i], q.files[i+1:]...)
			removed = true
			break
		}
	}
	q.mu.Unlock()
	if removed {
		q.changed()
	}
}

// Files returns a snapshot of the queue.
func (q *Queue) Files() []File {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]File, len(q.files))
	for i, f := range q.files {
		out[i] = f.clone()
	}
	return out
}

// Len returns the number of staged files.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.files)
}

// Pending returns how many files still wait for upload.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, f := range q.files {
		if f.Status == StatusPending {
			n++
		}
	}
	return n
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.files = nil
	q.mu.Unlock()
	q.changed()
}

// UploadAll uploads every pending file, one at a time, in staging order.
// A failure marks that file and moves on. onDone, when non-nil, is called
// after each file with its outcome. Once the batch is done the uploaded
// files are dropped from the queue after the clear delay; files staged in
// the meantime stay.
func (q *Queue) UploadAll(ctx context.Context, up Uploader, onDone func(Outcome)) []Outcome {
	q.mu.Lock()
	var batch []*File
	for _, f := range q.files {
		if f.Status == StatusPending {
			batch = append(batch, f)
		}
	}
	q.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	outcomes := make([]Outcome, 0, len(batch))
	for _, f := range batch {
		q.mu.Lock()
		req := backend.UploadRequest{FileData: f.DataURI(), FileName: f.Name, FileType: f.MimeType}
		q.mu.Unlock()

		resp, err := up.Upload(ctx, req)

		q.mu.Lock()
		out := Outcome{Err: err}
		if err != nil {
			f.Status = StatusError
			f.Err = err.Error()
		} else {
			f.Status = StatusSuccess
			f.Err = ""
			out.Content = resp.Content
			if out.Content == "" {
				out.Content = resp.Message
			}
		}
		out.File = f.clone()
		out.File.Content = nil
		q.mu.Unlock()

		if err != nil {
			q.logger.Warn().Err(err).Str("file", f.Name).Str("size", util.HumanBytes(f.Size)).Msg("upload failed")
		} else {
			q.logger.Info().Str("file", f.Name).Str("size", util.HumanBytes(f.Size)).Msg("upload complete")
		}
		q.changed()
		outcomes = append(outcomes, out)
		if onDone != nil {
			onDone(out)
		}
	}

	q.scheduleRemoval(batch)
	return outcomes
}

func (q *Queue) scheduleRemoval(batch []*File) {
	remove := func() {
		done := make(map[*File]bool, len(batch))
		for _, f := range batch {
			done[f] = true
		}
		q.mu.Lock()
		kept := q.files[:0]
		for _, f := range q.files {
			if !done[f] {
				kept = append(kept, f)
			}
		}
		q.files = kept
		q.mu.Unlock()
		q.changed()
	}
	if q.clearDelay <= 0 || q.schedule == nil {
		remove()
		return
	}
	q.schedule(q.clearDelay, remove)
}

func (q *Queue) changed() {
	if q.OnChange != nil {
		q.OnChange()
	}
}
