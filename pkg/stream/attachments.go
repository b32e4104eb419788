package stream

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/h2non/filetype"
)

var (
	ErrAttachmentTooLarge = errors.New("attachment exceeds the size limit")
	ErrAttachmentType     = errors.New("attachment type is not supported")
	ErrTooManyAttachments = errors.New("too many attachments")
)

// Attachment is a validated file queued for the next send
type Attachment struct {
	Name string
	MIME string
	Data []byte
}

// Size is the attachment length in bytes
func (a Attachment) Size() int64 { return int64(len(a.Data)) }

// plain-text kinds have no magic bytes, so they are accepted by extension
var textTypes = map[string]string{
	".csv":  "text/csv",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".json": "application/json",
}

// LoadAttachment reads and validates a file from disk
func LoadAttachment(path string, maxSize int64) (Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("failed to stat attachment: %w", err)
	}
	if info.IsDir() {
		return Attachment{}, fmt.Errorf("%s is a directory: %w", path, ErrAttachmentType)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return Attachment{}, fmt.Errorf("%s is %d bytes (limit %d): %w", filepath.Base(path), info.Size(), maxSize, ErrAttachmentTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("failed to read attachment: %w", err)
	}
	return NewAttachment(filepath.Base(path), data, maxSize)
}

// NewAttachment validates data by its magic bytes. Images, PDFs and office
// documents are sniffed; plain text is accepted by extension when the body
// is valid UTF-8.
func NewAttachment(name string, data []byte, maxSize int64) (Attachment, error) {
	if maxSize > 0 && int64(len(data)) > maxSize {
		return Attachment{}, fmt.Errorf("%s is %d bytes (limit %d): %w", name, len(data), maxSize, ErrAttachmentTooLarge)
	}

	kind, err := filetype.Match(data)
	if err == nil && kind != filetype.Unknown {
		if filetype.IsImage(data) || filetype.IsDocument(data) || kind.MIME.Value == "application/pdf" {
			return Attachment{Name: name, MIME: kind.MIME.Value, Data: data}, nil
		}
		return Attachment{}, fmt.Errorf("%s (%s): %w", name, kind.MIME.Value, ErrAttachmentType)
	}

	if mime, ok := textTypes[strings.ToLower(filepath.Ext(name))]; ok && utf8.Valid(data) {
		return Attachment{Name: name, MIME: mime, Data: data}, nil
	}
	return Attachment{}, fmt.Errorf("%s: %w", name, ErrAttachmentType)
}

// AttachmentQueue holds the files for the next send. Take clears it at send
// time; Restore puts the files back when the send fails in transport.
type AttachmentQueue struct {
	mu       sync.Mutex
	items    []Attachment
	maxFiles int
}

// NewAttachmentQueue creates a queue; maxFiles <= 0 means unlimited
func NewAttachmentQueue(maxFiles int) *AttachmentQueue {
	return &AttachmentQueue{maxFiles: maxFiles}
}

// Add queues a validated attachment
func (q *AttachmentQueue) Add(a Attachment) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.maxFiles > 0 && len(q.items) >= q.maxFiles {
		return fmt.Errorf("limit is %d files: %w", q.maxFiles, ErrTooManyAttachments)
	}
	q.items = append(q.items, a)
	return nil
}

// Remove drops the first attachment with the given name
func (q *AttachmentQueue) Remove(name string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, a := range q.items {
		if a.Name == name {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Take empties the queue and returns what it held
func (q *AttachmentQueue) Take() []Attachment {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Restore puts taken attachments back ahead of anything queued since
func (q *AttachmentQueue) Restore(items []Attachment) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(append([]Attachment{}, items...), q.items...)
}

// Names lists queued file names in order
func (q *AttachmentQueue) Names() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	names := make([]string, len(q.items))
	for i, a := range q.items {
		names[i] = a.Name
	}
	return names
}

func (q *AttachmentQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
