package session

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Transcript is an append-only, line-oriented conversation log. Each line is
// written through immediately so an aborted run leaves a readable prefix.
type Transcript struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	path   string
	lines  int
}

// NewTranscript writes to w.
func NewTranscript(w io.Writer) *Transcript {
	return &Transcript{w: w}
}

// CreateTranscript truncates or creates the file at path.
func CreateTranscript(path string) (*Transcript, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create transcript: %w", err)
	}
	return &Transcript{w: f, closer: f, path: path}, nil
}

// Append writes one line. Embedded newlines are flattened so one entry is
// always one line.
func (t *Transcript) Append(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	line = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(line)
	if _, err := io.WriteString(t.w, line+"\n"); err != nil {
		return fmt.Errorf("append transcript line: %w", err)
	}
	t.lines++
	return nil
}

// Len returns the number of lines written.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lines
}

func (t *Transcript) Path() string { return t.path }

// Close closes the underlying file, if any.
func (t *Transcript) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}
