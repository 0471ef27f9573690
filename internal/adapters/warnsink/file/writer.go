// Package file appends forwarded warnings to a local NDJSON file.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vshulcz/Perfwatch/internal/services/forward"
)

// Writer appends warning events to a newline-delimited JSON file.
type Writer struct {
	path string
	mu   sync.Mutex
}

var _ forward.Sink = (*Writer)(nil)

// New creates a Writer for path. The parent directory is created on first write.
func New(path string) *Writer {
	return &Writer{path: path}
}

// Notify marshals the event and appends it as one line.
func (w *Writer) Notify(_ context.Context, evt forward.Event) (retErr error) {
	if w == nil || w.path == "" {
		return nil
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal warning event: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open warnings file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close warnings file: %w", cerr)
		}
	}()

	if _, err := f.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write warnings file: %w", err)
	}
	return nil
}
