// Package file persists reports as JSON files on the local disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/ports"
)

// Persister keeps the latest report in a single JSON file, replaced atomically on every save.
type Persister struct {
	path string
}

var _ ports.ReportPersister = (*Persister)(nil)

func New(path string) *Persister {
	return &Persister{path: path}
}

// Path returns the target file.
func (p *Persister) Path() string { return p.path }

func (p *Persister) Save(_ context.Context, r domain.Report) error {
	if r.Warnings == nil {
		r.Warnings = []domain.ReportWarning{}
	}
	return writeJSONAtomic(p.path, r)
}

// Load reads the last saved report. A missing file yields domain.ErrNotFound.
func (p *Persister) Load(_ context.Context) (_ domain.Report, retErr error) {
	f, err := os.Open(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Report{}, domain.ErrNotFound
		}
		return domain.Report{}, fmt.Errorf("open: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close: %w", cerr)
		}
	}()

	var r domain.Report
	if err := json.NewDecoder(f).Decode(&r); err != nil {
		return domain.Report{}, fmt.Errorf("decode: %w", err)
	}
	return r, nil
}

func writeJSONAtomic(path string, v any) (retErr error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return fmt.Errorf("create tmp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := true
	closed := false
	defer func() {
		if !closed {
			if cerr := tmp.Close(); cerr != nil && retErr == nil {
				retErr = fmt.Errorf("close tmp: %w", cerr)
			}
		}
		if cleanup {
			if err := os.Remove(tmpName); err != nil && retErr == nil {
				retErr = fmt.Errorf("remove tmp: %w", err)
			}
		}
	}()
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close tmp: %w", err)
	}
	closed = true
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	cleanup = false
	return nil
}
