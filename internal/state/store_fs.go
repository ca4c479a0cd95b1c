package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileKV stores one JSON file per key under <base>/<namespace>/. Writes go
// through a temp file plus rename so a reader never observes a partial record.
type FileKV struct {
	base string
}

func NewFileKV(base string) *FileKV {
	return &FileKV{base: base}
}

func (s *FileKV) path(namespace, key string) string {
	return filepath.Join(s.base, filepath.FromSlash(namespace), key+".json")
}

func (s *FileKV) writeAtomic(path string, value any) error {
	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func (s *FileKV) Put(_ context.Context, namespace, key string, value any) error {
	return s.writeAtomic(s.path(namespace, key), value)
}

func (s *FileKV) Append(_ context.Context, namespace, key string, entry any) error {
	path := s.path(namespace, key)

	var log []json.RawMessage
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &log); err != nil {
			return fmt.Errorf("decode existing log %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// First entry starts the log.
	default:
		return fmt.Errorf("read log %s: %w", path, err)
	}

	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode log entry for %s: %w", path, err)
	}
	log = append(log, encoded)
	return s.writeAtomic(path, log)
}

func (s *FileKV) Get(_ context.Context, namespace, key string, out any) error {
	raw, err := os.ReadFile(s.path(namespace, key))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("read %s/%s: %w", namespace, key, err)
	}
	return json.Unmarshal(raw, out)
}

func (s *FileKV) GetLog(ctx context.Context, namespace, key string, out any) error {
	return s.Get(ctx, namespace, key, out)
}
