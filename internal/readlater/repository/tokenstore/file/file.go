// Package file stores key/value pairs in a single JSON document on disk,
// the CLI counterpart of browser local storage.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/Leopold1975/readlater/internal/readlater/repository/tokenstore"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

type Store struct {
	mu   sync.Mutex
	path string
}

// New returns a store backed by path. An empty path selects
// <user config dir>/readlater/storage.json.
func New(path string) (*Store, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("user config dir error: %w", err)
		}

		path = filepath.Join(dir, "readlater", "storage.json")
	}

	return &Store{path: path}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", err
	}

	v, ok := values[key]
	if !ok {
		return "", tokenstore.ErrNotFound
	}

	return v, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}

	values[key] = value

	return s.write(values)
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}

	if _, ok := values[key]; !ok {
		return nil
	}

	delete(values, key)

	return s.write(values)
}

func (s *Store) read() (map[string]string, error) {
	values := make(map[string]string)

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	} else if err != nil {
		return nil, fmt.Errorf("read file error: %w", err)
	}

	if len(b) == 0 {
		return values, nil
	}

	if err := json.Unmarshal(b, &values); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}

	return values, nil
}

// write replaces the file atomically so a crash never leaves half a document.
func (s *Store) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return fmt.Errorf("mkdir error: %w", err)
	}

	b, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".storage-*")
	if err != nil {
		return fmt.Errorf("create temp error: %w", err)
	}

	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()

		return fmt.Errorf("write error: %w", err)
	}

	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()

		return fmt.Errorf("chmod error: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close error: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename error: %w", err)
	}

	return nil
}
