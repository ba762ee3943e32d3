// Package tokenstore persists upstream credentials for the terminal client
// (a local file) and for gateway devices (Redis).
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/stemsi/studyguide/internal/apiclient"
)

// FileStore keeps credentials in a JSON file readable only by its owner.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns zero credentials when the file does not exist.
func (s *FileStore) Load(context.Context) (apiclient.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var creds apiclient.Credentials
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return creds, nil
	}
	if err != nil {
		return creds, fmt.Errorf("read %s: %w", s.path, err)
	}
	if err := json.Unmarshal(raw, &creds); err != nil {
		return apiclient.Credentials{}, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return creds, nil
}

// Save replaces the file atomically.
func (s *FileStore) Save(_ context.Context, creds apiclient.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", s.path, err)
	}
	return nil
}
