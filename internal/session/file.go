package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/trafficmon/trafficmon/internal/safefile"
)

const maxSessionFile = 64 << 10

// FileStore is the CLI profile: at most one session, kept in a private JSON
// file. Writing a new session replaces the previous one.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultFilePath returns ~/.config/trafficmon/session.json (or the platform
// equivalent).
func DefaultFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "trafficmon", "session.json")
}

// Path returns the backing file path.
func (f *FileStore) Path() string { return f.path }

// Current returns the stored session regardless of its id.
func (f *FileStore) Current(_ context.Context) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FileStore) Get(_ context.Context, id string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.read()
	if err != nil {
		return nil, err
	}
	if s.ID != id {
		return nil, ErrNotFound
	}
	return s, nil
}

func (f *FileStore) Put(_ context.Context, s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return safefile.WritePrivate(f.path, data)
}

func (f *FileStore) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Expired files are matched too: a 401 for a session that lapsed
	// mid-run must still remove it.
	s, err := f.readRaw()
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		if id == "" {
			return safefile.Remove(f.path)
		}
		return false, err
	}
	if id != "" && s.ID != id {
		return false, nil
	}
	return safefile.Remove(f.path)
}

func (f *FileStore) read() (*Session, error) {
	s, err := f.readRaw()
	if err != nil {
		return nil, err
	}
	if s.Token == "" || s.Expired(time.Now()) {
		return nil, ErrNotFound
	}
	return s, nil
}

// readRaw decodes the file without checking expiry.
func (f *FileStore) readRaw() (*Session, error) {
	data, err := safefile.ReadFileMax(f.path, maxSessionFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding session file %s: %w", f.path, err)
	}
	return &s, nil
}
