package filestore

// Package filestore persists sessions for the command-line client in a JSON file.

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

	domainauth "github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/ports"
)

// Slot is the session id the command-line client stores its current login under.
const Slot = "accessToken"

// SessionStore keeps sessions in a single 0600 JSON file keyed by session id.
type SessionStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// DefaultPath returns <user config dir>/admin-console/session.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "admin-console", "session.json"), nil
}

// NewSessionStore creates a store backed by the file at path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path, now: time.Now}
}

// Path returns the backing file location.
func (s *SessionStore) Path() string { return s.path }

func (s *SessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	all[sess.ID] = sess
	return s.write(all)
}

func (s *SessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return domainauth.Session{}, err
	}
	sess, ok := all[id]
	if !ok {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	if s.now().After(sess.ExpiresAt) {
		delete(all, id)
		if err := s.write(all); err != nil {
			return domainauth.Session{}, err
		}
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := all[id]; !ok {
		return nil
	}
	delete(all, id)
	return s.write(all)
}

func (s *SessionStore) load() (map[string]domainauth.Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]domainauth.Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	all := map[string]domainauth.Session{}
	if len(data) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("decode session file %s: %w", s.path, err)
	}
	return all, nil
}

// write replaces the file atomically via a temp file in the same directory.
func (s *SessionStore) write(all map[string]domainauth.Session) error {
	if len(all) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove session file: %w", err)
		}
		return nil
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// CurrentSession pins the client's login to Slot, so it holds at most one no matter
// which id the session manager generated. A session without a profile is staged under
// its own id and only replaces Slot once the profile is attached, so a login that
// fails halfway leaves the previous login in place.
type CurrentSession struct {
	Store ports.SessionStore
}

var _ ports.SessionStore = CurrentSession{}

func (c CurrentSession) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == Slot || sess.ID == "" {
		sess.ID = Slot
		return c.Store.Save(ctx, sess)
	}
	if !sess.HasProfile() {
		return c.Store.Save(ctx, sess)
	}
	staged := sess.ID
	sess.ID = Slot
	if err := c.Store.Save(ctx, sess); err != nil {
		return err
	}
	return c.Store.Delete(ctx, staged)
}

func (c CurrentSession) Get(ctx context.Context, _ string) (domainauth.Session, error) {
	return c.Store.Get(ctx, Slot)
}

// Delete removes the current login when asked for Slot and only the staged session otherwise.
func (c CurrentSession) Delete(ctx context.Context, id string) error {
	if id == "" {
		id = Slot
	}
	return c.Store.Delete(ctx, id)
}
