package backend

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenStore persists the backend access token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Clear() error { return m.Save("") }

// FileStore keeps the token in a 0600 file.
type FileStore struct {
	Path string
}

func (f FileStore) Load() (string, error) {
	raw, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func (f FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	return os.WriteFile(f.Path, []byte(token), 0o600)
}

func (f FileStore) Clear() error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Session is the authenticated identity used for backend calls. It is
// passed explicitly to every call; a 401 answer clears it.
type Session struct {
	mu    sync.RWMutex
	token string
	store TokenStore
}

// NewSession loads any persisted token from store.
func NewSession(store TokenStore) (*Session, error) {
	if store == nil {
		store = &MemoryStore{}
	}
	token, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Session{token: token, store: store}, nil
}

// NewTokenSession wraps a token that is not persisted anywhere.
func NewTokenSession(token string) *Session {
	return &Session{token: token, store: &MemoryStore{token: token}}
}

func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Authenticated() bool { return s.Token() != "" }

func (s *Session) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return s.store.Save(token)
}

func (s *Session) Clear() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return s.store.Clear()
}

// Claims are read without verifying the signature; the backend remains the
// authority on validity.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

func (s *Session) Claims() (Claims, error) {
	token := s.Token()
	if token == "" {
		return Claims{}, ErrUnauthorized
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("parse session token: %w", err)
	}
	var c Claims
	c.Subject, _ = parsed.Claims.GetSubject()
	if exp, _ := parsed.Claims.GetExpirationTime(); exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// Expired reports whether the token carries an exp claim before now.
// Opaque tokens are never considered expired.
func (s *Session) Expired(now time.Time) bool {
	c, err := s.Claims()
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	if err != nil || c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(c.ExpiresAt)
}
