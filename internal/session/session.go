// Package session keeps the authenticated identity, persisted encrypted to a
// local file so a restart can offer to resume it.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"toronet-wallet/internal/models"
)

// EntryKey names the persisted session entry.
const EntryKey = "@toronet-user"

// Store holds at most one identity. The zero value is not usable; use NewStore.
type Store struct {
	path   string
	key    []byte
	logger *zerolog.Logger

	mu       sync.RWMutex
	identity models.Identity
}

func NewStore(path, secret string, logger *zerolog.Logger) (*Store, error) {
	if secret == "" {
		return nil, errors.New("session secret cannot be empty")
	}
	key, err := deriveKey(secret, EntryKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive session key: %w", err)
	}
	return &Store{path: path, key: key, logger: logger}, nil
}

// Hydrate loads a persisted identity, if any. A missing file is not an
// error. An unreadable file is discarded.
func (s *Store) Hydrate() (models.Identity, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.Identity{}, false, nil
	}
	if err != nil {
		return models.Identity{}, false, fmt.Errorf("failed to read session: %w", err)
	}

	plain, err := decrypt(s.key, data)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Discarding unreadable session")
		_ = os.Remove(s.path)
		return models.Identity{}, false, nil
	}

	var identity models.Identity
	if err := json.Unmarshal(plain, &identity); err != nil || identity.Empty() {
		s.logger.Warn().Str("path", s.path).Msg("Discarding malformed session")
		_ = os.Remove(s.path)
		return models.Identity{}, false, nil
	}

	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()

	s.logger.Info().Str("address", identity.Address).Msg("Session hydrated")
	return identity, true, nil
}

// Login stores and persists identity.
func (s *Store) Login(identity models.Identity) error {
	if identity.Empty() {
		return errors.New("identity has no address")
	}

	plain, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}
	enc, err := encrypt(s.key, plain)
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, enc, 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()
	return nil
}

// Logout clears the identity and erases the persisted copy.
func (s *Store) Logout() error {
	s.mu.Lock()
	s.identity = models.Identity{}
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to erase session: %w", err)
	}
	return nil
}

// Current returns the authenticated identity.
func (s *Store) Current() (models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, !s.identity.Empty()
}
