package session

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"toronet-wallet/internal/models"
)

const testAddress = "0xde709f2102306220921060314715629080e2fb77"

func newTestStore(t *testing.T, path, secret string) *Store {
	t.Helper()
	logger := zerolog.Nop()
	s, err := NewStore(path, secret, &logger)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func TestLoginPersistsEncrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.enc")
	s := newTestStore(t, path, "local-secret")

	if err := s.Login(models.Identity{Address: testAddress}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if bytes.Contains(data, []byte(testAddress)) || strings.Contains(string(data), "addr") {
		t.Error("session stored in plaintext")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	id, ok := s.Current()
	if !ok || id.Address != testAddress {
		t.Errorf("Current() = %v, %v", id, ok)
	}
}

func TestHydrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.enc")

	first := newTestStore(t, path, "local-secret")
	if _, ok, err := first.Hydrate(); err != nil || ok {
		t.Fatalf("Hydrate() without file = %v, %v", ok, err)
	}
	if err := first.Login(models.Identity{Address: testAddress}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	second := newTestStore(t, path, "local-secret")
	id, ok, err := second.Hydrate()
	if err != nil || !ok || id.Address != testAddress {
		t.Fatalf("Hydrate() = %v, %v, %v", id, ok, err)
	}
	if cur, ok := second.Current(); !ok || cur.Address != testAddress {
		t.Errorf("Current() = %v, %v", cur, ok)
	}
}

func TestHydrateWithWrongSecretDiscards(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.enc")
	if err := newTestStore(t, path, "secret-a").Login(models.Identity{Address: testAddress}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	s := newTestStore(t, path, "secret-b")
	_, ok, err := s.Hydrate()
	if err != nil || ok {
		t.Fatalf("Hydrate() = %v, %v, want no session", ok, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("unreadable session file not removed")
	}
}

func TestLogout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.enc")
	s := newTestStore(t, path, "local-secret")
	_ = s.Login(models.Identity{Address: testAddress})

	if err := s.Logout(); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, ok := s.Current(); ok {
		t.Error("identity still present after logout")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("session file still present after logout")
	}
	if err := s.Logout(); err != nil {
		t.Errorf("second Logout() error = %v", err)
	}
}

func TestLoginRejectsEmptyIdentity(t *testing.T) {
	s := newTestStore(t, filepath.Join(t.TempDir(), "session.enc"), "local-secret")
	if err := s.Login(models.Identity{}); err == nil {
		t.Error("expected error for empty identity")
	}
}

func TestEncryptRoundTripAndTamper(t *testing.T) {
	key, err := deriveKey("local-secret", EntryKey)
	if err != nil {
		t.Fatalf("deriveKey() error = %v", err)
	}

	enc, err := encrypt(key, []byte("hello"))
	if err != nil {
		t.Fatalf("encrypt() error = %v", err)
	}
	plain, err := decrypt(key, enc)
	if err != nil || string(plain) != "hello" {
		t.Fatalf("decrypt() = %q, %v", plain, err)
	}

	enc[len(enc)-1] ^= 0xff
	if _, err := decrypt(key, enc); err == nil {
		t.Error("decrypt() accepted tampered ciphertext")
	}

	if _, err := encrypt(key[:16], []byte("x")); err != ErrInvalidKeyLength {
		t.Errorf("encrypt() with short key error = %v", err)
	}
}
