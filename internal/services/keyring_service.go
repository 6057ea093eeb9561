package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "roadmapper"

// DefaultCredentialKey names the site-wide agent key in the keyring.
const DefaultCredentialKey = "default"

// KeyringConfig selects the secret backend. An empty Backend lets the
// keyring library pick the platform default.
type KeyringConfig struct {
	Backend  string
	Dir      string
	Password string
}

// OpenKeyring opens the configured secret backend.
func OpenKeyring(cfg KeyringConfig) (keyring.Keyring, error) {
	kc := keyring.Config{
		ServiceName:      serviceName,
		FileDir:          cfg.Dir,
		FilePasswordFunc: keyring.FixedStringPrompt(cfg.Password),
	}
	if b := strings.TrimSpace(cfg.Backend); b != "" {
		kc.AllowedBackends = []keyring.BackendType{keyring.BackendType(b)}
	}
	ring, err := keyring.Open(kc)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return ring, nil
}

// RoadmapCredentialKey names the keyring entry holding a roadmap's agent key.
func RoadmapCredentialKey(roadmapID uint) string {
	return fmt.Sprintf("roadmap-%d", roadmapID)
}

type KeyringService struct {
	ring keyring.Keyring
}

func NewKeyringService(ring keyring.Keyring) *KeyringService {
	return &KeyringService{ring: ring}
}

func (s *KeyringService) StoreCredential(name string, secret []byte) error {
	if len(secret) == 0 {
		return errors.New("credential is empty")
	}
	if name == "" {
		return errors.New("credential name is required")
	}
	return s.ring.Set(keyring.Item{
		Key:         name,
		Data:        secret,
		Label:       name + " agent key",
		Description: "Jules API key for " + name + " used by roadmapper",
	})
}

// GetCredential returns the stored secret, or "" when none is stored.
func (s *KeyringService) GetCredential(name string) (string, error) {
	if name == "" {
		return "", errors.New("credential name is required")
	}
	item, err := s.ring.Get(name)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	return string(item.Data), nil
}

func (s *KeyringService) DeleteCredential(name string) error {
	if name == "" {
		return errors.New("credential name is required")
	}
	if err := s.ring.Remove(name); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}

func (s *KeyringService) ListCredentials() ([]string, error) {
	return s.ring.Keys()
}
