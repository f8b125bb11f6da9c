// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain stores the backend connection string in the OS credential store.
// "tablewire connect" saves a verified DSN here and "tablewire serve" falls back
// to it when neither config nor environment provide one.
//
// macOS uses the native security command when available, other platforms go
// through the keyring library (Keychain, Windows Credential Manager, Secret
// Service or pass). There is no plain-file fallback.
package keychain

import (
	"errors"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
)

// Global keychain manager instance
var (
	globalManager *Manager
	mu            sync.Mutex
)

// Manager provides thread-safe DSN storage in the OS keychain.
type Manager struct {
	mu      sync.RWMutex
	ring    keyring.Keyring
	backend keychainBackend
}

// keychainBackend defines the interface for native keychain operations.
type keychainBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "tablewire"

// KeyDBDSN is the item name of the stored connection string.
const KeyDBDSN = "db_dsn"

// ErrEmptyDSN is returned when the stored item exists but holds nothing.
var ErrEmptyDSN = errors.New("empty database DSN in keychain")

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	if runtime.GOOS == "darwin" {
		backend, err := newSecurityBackend()
		if err == nil {
			return &Manager{backend: backend}, nil
		}
		// Fall through to keyring library if security command fails
	}

	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return NewWithRing(ring), nil
}

// NewWithRing wraps an already opened keyring.
func NewWithRing(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// GetManager returns the global keychain manager instance.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	m, err := NewManager()
	if err != nil {
		return nil, err
	}
	globalManager = m
	return globalManager, nil
}

// openRing opens the OS keyring using native platform backends only.
func openRing() (keyring.Keyring, error) {
	var allowedBackends []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		// pass is the fallback when Keychain access is blocked
		allowedBackends = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		allowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	case "linux":
		allowedBackends = []keyring.BackendType{keyring.SecretServiceBackend, keyring.PassBackend}
	default:
		return nil, errors.New("secure storage not supported on this OS (macOS, Windows and Linux only)")
	}

	cfg := keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowedBackends,
		PassPrefix:      ServiceName,
	}
	if runtime.GOOS == "windows" {
		cfg.WinCredPrefix = ServiceName
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		if runtime.GOOS == "darwin" {
			return nil, errors.New("macOS Keychain unavailable. Install 'pass': brew install pass gnupg && gpg --generate-key && pass init <gpg-key-id>")
		}
		return nil, err
	}
	return ring, nil
}

// SaveDBDSN stores the database DSN in the keychain.
func (m *Manager) SaveDBDSN(dsn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		return m.backend.Set(KeyDBDSN, dsn)
	}
	return m.ring.Set(keyring.Item{
		Key:         KeyDBDSN,
		Data:        []byte(dsn),
		Label:       "tablewire database connection",
		Description: "DSN used by the tablewire gateway",
	})
}

// LoadDBDSN retrieves the database DSN from the keychain.
func (m *Manager) LoadDBDSN() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var dsn string
	if m.backend != nil {
		v, err := m.backend.Get(KeyDBDSN)
		if err != nil {
			return "", err
		}
		dsn = v
	} else {
		it, err := m.ring.Get(KeyDBDSN)
		if err != nil {
			return "", err
		}
		dsn = string(it.Data)
	}
	if dsn == "" {
		return "", ErrEmptyDSN
	}
	return dsn, nil
}

// ClearDB removes the stored DSN. A missing item is not an error.
func (m *Manager) ClearDB() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		return m.backend.Delete(KeyDBDSN)
	}
	if err := m.ring.Remove(KeyDBDSN); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}
