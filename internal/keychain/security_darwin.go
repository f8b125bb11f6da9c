// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

//go:build darwin

package keychain

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/99designs/keyring"
)

// securityBackend stores items as generic passwords through /usr/bin/security,
// account ServiceName and service key.
type securityBackend struct{}

func newSecurityBackend() (*securityBackend, error) {
	if _, err := exec.LookPath("security"); err != nil {
		return nil, fmt.Errorf("security command not found: %w", err)
	}
	return &securityBackend{}, nil
}

func (s *securityBackend) Set(key, value string) error {
	_, err := security("add-generic-password", "-a", ServiceName, "-s", key, "-w", value, "-U")
	if err != nil {
		return fmt.Errorf("store %q in keychain: %w", key, err)
	}
	return nil
}

func (s *securityBackend) Get(key string) (string, error) {
	out, err := security("find-generic-password", "-a", ServiceName, "-s", key, "-w")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Delete treats a missing item as already deleted.
func (s *securityBackend) Delete(key string) error {
	_, err := security("delete-generic-password", "-a", ServiceName, "-s", key)
	if err == keyring.ErrKeyNotFound {
		return nil
	}
	return err
}

// security runs the command and maps "could not be found" to keyring.ErrKeyNotFound.
// Arguments are never included in errors; one of them may be a DSN.
func security(args ...string) (string, error) {
	cmd := exec.Command("security", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(msg, "could not be found") {
			return "", keyring.ErrKeyNotFound
		}
		return "", fmt.Errorf("security %s: %s: %w", args[0], msg, err)
	}
	return stdout.String(), nil
}
