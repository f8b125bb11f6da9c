// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

package keychain

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_DSNLifecycle(t *testing.T) {
	m := NewWithRing(keyring.NewArrayKeyring(nil))

	_, err := m.LoadDBDSN()
	require.Error(t, err)

	require.NoError(t, m.SaveDBDSN("postgresql://app:pw@db:5432/main"))
	got, err := m.LoadDBDSN()
	require.NoError(t, err)
	assert.Equal(t, "postgresql://app:pw@db:5432/main", got)

	require.NoError(t, m.ClearDB())
	_, err = m.LoadDBDSN()
	assert.Error(t, err)

	// clearing twice is fine
	assert.NoError(t, m.ClearDB())
}

func TestManager_EmptyDSN(t *testing.T) {
	m := NewWithRing(keyring.NewArrayKeyring([]keyring.Item{{Key: KeyDBDSN, Data: nil}}))

	_, err := m.LoadDBDSN()
	assert.ErrorIs(t, err, ErrEmptyDSN)
}
