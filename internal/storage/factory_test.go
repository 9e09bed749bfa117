package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreDefaultsToMemory(t *testing.T) {
	s, err := NewStore("", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
}

func TestNewStoreRejectsUnknownKind(t *testing.T) {
	_, err := NewStore("etcd", "")
	require.Error(t, err)
}

func TestCloseIfSupportedIgnoresPlainStores(t *testing.T) {
	assert.NoError(t, CloseIfSupported(NewMemoryStore()))
}
