package chatclient

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	assert.NoError(t, err)

	assert.NoError(t, store.WritePointer("session-1"))
	assert.NoError(t, store.WriteProfile(&Principal{Email: "u@example.com", Name: "U"}))

	// Reopen: state survives a restart.
	reopened, err := NewFileStore(dir)
	assert.NoError(t, err)

	pointer, ok := reopened.ReadPointer()
	assert.True(t, ok)
	assert.Equal(t, "session-1", pointer)

	profile, ok := reopened.ReadProfile()
	assert.True(t, ok)
	assert.Equal(t, "u@example.com", profile.Email)
}

func TestFileStoreClear(t *testing.T) {
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	assert.NoError(t, err)

	assert.NoError(t, store.WritePointer("session-1"))
	assert.NoError(t, store.ClearPointer())

	_, ok := store.ReadPointer()
	assert.False(t, ok)

	// Clearing the pointer does not touch the profile.
	assert.NoError(t, store.WriteProfile(&Principal{Email: "u@example.com"}))
	assert.NoError(t, store.ClearPointer())
	_, ok = store.ReadProfile()
	assert.True(t, ok)
}

func TestFileStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "profile.json"), []byte("{not json"), 0644)
	assert.NoError(t, err)

	// A corrupt cache starts empty instead of failing.
	store, err := NewFileStore(dir)
	assert.NoError(t, err)

	_, ok := store.ReadPointer()
	assert.False(t, ok)
}

func TestFileStoreMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "deep")

	store, err := NewFileStore(dir)
	assert.NoError(t, err)

	// First write creates the directory.
	assert.NoError(t, store.WritePointer("session-1"))

	reopened, err := NewFileStore(dir)
	assert.NoError(t, err)
	pointer, ok := reopened.ReadPointer()
	assert.True(t, ok)
	assert.Equal(t, "session-1", pointer)
}
