package safemod

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireLockRejectsConcurrentHolder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "form.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	lock1, err := AcquireLock(path)
	require.NoError(t, err)
	defer lock1.Release()

	_, err = AcquireLock(path)
	assert.Error(t, err)
}

func TestReleaseThenReacquire(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "form.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	lock1, err := AcquireLock(path)
	require.NoError(t, err)
	require.NoError(t, lock1.Release())

	lock2, err := AcquireLock(path)
	require.NoError(t, err)
	assert.NoError(t, lock2.Release())
}

func TestReleaseIsSafeOnNilAndRepeated(t *testing.T) {
	var l *Lock
	assert.NoError(t, l.Release())

	dir := t.TempDir()
	path := filepath.Join(dir, "form.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	lock, err := AcquireLock(path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
	assert.NoError(t, lock.Release())
}
