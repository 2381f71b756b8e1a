package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"gotest.tools/v3/assert"
)

var discardLogger = logr.Discard()

func writeKeyFile(t *testing.T, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "key")
	assert.NilError(t, os.WriteFile(path, []byte("token-123\nsecond line\n"), perm))
	assert.NilError(t, os.Chmod(path, perm))
	return path
}

func TestLoadKey(t *testing.T) {
	path := writeKeyFile(t, 0600)
	key, err := loadKey(path, false, discardLogger)
	assert.NilError(t, err)
	assert.Equal(t, "token-123", key)

	readonly := writeKeyFile(t, 0400)
	key, err = loadKey(readonly, false, discardLogger)
	assert.NilError(t, err)
	assert.Equal(t, "token-123", key)
}

func TestVerifyPermissions(t *testing.T) {
	path := writeKeyFile(t, 0644)
	assert.ErrorContains(t, verifyPermissions(path), "invalid permissions")

	_, err := loadKey(path, false, discardLogger)
	assert.ErrorContains(t, err, "-rw-------")
}

func TestReadKeyMissing(t *testing.T) {
	_, err := readKey(filepath.Join(t.TempDir(), "missing"))
	assert.Assert(t, err != nil)
}

func TestSetupPrompt(t *testing.T) {
	prompt := setupPrompt("/home/user/.cloudflare")
	assert.Assert(t, strings.Contains(prompt, "Cloudflare API token"))
	assert.Assert(t, strings.Contains(prompt, "/home/user/.cloudflare"))
}
