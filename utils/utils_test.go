package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "server.yml")
	assert.Nil(t, os.WriteFile(filePath, []byte("lifeline:"), 0600))

	exists, err := FileExists(filePath)
	assert.Nil(t, err)
	assert.True(t, exists)

	exists, err = FileExists(filepath.Join(dir, "missing.yml"))
	assert.Nil(t, err)
	assert.False(t, exists)

	exists, err = FileExists(dir)
	assert.Nil(t, err)
	assert.False(t, exists, "directories aren't files")
}
