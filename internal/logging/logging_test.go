package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFansOut(t *testing.T) {
	var stderr bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "cscrape.log")

	logger, closeLog, err := New(Options{Stderr: &stderr, File: file})
	require.NoError(t, err)

	logger.Debug("only in file", "job", "sim/fix")
	logger.Warn("everywhere", "job", "sim/fix")
	require.NoError(t, closeLog())

	assert.NotContains(t, stderr.String(), "only in file")
	assert.Contains(t, stderr.String(), "everywhere")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"msg":"only in file"`)
	assert.Contains(t, lines[1], `"job":"sim/fix"`)
}

func TestNewDebugLevel(t *testing.T) {
	var stderr bytes.Buffer
	logger, closeLog, err := New(Options{Stderr: &stderr, DebugLevel: LevelDebug})
	require.NoError(t, err)
	defer closeLog()

	logger.Debug("visible")
	assert.Contains(t, stderr.String(), "visible")
}
