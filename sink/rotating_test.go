package sink

import (
	"compress/gzip"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func TestRotatingWritesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	r, err := NewRotating(path, 0) // rotation disabled
	require.NoError(t, err)

	require.NoError(t, r.Receive(entry("hello")))
	require.NoError(t, r.Receive(entry("world")))
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[worker-1] INFO hello")
	assert.Contains(t, lines[1], "[worker-1] INFO world")
}

func TestRotatingRotatesAndCompresses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	r, err := NewRotating(path, 1) // rotate after every line
	require.NoError(t, err)

	require.NoError(t, r.Receive(entry("one")))
	require.NoError(t, r.Receive(entry("two"))) // triggers rotation of "one"
	require.NoError(t, r.Close())

	matches, err := filepath.Glob(path + ".*.gz")
	require.NoError(t, err)
	require.Len(t, matches, 1, "exactly one compressed segment expected")

	// Uncompressed segment must be gone.
	plain := strings.TrimSuffix(matches[0], ".gz")
	_, err = os.Stat(plain)
	assert.True(t, os.IsNotExist(err), "uncompressed segment should be removed")

	// Archive content round-trips through gzip.
	f, err := os.Open(matches[0])
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	content, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Contains(t, string(content), "INFO one")
	assert.NotContains(t, string(content), "INFO two")

	// Digest sidecar matches the compressed bytes.
	raw, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	want := blake2b.Sum256(raw)

	side, err := os.ReadFile(matches[0] + ".b2sum")
	require.NoError(t, err)
	fields := strings.Fields(string(side))
	require.NotEmpty(t, fields)
	assert.Equal(t, hex.EncodeToString(want[:]), fields[0])

	// The live file holds only the post-rotation line.
	live, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(live), "INFO two")
	assert.NotContains(t, string(live), "INFO one")
}

func TestRotatingAppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	r, err := NewRotating(path, 0)
	require.NoError(t, err)
	require.NoError(t, r.Receive(entry("first")))
	require.NoError(t, r.Close())

	r, err = NewRotating(path, 0)
	require.NoError(t, err)
	require.NoError(t, r.Receive(entry("second")))
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}
