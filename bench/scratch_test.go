package bench

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScratchCloseRemovesRoot(t *testing.T) {
	s, err := NewScratch("", false, testLogger())
	require.NoError(t, err)

	path := s.Path("some-archive.tar")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, s.Close())

	_, err = os.Stat(s.Root)
	assert.True(t, os.IsNotExist(err))
}

func TestScratchKeep(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scratch")

	s, err := NewScratch(dir, true, testLogger())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestScratchDir(t *testing.T) {
	s, err := NewScratch("", false, testLogger())
	require.NoError(t, err)
	defer s.Close()

	sub, err := s.Dir("corpus")
	require.NoError(t, err)
	assert.Equal(t, s.Path("corpus"), sub)

	info, err := os.Stat(sub)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
