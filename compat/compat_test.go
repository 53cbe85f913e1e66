package compat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/bindlebench/archive"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeImplScript is a shell stand-in for a bindle implementation. The
// "format" it speaks is a sidecar directory next to the archive file, so
// two Tools pointed at the same script are wire-compatible.
const fakeImplScript = `#!/bin/sh
cmd=$1; shift
case "$cmd" in
add)
  ar=$1; name=$2; src=$3
  mkdir -p "$ar.d" && cp "$src" "$ar.d/$name" && : > "$ar"
  ;;
cat)
  ar=$1; name=$2
  cat "$ar.d/$name"
  ;;
pack)
  ar=$1; src=$2
  mkdir -p "$ar.d" && cp -r "$src/." "$ar.d/" && : > "$ar"
  ;;
unpack)
  ar=$1; dest=$2
  mkdir -p "$dest" && cp -r "$ar.d/." "$dest/"
  ;;
*)
  echo "unknown command $cmd" >&2
  exit 1
  ;;
esac
`

// corruptImplScript reads entries back corrupted, provoking a digest
// mismatch in the first phase.
const corruptImplScript = `#!/bin/sh
cmd=$1; shift
if [ "$cmd" = "cat" ]; then
  printf 'garbage'
  exit 0
fi
exit 0
`

func writeImpl(t *testing.T, name, script string) *archive.Tool {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))

	return archive.NewTool(name, path, testLogger())
}

func TestRunAllPhasesPass(t *testing.T) {
	tester := &Tester{
		A:      writeImpl(t, "impl-a", fakeImplScript),
		B:      writeImpl(t, "impl-b", fakeImplScript),
		Logger: testLogger(),
	}

	outcomes, err := tester.Run(context.Background(), t.TempDir())
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	wantPhases := []string{PhaseWriteAReadB, PhaseWriteBReadA, PhasePackUnpack}
	for i, o := range outcomes {
		assert.Equal(t, wantPhases[i], o.Phase)
		assert.True(t, o.Passed, o.Phase)
		assert.Equal(t, o.Expected, o.Actual, o.Phase)
	}
}

func TestRunStopsAfterFailedPhase(t *testing.T) {
	tester := &Tester{
		A:      writeImpl(t, "impl-a", fakeImplScript),
		B:      writeImpl(t, "impl-b", corruptImplScript),
		Logger: testLogger(),
	}

	outcomes, err := tester.Run(context.Background(), t.TempDir())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	out := outcomes[0]
	assert.Equal(t, PhaseWriteAReadB, out.Phase)
	assert.False(t, out.Passed)
	assert.NotEqual(t, out.Expected, out.Actual)

	wantDigest := sha256.Sum256([]byte("Consistency is the playground of the gods."))
	assert.Equal(t, hex.EncodeToString(wantDigest[:]), out.Expected)
}

func TestRunToolFailureIsError(t *testing.T) {
	failing := `#!/bin/sh
echo "cannot open archive" >&2
exit 1
`

	tester := &Tester{
		A:      writeImpl(t, "impl-a", failing),
		B:      writeImpl(t, "impl-b", fakeImplScript),
		Logger: testLogger(),
	}

	outcomes, err := tester.Run(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Empty(t, outcomes)
	assert.Contains(t, err.Error(), "cannot open archive")
}

func TestDirectoryRoundTripContent(t *testing.T) {
	tester := &Tester{
		A:      writeImpl(t, "impl-a", fakeImplScript),
		B:      writeImpl(t, "impl-b", fakeImplScript),
		Logger: testLogger(),
	}

	scratch := t.TempDir()
	outcomes, err := tester.Run(context.Background(), scratch)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	data, err := os.ReadFile(filepath.Join(scratch, "pack_out", "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Cross-language directory packing works!", string(data))
}
