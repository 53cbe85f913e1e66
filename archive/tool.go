package archive

import (
	"context"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
)

// Tool is a client for one bindle implementation's CLI. The
// compatibility protocol runs two Tools built from independent
// implementations against the same archive file.
//
// All four operations share the CLI contract
//
//	add <archive> <entry> <file> [--compress]
//	cat <archive> <entry>
//	pack <archive> <dir> [--compress]
//	unpack <archive> <dest>
//
// with success signaled by exit status only.
type Tool struct {
	Name   string
	Binary string
	Logger *slog.Logger
}

// NewTool creates a Tool for the named implementation.
func NewTool(name, binary string, logger *slog.Logger) *Tool {
	return &Tool{
		Name:   name,
		Binary: binary,
		Logger: logger.With(slog.String("impl", name)),
	}
}

// Add stores srcFile's content in the archive under entry, creating the
// archive if it does not exist.
func (t *Tool) Add(ctx context.Context, archive, entry, srcFile string, compress bool) error {
	args := []string{"add", archive, entry, srcFile}
	if compress {
		args = append(args, "--compress")
	}

	t.Logger.Debug("add entry",
		slog.String("archive", archive),
		slog.String("entry", entry),
		slog.Bool("compress", compress),
	)

	_, _, err := run(ctx, "", t.Binary, args...)

	return err
}

// Cat returns the raw bytes of the named entry, read from the tool's
// stdout.
func (t *Tool) Cat(ctx context.Context, archive, entry string) ([]byte, error) {
	t.Logger.Debug("cat entry",
		slog.String("archive", archive),
		slog.String("entry", entry),
	)

	_, out, err := run(ctx, "", t.Binary, "cat", archive, entry)

	return out, err
}

// Pack archives the full tree under srcDir.
func (t *Tool) Pack(ctx context.Context, archive, srcDir string, compress bool) error {
	args := []string{"pack", archive, srcDir}
	if compress {
		args = append(args, "--compress")
	}

	t.Logger.Debug("pack directory",
		slog.String("archive", archive),
		slog.String("src", srcDir),
		slog.Bool("compress", compress),
	)

	_, _, err := run(ctx, "", t.Binary, args...)

	return err
}

// Unpack reconstructs the archive's tree under destDir, creating destDir
// first.
func (t *Tool) Unpack(ctx context.Context, archive, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return errors.Wrapf(err, "create unpack dir %s", destDir)
	}

	t.Logger.Debug("unpack archive",
		slog.String("archive", archive),
		slog.String("dest", destDir),
	)

	_, _, err := run(ctx, "", t.Binary, "unpack", archive, destDir)

	return err
}
