package archive

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// ResolveBinary returns the expected bindle CLI path for a cargo
// checkout at srcDir.
func ResolveBinary(srcDir string) string {
	return filepath.Join(srcDir, "target", "release", "bindle")
}

// Build compiles the bindle CLI in release mode from its source checkout
// and returns the binary path. Build output goes to stderr so it never
// mixes with the result table on stdout.
func Build(ctx context.Context, logger *slog.Logger, srcDir string) (string, error) {
	binPath := ResolveBinary(srcDir)

	logger.InfoContext(ctx, "building bindle CLI",
		slog.String("source_dir", srcDir),
	)

	cmd := exec.CommandContext(ctx,
		"cargo", "build", "--release", "--features", "cli",
	)
	cmd.Dir = srcDir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(err, "build bindle in %s", srcDir)
	}

	if _, err := os.Stat(binPath); err != nil {
		return "", errors.Newf("build bindle: binary not found at %s", binPath)
	}

	logger.InfoContext(ctx, "bindle CLI built",
		slog.String("binary", binPath),
	)

	return binPath, nil
}
