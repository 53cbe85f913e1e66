package bench

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// Scratch is the run-scoped workspace holding the corpus, every
// per-repetition archive, and every extraction directory. Callers defer
// Close so teardown runs even when a benchmark or compatibility phase
// fails.
type Scratch struct {
	Root string

	// Keep disables removal on Close, leaving artifacts for inspection.
	Keep bool

	logger *slog.Logger
}

// NewScratch creates a scratch workspace. An empty dir allocates a fresh
// directory under the system temp root.
func NewScratch(dir string, keep bool, logger *slog.Logger) (*Scratch, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "bindlebench-*")
		if err != nil {
			return nil, errors.Wrap(err, "create scratch dir")
		}

		dir = tmp
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create scratch dir %s", dir)
	}

	return &Scratch{Root: dir, Keep: keep, logger: logger}, nil
}

// Path joins elem onto the scratch root.
func (s *Scratch) Path(elem ...string) string {
	return filepath.Join(append([]string{s.Root}, elem...)...)
}

// Dir creates and returns a subdirectory of the scratch root.
func (s *Scratch) Dir(name string) (string, error) {
	dir := s.Path(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create scratch subdir %s", name)
	}

	return dir, nil
}

// Close reclaims the workspace unless Keep is set.
func (s *Scratch) Close() error {
	if s.Keep {
		s.logger.Info("keeping scratch directory",
			slog.String("path", s.Root),
		)

		return nil
	}

	if err := os.RemoveAll(s.Root); err != nil {
		return errors.Wrapf(err, "remove scratch dir %s", s.Root)
	}

	return nil
}
