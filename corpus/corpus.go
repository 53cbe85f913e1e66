// Package corpus generates the deterministic synthetic file tree used as
// benchmark input. Every byte of every file is fixed by the seed, so two
// generations are byte-identical and archive sizes are reproducible.
//
// The tree spans compressibility classes: many small highly-repetitive
// text files, a handful of medium single-byte files, one large
// single-byte file, and one file of seeded pseudo-random bytes.
package corpus

import (
	"bytes"
	"fmt"
	mrand "math/rand"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// DefaultSeed is the seed used when Config.Seed is zero.
const DefaultSeed = 42

const (
	smallFileCount  = 100
	smallRepeat     = 100
	mediumFileCount = 10
	mediumFileSize  = 100_000
	largeFileSize   = 10_000_000
	randomFileSize  = 1_000_000
)

// Config controls corpus generation parameters.
type Config struct {
	Seed int64
}

// Summary contains statistics about the generated corpus. TotalBytes is
// the ratio denominator for compression reporting, so callers never need
// to re-walk the tree.
type Summary struct {
	FileCount  int
	TotalBytes int64
}

// Generator produces deterministic corpora from a Config.
type Generator struct {
	cfg Config
}

// NewGenerator creates a Generator from the given Config.
func NewGenerator(cfg Config) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = DefaultSeed
	}

	return &Generator{cfg: cfg}
}

// Generate populates dir with the corpus and returns a Summary. The
// caller is responsible for providing a clean directory; existing files
// are overwritten, never skipped.
func (g *Generator) Generate(dir string) (Summary, error) {
	var summary Summary

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return summary, errors.Wrapf(err, "create corpus dir %s", dir)
	}

	write := func(name string, data []byte) error {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return errors.Wrapf(err, "write corpus file %s", name)
		}

		summary.FileCount++
		summary.TotalBytes += int64(len(data))

		return nil
	}

	// Small text files, highly compressible.
	for i := 0; i < smallFileCount; i++ {
		line := fmt.Sprintf("This is test file %d\n", i)
		if err := write(fmt.Sprintf("text_%d.txt", i),
			bytes.Repeat([]byte(line), smallRepeat)); err != nil {
			return summary, err
		}
	}

	// Medium files, each a distinct repeated byte value.
	for i := 0; i < mediumFileCount; i++ {
		if err := write(fmt.Sprintf("medium_%d.dat", i),
			bytes.Repeat([]byte{byte(i % 256)}, mediumFileSize)); err != nil {
			return summary, err
		}
	}

	// One large repetitive file.
	if err := write("large.dat",
		bytes.Repeat([]byte{'X'}, largeFileSize)); err != nil {
		return summary, err
	}

	// One file of seeded pseudo-random bytes, barely compressible.
	rng := mrand.New(mrand.NewSource(g.cfg.Seed))
	random := make([]byte, randomFileSize)
	rng.Read(random)

	if err := write("random.bin", random); err != nil {
		return summary, err
	}

	return summary, nil
}
