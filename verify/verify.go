// Package verify compares a source tree against an extracted tree. It is
// a full correctness oracle, not a sampling check: every regular file is
// compared byte for byte on every call.
package verify

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
)

// Kind classifies the first divergence a verification found.
type Kind int

const (
	Pass Kind = iota
	MissingFile
	CountMismatch
	SizeMismatch
	ContentMismatch
)

func (k Kind) String() string {
	switch k {
	case Pass:
		return "pass"
	case MissingFile:
		return "missing file"
	case CountMismatch:
		return "file count mismatch"
	case SizeMismatch:
		return "size mismatch"
	case ContentMismatch:
		return "content mismatch"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Report describes the outcome of one verification. Checks short-circuit,
// so at most one divergence is populated; Path is set for the per-file
// kinds, the counts and sizes for their respective kinds.
type Report struct {
	Kind     Kind
	Path     string
	SrcCount int
	DstCount int
	SrcSize  int64
	DstSize  int64
}

// OK reports whether the trees matched.
func (r Report) OK() bool { return r.Kind == Pass }

func (r Report) String() string {
	switch r.Kind {
	case Pass:
		return "pass"
	case MissingFile:
		return fmt.Sprintf("missing file: %s", r.Path)
	case CountMismatch:
		return fmt.Sprintf("file count mismatch: source has %d, extracted has %d",
			r.SrcCount, r.DstCount)
	case SizeMismatch:
		return fmt.Sprintf("size mismatch for %s: source %d bytes, extracted %d bytes",
			r.Path, r.SrcSize, r.DstSize)
	case ContentMismatch:
		return fmt.Sprintf("content mismatch for %s", r.Path)
	default:
		return r.Kind.String()
	}
}

// Tree verifies that destDir contains exactly the regular files of
// srcDir with identical content. Checks run in a fixed order with paths
// visited in sorted order, so the reported cause is deterministic: a
// file present in the source but absent from the extraction is always
// named as missing, before the counts are compared. The error return is
// for I/O faults while walking or reading, never for tree divergence.
func Tree(srcDir, destDir string) (Report, error) {
	src, err := snapshot(srcDir)
	if err != nil {
		return Report{}, errors.Wrapf(err, "walk source tree %s", srcDir)
	}

	dst, err := snapshot(destDir)
	if err != nil {
		return Report{}, errors.Wrapf(err, "walk extracted tree %s", destDir)
	}

	paths := make([]string, 0, len(src))
	for p := range src {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if _, ok := dst[p]; !ok {
			return Report{Kind: MissingFile, Path: p}, nil
		}
	}

	if len(src) != len(dst) {
		return Report{
			Kind:     CountMismatch,
			SrcCount: len(src),
			DstCount: len(dst),
		}, nil
	}

	for _, p := range paths {
		if src[p] != dst[p] {
			return Report{
				Kind:    SizeMismatch,
				Path:    p,
				SrcSize: src[p],
				DstSize: dst[p],
			}, nil
		}
	}

	for _, p := range paths {
		a, err := os.ReadFile(filepath.Join(srcDir, p))
		if err != nil {
			return Report{}, errors.Wrapf(err, "read source file %s", p)
		}

		b, err := os.ReadFile(filepath.Join(destDir, p))
		if err != nil {
			return Report{}, errors.Wrapf(err, "read extracted file %s", p)
		}

		if !bytes.Equal(a, b) {
			return Report{Kind: ContentMismatch, Path: p}, nil
		}
	}

	return Report{Kind: Pass}, nil
}

// snapshot maps each regular file's root-relative path to its size.
// Directories and special entries are excluded.
func snapshot(root string) (map[string]int64, error) {
	files := make(map[string]int64)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		files[filepath.ToSlash(rel)] = info.Size()

		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
