// Package compat runs the cross-implementation compatibility protocol:
// archives written by one implementation of the bindle format must read
// back byte-identical through the other, with compression enabled.
//
// The oracle is SHA-256 digest equality rather than raw byte comparison,
// keeping failure diagnostics compact and independent of how the entry
// bytes traveled.
package compat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/weiihann/bindlebench/archive"
)

// Phase names, in protocol order.
const (
	PhaseWriteAReadB = "write A, read B"
	PhaseWriteBReadA = "write B, read A"
	PhasePackUnpack  = "pack A, unpack B"
)

const (
	entryContent = "Consistency is the playground of the gods."
	dirContent   = "Cross-language directory packing works!"
)

// Outcome reports one phase of the protocol. Expected and Actual are hex
// SHA-256 digests, populated on digest mismatch; Detail carries any
// non-digest diagnostic, such as a missing unpacked file.
type Outcome struct {
	Phase    string `json:"phase"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// Tester drives the three-phase protocol over two independently built
// implementations of the format.
type Tester struct {
	A, B   *archive.Tool
	Logger *slog.Logger
}

// Run executes the protocol inside scratchDir, which the caller owns and
// reclaims. Phases run in order and the protocol stops after the first
// failing phase: a digest mismatch indicates a format-layout divergence
// that later phases cannot be trusted past. The returned outcomes cover
// every phase that ran. Tool invocation failures are returned as errors,
// never folded into an Outcome.
func (t *Tester) Run(ctx context.Context, scratchDir string) ([]Outcome, error) {
	archivePath := filepath.Join(scratchDir, "compat_test.bndl")

	input := filepath.Join(scratchDir, "input.txt")
	if err := os.WriteFile(input, []byte(entryContent), 0o644); err != nil {
		return nil, errors.Wrap(err, "write input file")
	}

	want := digest([]byte(entryContent))

	var outcomes []Outcome

	// Phase 1: A writes a compressed entry, B must read it back intact.
	if err := t.A.Add(ctx, archivePath, "msg", input, true); err != nil {
		return outcomes, errors.Wrapf(err, "phase %q: add via %s", PhaseWriteAReadB, t.A.Name)
	}

	data, err := t.B.Cat(ctx, archivePath, "msg")
	if err != nil {
		return outcomes, errors.Wrapf(err, "phase %q: cat via %s", PhaseWriteAReadB, t.B.Name)
	}

	out := t.checkDigest(PhaseWriteAReadB, want, data)
	outcomes = append(outcomes, out)
	if !out.Passed {
		return outcomes, nil
	}

	// Phase 2: same archive, roles reversed, distinct entry name.
	if err := t.B.Add(ctx, archivePath, "c_msg", input, true); err != nil {
		return outcomes, errors.Wrapf(err, "phase %q: add via %s", PhaseWriteBReadA, t.B.Name)
	}

	data, err = t.A.Cat(ctx, archivePath, "c_msg")
	if err != nil {
		return outcomes, errors.Wrapf(err, "phase %q: cat via %s", PhaseWriteBReadA, t.A.Name)
	}

	out = t.checkDigest(PhaseWriteBReadA, want, data)
	outcomes = append(outcomes, out)
	if !out.Passed {
		return outcomes, nil
	}

	// Phase 3: full directory round trip across implementations.
	out, err = t.packUnpack(ctx, scratchDir)
	if err != nil {
		return outcomes, err
	}

	outcomes = append(outcomes, out)

	return outcomes, nil
}

func (t *Tester) packUnpack(ctx context.Context, scratchDir string) (Outcome, error) {
	srcDir := filepath.Join(scratchDir, "pack_src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		return Outcome{}, errors.Wrap(err, "create pack source dir")
	}

	if err := os.WriteFile(
		filepath.Join(srcDir, "hello.txt"), []byte(dirContent), 0o644,
	); err != nil {
		return Outcome{}, errors.Wrap(err, "write pack source file")
	}

	archivePath := filepath.Join(scratchDir, "compat_dir.bndl")

	if err := t.A.Pack(ctx, archivePath, srcDir, true); err != nil {
		return Outcome{}, errors.Wrapf(err, "phase %q: pack via %s", PhasePackUnpack, t.A.Name)
	}

	destDir := filepath.Join(scratchDir, "pack_out")
	if err := t.B.Unpack(ctx, archivePath, destDir); err != nil {
		return Outcome{}, errors.Wrapf(err, "phase %q: unpack via %s", PhasePackUnpack, t.B.Name)
	}

	got, err := os.ReadFile(filepath.Join(destDir, "hello.txt"))
	if err != nil {
		if os.IsNotExist(err) {
			return Outcome{
				Phase:  PhasePackUnpack,
				Detail: "hello.txt missing from unpacked directory",
			}, nil
		}

		return Outcome{}, errors.Wrap(err, "read unpacked file")
	}

	return t.checkDigest(PhasePackUnpack, digest([]byte(dirContent)), got), nil
}

func (t *Tester) checkDigest(phase, want string, data []byte) Outcome {
	got := digest(data)

	out := Outcome{
		Phase:    phase,
		Passed:   got == want,
		Expected: want,
		Actual:   got,
	}

	if out.Passed {
		t.Logger.Info("phase passed", slog.String("phase", phase))
	} else {
		t.Logger.Warn("phase failed",
			slog.String("phase", phase),
			slog.String("expected", want),
			slog.String("actual", got),
		)
	}

	return out
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}
