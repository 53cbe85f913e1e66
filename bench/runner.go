package bench

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/weiihann/bindlebench/archive"
	"github.com/weiihann/bindlebench/verify"
)

// Runner benchmarks a set of adapters against one corpus. Execution is
// strictly sequential, one format and one repetition at a time:
// concurrent timing would contend for CPU and I/O and invalidate the
// wall-clock numbers.
type Runner struct {
	Adapters []archive.Adapter
	Policy   Policy

	// Timeout bounds each external operation. Zero means unbounded.
	Timeout time.Duration

	Logger *slog.Logger
}

// Run benchmarks every adapter in order. A failing repetition abandons
// its format with a FAILED result (size 0) and the remaining formats
// still run; fault isolation is per format. The corpus at corpusDir is
// treated as read-only throughout.
func (r *Runner) Run(ctx context.Context, corpusDir string, scratch *Scratch) []Result {
	results := make([]Result, 0, len(r.Adapters))

	for _, a := range r.Adapters {
		res, err := r.runFormat(ctx, a, corpusDir, scratch)
		if err != nil {
			r.Logger.Warn("benchmark failed",
				slog.String("format", a.Name()),
				slog.String("error", err.Error()),
			)

			results = append(results, Result{
				Format: a.Name(),
				Failed: true,
				Reason: err.Error(),
			})

			continue
		}

		results = append(results, res)
	}

	return results
}

func (r *Runner) runFormat(
	ctx context.Context,
	a archive.Adapter,
	corpusDir string,
	scratch *Scratch,
) (Result, error) {
	log := r.Logger.With(slog.String("format", a.Name()))

	packTimes := make([]time.Duration, 0, r.Policy.Repetitions)
	unpackTimes := make([]time.Duration, 0, r.Policy.Repetitions)

	var size int64

	for rep := 0; rep < r.Policy.Repetitions; rep++ {
		// Fresh paths per repetition, so the filesystem cache never
		// serves one repetition's archive or extraction to the next.
		archivePath := scratch.Path(fmt.Sprintf("%s-rep%d%s", a.Name(), rep, a.Ext()))
		destDir := scratch.Path(fmt.Sprintf("extract-%s-rep%d", a.Name(), rep))

		packTime, err := r.create(ctx, a, corpusDir, archivePath)
		if err != nil {
			return Result{}, errors.Wrapf(err, "create (repetition %d)", rep)
		}

		info, err := os.Stat(archivePath)
		if err != nil {
			return Result{}, errors.Wrapf(err, "stat archive %s", archivePath)
		}

		size = info.Size()

		unpackTime, err := r.extract(ctx, a, archivePath, destDir)
		if err != nil {
			return Result{}, errors.Wrapf(err, "extract (repetition %d)", rep)
		}

		// Every repetition is verified; verification never counts
		// toward the timed interval.
		report, err := verify.Tree(corpusDir, destDir)
		if err != nil {
			return Result{}, errors.Wrapf(err, "verify (repetition %d)", rep)
		}
		if !report.OK() {
			return Result{}, errors.Newf(
				"verification failed after extract (repetition %d): %s", rep, report,
			)
		}

		packTimes = append(packTimes, packTime)
		unpackTimes = append(unpackTimes, unpackTime)

		log.Info("repetition complete",
			slog.Int("repetition", rep),
			slog.Duration("pack", packTime),
			slog.Duration("unpack", unpackTime),
			slog.Int64("size", size),
		)
	}

	return Result{
		Format:      a.Name(),
		PackTime:    r.Policy.Average(packTimes),
		UnpackTime:  r.Policy.Average(unpackTimes),
		ArchiveSize: size,
	}, nil
}

func (r *Runner) create(
	ctx context.Context,
	a archive.Adapter,
	srcDir, archivePath string,
) (time.Duration, error) {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	return a.Create(opCtx, srcDir, archivePath)
}

func (r *Runner) extract(
	ctx context.Context,
	a archive.Adapter,
	archivePath, destDir string,
) (time.Duration, error) {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	return a.Extract(opCtx, archivePath, destDir)
}

func (r *Runner) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout > 0 {
		return context.WithTimeout(ctx, r.Timeout)
	}

	return context.WithCancel(ctx)
}
