// Package report formats benchmark and compatibility results into the
// comparison output written to stdout.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/weiihann/bindlebench/bench"
	"github.com/weiihann/bindlebench/compat"
)

const tableWidth = 90

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatSize renders a byte count with binary (1024-based) unit
// auto-scaling and one decimal place. Each division step truncates
// rather than rounds.
func FormatSize(n int64) string {
	for _, unit := range sizeUnits {
		if n < 1024 {
			return fmt.Sprintf("%.1f %s", float64(n), unit)
		}

		n /= 1024
	}

	return fmt.Sprintf("%.1f TB", float64(n))
}

// FormatDuration renders a duration with unit auto-scaling: below a
// millisecond in microseconds, below a second in milliseconds, otherwise
// in seconds.
func FormatDuration(d time.Duration) string {
	s := d.Seconds()

	switch {
	case s < 0.001:
		return fmt.Sprintf("%.1f µs", s*1e6)
	case s < 1:
		return fmt.Sprintf("%.1f ms", s*1e3)
	default:
		return fmt.Sprintf("%.3f s", s)
	}
}

// FormatRatio renders archive size over corpus size as a percentage with
// one decimal.
func FormatRatio(size, total int64) string {
	if total == 0 {
		return "0.0%"
	}

	return fmt.Sprintf("%.1f%%", float64(size)/float64(total)*100)
}

// Render writes the fixed-column comparison table. Failed formats render
// a FAILED marker in place of the numeric columns.
func Render(w io.Writer, results []bench.Result, corpusFiles int, corpusSize int64) error {
	if len(results) == 0 {
		return errors.New("no results to report")
	}

	rule := strings.Repeat("=", tableWidth)

	fmt.Fprintf(w, "Test dataset: %d files, %s\n\n", corpusFiles, FormatSize(corpusSize))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-22s %-15s %-15s %-15s %10s\n",
		"Format", "Pack Time", "Size", "Unpack Time", "Ratio")
	fmt.Fprintln(w, rule)

	for _, r := range results {
		if r.Failed {
			fmt.Fprintf(w, "%-22s FAILED\n", r.Format)

			continue
		}

		fmt.Fprintf(w, "%-22s %-15s %-15s %-15s %10s\n",
			r.Format,
			FormatDuration(r.PackTime),
			FormatSize(r.ArchiveSize),
			FormatDuration(r.UnpackTime),
			FormatRatio(r.ArchiveSize, corpusSize),
		)
	}

	fmt.Fprintln(w, rule)

	return nil
}

// WriteJSON writes results as indented JSON to w.
func WriteJSON(w io.Writer, results []bench.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(results)
}

// RenderCompat writes one line per compatibility phase, with the
// expected and actual digests on failure.
func RenderCompat(w io.Writer, outcomes []compat.Outcome) {
	for _, o := range outcomes {
		if o.Passed {
			fmt.Fprintf(w, "PASS  %s\n", o.Phase)

			continue
		}

		fmt.Fprintf(w, "FAIL  %s\n", o.Phase)

		if o.Expected != "" {
			fmt.Fprintf(w, "      expected digest %s\n", o.Expected)
			fmt.Fprintf(w, "      actual digest   %s\n", o.Actual)
		}

		if o.Detail != "" {
			fmt.Fprintf(w, "      %s\n", o.Detail)
		}
	}
}
