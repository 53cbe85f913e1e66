// Package bench drives archive adapters through repeated timed
// create/extract/verify cycles and aggregates the timings.
package bench

import (
	"time"

	"github.com/cockroachdb/errors"
)

// Policy is the trimmed-aggregation rule for repeated timings: run
// Repetitions cycles, discard the first Discard of them as filesystem and
// process warm-up, and average the rest.
type Policy struct {
	Repetitions int `yaml:"repetitions"`
	Discard     int `yaml:"discard"`
}

// DefaultPolicy runs four repetitions and discards the first.
var DefaultPolicy = Policy{Repetitions: 4, Discard: 1}

// Validate checks that the policy leaves at least one repetition to
// average.
func (p Policy) Validate() error {
	if p.Repetitions < 1 {
		return errors.Newf("repetitions must be at least 1, got %d", p.Repetitions)
	}
	if p.Discard < 0 {
		return errors.Newf("discard must not be negative, got %d", p.Discard)
	}
	if p.Discard >= p.Repetitions {
		return errors.Newf("discarding %d of %d repetitions leaves nothing to average",
			p.Discard, p.Repetitions)
	}

	return nil
}

// Average returns the mean of the post-warm-up samples. samples must
// hold one entry per repetition, in execution order.
func (p Policy) Average(samples []time.Duration) time.Duration {
	if p.Discard >= len(samples) {
		return 0
	}

	kept := samples[p.Discard:]

	var total time.Duration
	for _, s := range kept {
		total += s
	}

	return total / time.Duration(len(kept))
}
