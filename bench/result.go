package bench

import "time"

// Result holds the aggregated measurements for one archive format.
// It is created once, after all repetitions for the format complete, and
// is immutable thereafter.
type Result struct {
	Format      string        `json:"format"`
	PackTime    time.Duration `json:"pack_time_ns"`
	ArchiveSize int64         `json:"archive_size_bytes"`
	UnpackTime  time.Duration `json:"unpack_time_ns"`
	Failed      bool          `json:"failed"`
	Reason      string        `json:"reason,omitempty"`
}

// Ratio returns the archive size as a fraction of the corpus size.
func (r Result) Ratio(corpusSize int64) float64 {
	if corpusSize == 0 {
		return 0
	}

	return float64(r.ArchiveSize) / float64(corpusSize)
}
