package bench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageDiscardsWarmup(t *testing.T) {
	p := Policy{Repetitions: 4, Discard: 1}

	// A slow cold-cache first repetition must not skew the average.
	samples := []time.Duration{
		10 * time.Second,
		2 * time.Second,
		2 * time.Second,
		2 * time.Second,
	}

	assert.Equal(t, 2*time.Second, p.Average(samples))
}

func TestAverageNoDiscard(t *testing.T) {
	p := Policy{Repetitions: 2, Discard: 0}

	samples := []time.Duration{time.Second, 3 * time.Second}
	assert.Equal(t, 2*time.Second, p.Average(samples))
}

func TestAverageTooFewSamples(t *testing.T) {
	p := Policy{Repetitions: 4, Discard: 2}

	assert.Equal(t, time.Duration(0), p.Average([]time.Duration{time.Second}))
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultPolicy.Validate())
	require.NoError(t, Policy{Repetitions: 1, Discard: 0}.Validate())

	assert.Error(t, Policy{Repetitions: 0, Discard: 0}.Validate())
	assert.Error(t, Policy{Repetitions: 4, Discard: -1}.Validate())
	assert.Error(t, Policy{Repetitions: 4, Discard: 4}.Validate())
}
