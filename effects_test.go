package main

import (
	"math"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEQFilterImpulseResponse(t *testing.T) {
	f := NewEQFilter(1200, 3)

	samples := make([][2]float64, 256)
	samples[0] = [2]float64{1, 1}
	f.ProcessSample(samples)

	// first output sample of an impulse is the b0 tap
	assert.InDelta(t, f.b0, samples[0][0], 1e-12)
	assert.NotZero(t, samples[0][0])
	assert.Equal(t, samples[0][0], samples[0][1])

	var energy float64
	for _, s := range samples {
		require.False(t, math.IsNaN(s[0]))
		require.LessOrEqual(t, math.Abs(s[0]), 4.0, "stable filter, bounded response")
		energy += s[0] * s[0]
	}
	assert.Greater(t, energy, 0.0)
}

func TestDelayEchoesImpulse(t *testing.T) {
	d := NewDelay(time.Millisecond, 0.5)
	n := beep.SampleRate(sampleRate).N(time.Millisecond)

	samples := make([][2]float64, n*3)
	samples[0] = [2]float64{1, 1}
	d.ProcessSample(samples)

	// the echo buffer starts silent so the impulse passes unchanged
	assert.Equal(t, 1.0, samples[0][0])
	assert.Equal(t, 0.5, samples[n][0], "first echo one delay period later")
	assert.Equal(t, 0.25, samples[2*n][0], "each echo decays again")
}
