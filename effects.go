package main

import (
	"math"
	"time"

	"github.com/gopxl/beep"
)

// Effect is a post-mix processor. The host runs the chain in place over
// each rendered block, after the engine has summed the voices.
type Effect interface {
	ProcessSample(samples [][2]float64)
}

type Delay struct {
	buf      [][2]float64
	delay    int
	decay    float64
	position int
}

func NewDelay(amount time.Duration, decay float64) *Delay {
	sr := beep.SampleRate(sampleRate)
	n := sr.N(amount)
	return &Delay{
		buf:   make([][2]float64, n*2),
		delay: n,
		decay: decay,
	}
}

func (d *Delay) ProcessSample(samples [][2]float64) {
	for i := range samples {
		samples[i][0] += d.buf[d.position%len(d.buf)][0]
		samples[i][1] += d.buf[d.position%len(d.buf)][1]

		dpos := (d.delay + d.position) % len(d.buf)
		d.buf[dpos][0] = samples[i][0] * d.decay
		d.buf[dpos][1] = samples[i][1] * d.decay

		d.position++
	}
}

type Compressor struct {
	threshold float64
	ratio     float64
	attack    float64
	release   float64
	envelope  float64
}

func NewCompressor(threshold, ratio, attack, release float64) *Compressor {
	return &Compressor{
		threshold: threshold,
		ratio:     ratio,
		attack:    attack,
		release:   release,
	}
}

func (c *Compressor) compressValue(v float64) float64 {
	if math.Abs(v) > c.threshold {
		c.envelope += (math.Abs(v) - c.envelope) * c.attack
	} else {
		c.envelope += (math.Abs(v) - c.envelope) * c.release
	}

	if c.envelope <= c.threshold {
		return v
	}

	reduction := math.Pow(c.threshold/c.envelope, c.ratio)
	return v * reduction
}

func (c *Compressor) ProcessSample(samples [][2]float64) {
	for i := range samples {
		samples[i][0] = c.compressValue(samples[i][0])
		samples[i][1] = c.compressValue(samples[i][1])
	}
}

// EQFilter is a single peaking biquad band.
type EQFilter struct {
	a1, a2     float64
	b0, b1, b2 float64
	x1, x2     float64
	y1, y2     float64
}

func NewEQFilter(frequency, gain float64) *EQFilter {
	w0 := 2 * math.Pi * frequency / sampleRate
	alpha := math.Sin(w0) / (2 * math.Pow(10, gain/40))

	b0 := (1 + math.Cos(w0)) / 2
	b1 := -(1 + math.Cos(w0))
	b2 := (1 + math.Cos(w0)) / 2
	a0 := 1 + alpha
	a1 := -2 * math.Cos(w0)
	a2 := 1 - alpha

	return &EQFilter{
		a1: a1 / a0,
		a2: a2 / a0,
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
	}
}

func (f *EQFilter) ProcessSample(samples [][2]float64) {
	for i := range samples {
		x0 := samples[i][0]
		y0 := f.b0*x0 + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2

		f.x2, f.x1 = f.x1, x0
		f.y2, f.y1 = f.y1, y0

		samples[i][0] = y0
		samples[i][1] = y0
	}
}
