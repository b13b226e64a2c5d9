package engine

import "math"

type LFOShape uint8

const (
	LFOSine LFOShape = iota
	LFOTriangle
)

// LFO is a low frequency oscillator shared by every voice.
type LFO[F Float] struct {
	Freq  F
	Shape LFOShape
	phase F
	value F
}

func (l *LFO[F]) update(sampleRate F) {
	l.phase += l.Freq / sampleRate
	if l.phase >= 1 {
		l.phase -= 1
	}
	switch l.Shape {
	case LFOTriangle:
		l.value = F(math.Abs(float64(4*l.phase-2))) - 1
	default:
		l.value = sin(2 * F(math.Pi) * l.phase)
	}
}

// Globals carries cross-voice modulation state. Voices only read it; the
// host advances it one step per sample before calling Synth.Process, so
// the synth itself treats it as immutable.
type Globals[F Float] struct {
	sampleRate F
	lfos       []LFO[F]
	refs       []SourceRef
	values     []F
}

// NewGlobals binds one LFO per listed source ref. Refs that don't resolve
// in the program are still accepted; their values just never reach a
// modulator because Connect refuses unknown sources.
func NewGlobals[F Float](sampleRate F, refs ...SourceRef) *Globals[F] {
	g := &Globals[F]{
		sampleRate: sampleRate,
		lfos:       make([]LFO[F], len(refs)),
		refs:       refs,
	}
	max := SourceRef(0)
	for _, r := range refs {
		if r > max {
			max = r
		}
	}
	g.values = make([]F, int(max)+1)
	for i := range g.lfos {
		g.lfos[i].Freq = 1
	}
	return g
}

func (g *Globals[F]) LFO(i int) *LFO[F] {
	return &g.lfos[i]
}

// Update advances all LFOs one sample.
func (g *Globals[F]) Update() {
	for i := range g.lfos {
		g.lfos[i].update(g.sampleRate)
		r := g.refs[i]
		if r >= 0 && int(r) < len(g.values) {
			g.values[r] = g.lfos[i].value
		}
	}
}

// Value reads the current level of a modulation source, zero for refs
// Globals doesn't own.
func (g *Globals[F]) Value(ref SourceRef) F {
	if ref < 0 || int(ref) >= len(g.values) {
		return 0
	}
	return g.values[ref]
}
