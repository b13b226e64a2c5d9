package engine

import "math"

// Param and source IDs the stock voice chain looks up in the program.
// Patches are free to define more; these are the ones a Voice reads.
const (
	ParamVolume     = "volume"
	ParamPitch      = "pitch"
	ParamWave1      = "wave1"
	ParamWave2      = "wave2"
	ParamOsc1Amp    = "osc1_amp"
	ParamOsc2Amp    = "osc2_amp"
	ParamOsc2Detune = "osc2_detune"
	ParamAttack     = "attack"
	ParamDecay      = "decay"
	ParamSustain    = "sustain"
	ParamRelease    = "release"

	SourceVelocity = "velocity"
	SourceLFO1     = "lfo1"
	SourceLFO2     = "lfo2"
)

type envStage uint8

const (
	envIdle envStage = iota
	envAttack
	envDecay
	envSustain
	envRelease
)

type voiceRefs struct {
	volume  ParamRef
	pitch   ParamRef
	wave1   ParamRef
	wave2   ParamRef
	amp1    ParamRef
	amp2    ParamRef
	detune  ParamRef
	attack  ParamRef
	decay   ParamRef
	sustain ParamRef
	release ParamRef

	velocity SourceRef
}

// Voice is one polyphonic note: two oscillators into an ADSR gain stage,
// pitch and volume modulated through the program's routing tables. It
// owns all of its DSP state; Program and Globals come in by pointer on
// every call and its table refs are resolved once at construction so the
// per-sample path does no lookups by name and no allocation.
type Voice[F Float] struct {
	sampleRate F
	key        uint8
	velocity   F
	phase1     F
	phase2     F
	stage      envStage
	level      F
	out        F
	refs       voiceRefs
}

func NewVoice[F Float](sampleRate F, prog *Program[F]) Voice[F] {
	v := Voice[F]{sampleRate: sampleRate}
	v.init(sampleRate, prog)
	return v
}

func (v *Voice[F]) init(sampleRate F, prog *Program[F]) {
	v.sampleRate = sampleRate
	v.stage = envIdle
	r := &v.refs
	r.volume = refOrInvalid(prog, ParamVolume)
	r.pitch = refOrInvalid(prog, ParamPitch)
	r.wave1 = refOrInvalid(prog, ParamWave1)
	r.wave2 = refOrInvalid(prog, ParamWave2)
	r.amp1 = refOrInvalid(prog, ParamOsc1Amp)
	r.amp2 = refOrInvalid(prog, ParamOsc2Amp)
	r.detune = refOrInvalid(prog, ParamOsc2Detune)
	r.attack = refOrInvalid(prog, ParamAttack)
	r.decay = refOrInvalid(prog, ParamDecay)
	r.sustain = refOrInvalid(prog, ParamSustain)
	r.release = refOrInvalid(prog, ParamRelease)
	if sref, ok := prog.SourceByID(SourceVelocity); ok {
		r.velocity = sref
	} else {
		r.velocity = InvalidRef
	}
}

func refOrInvalid[F Float](prog *Program[F], id string) ParamRef {
	if ref, ok := prog.ParamByID(id); ok {
		return ref
	}
	return InvalidRef
}

func (v *Voice[F]) NoteOn(prog *Program[F], key uint8, velocity F) {
	v.key = key
	v.velocity = velocity
	v.phase1 = 0
	v.phase2 = 0
	v.stage = envAttack
	// level is deliberately not reset so a recycled voice retriggers
	// from wherever its envelope left off, without a click
}

func (v *Voice[F]) NoteOff(prog *Program[F]) {
	if v.stage != envIdle {
		v.stage = envRelease
	}
}

func (v *Voice[F]) Key(prog *Program[F]) uint8 {
	return v.key
}

func (v *Voice[F]) IsOff(prog *Program[F]) bool {
	return v.stage == envIdle
}

// Process advances the voice one sample.
func (v *Voice[F]) Process(prog *Program[F], g *Globals[F]) {
	if v.stage == envIdle {
		v.out = 0
		return
	}

	v.updateEnvelope(prog, g)

	pitch := v.paramValue(prog, g, v.refs.pitch, 0)
	freq := noteToFreq[F](v.key) * pow2(pitch/12)

	s := v.osc(prog, g, v.refs.wave1, &v.phase1, freq) * v.paramValue(prog, g, v.refs.amp1, 1)
	if v.refs.wave2 != InvalidRef {
		detune := v.paramValue(prog, g, v.refs.detune, 0)
		s += v.osc(prog, g, v.refs.wave2, &v.phase2, freq*pow2(detune/12)) * v.paramValue(prog, g, v.refs.amp2, 0)
	}

	vol := v.paramValue(prog, g, v.refs.volume, 1)
	v.out = s * v.level * vol * v.velocity
}

// Output reads the last processed sample. Voices are mono into the mix;
// the stereo field comes from host effects downstream.
func (v *Voice[F]) Output(prog *Program[F]) (F, F) {
	return v.out, v.out
}

func (v *Voice[F]) osc(prog *Program[F], g *Globals[F], wave ParamRef, phase *F, freq F) F {
	*phase += freq / v.sampleRate
	if *phase >= 1 {
		*phase -= F(int(*phase))
	}
	switch int(v.paramValue(prog, g, wave, 0)) {
	case 1: // saw
		return 2*(*phase) - 1
	case 2: // square
		if *phase < 0.5 {
			return 1
		}
		return -1
	case 3: // triangle
		return F(math.Abs(float64(4*(*phase)-2))) - 1
	default: // sine
		return sin(2 * F(math.Pi) * *phase)
	}
}

func (v *Voice[F]) updateEnvelope(prog *Program[F], g *Globals[F]) {
	sustain := v.paramValue(prog, g, v.refs.sustain, 0.8)
	switch v.stage {
	case envAttack:
		v.level += v.envRate(prog, g, v.refs.attack)
		if v.level >= 1 {
			v.level = 1
			v.stage = envDecay
		}
	case envDecay:
		v.level -= v.envRate(prog, g, v.refs.decay)
		if v.level <= sustain {
			v.level = sustain
			v.stage = envSustain
		}
	case envSustain:
		v.level = sustain
	case envRelease:
		v.level -= v.envRate(prog, g, v.refs.release)
		if v.level <= 0 {
			v.level = 0
			v.stage = envIdle
		}
	}
}

// envRate converts a time param in seconds to a per-sample level delta.
func (v *Voice[F]) envRate(prog *Program[F], g *Globals[F], ref ParamRef) F {
	secs := v.paramValue(prog, g, ref, 0.01)
	n := secs * v.sampleRate
	if n < 1 {
		n = 1
	}
	return 1 / n
}

// paramValue reads a param's smoothed value plus all of its modulator
// contributions, clamped to the param's range.
func (v *Voice[F]) paramValue(prog *Program[F], g *Globals[F], ref ParamRef, fallback F) F {
	p := prog.Param(ref)
	if p == nil {
		return fallback
	}
	out := p.Signal.Smoothed()
	for i := range p.Modulators {
		m := &p.Modulators[i]
		out += m.Amount * v.sourceValue(g, m.Source)
	}
	return clamp(out, p.Values.Min, p.Values.Max)
}

func (v *Voice[F]) sourceValue(g *Globals[F], ref SourceRef) F {
	if ref != InvalidRef && ref == v.refs.velocity {
		return v.velocity
	}
	if g == nil {
		return 0
	}
	return g.Value(ref)
}
