package main

import "github.com/whyrusleeping/polysynth/engine"

const sampleRate = 44100

// defaultProgram builds the patch the host boots with: two detuned
// oscillators, ADSR gain, vibrato and tremolo routes wired up with zero
// amount so knobs and the repl can dial them in live.
func defaultProgram() *engine.Program[float64] {
	p := engine.NewProgram[float64]()

	add := func(id string, min, max, init float64) engine.ParamRef {
		return p.AddParam(id, engine.Values[float64]{
			Min:        min,
			Max:        max,
			Origin:     min,
			Resolution: (max - min) / 128,
			Initial:    init,
		})
	}

	vol := add(engine.ParamVolume, 0, 1, 0.8)
	pitch := add(engine.ParamPitch, -24, 24, 0)
	add(engine.ParamWave1, 0, 3, 1) // saw
	add(engine.ParamWave2, 0, 3, 2) // square
	add(engine.ParamOsc1Amp, 0, 1, 0.6)
	add(engine.ParamOsc2Amp, 0, 1, 0.4)
	add(engine.ParamOsc2Detune, -12, 12, 0.08)
	add(engine.ParamAttack, 0, 2, 0.01)
	add(engine.ParamDecay, 0, 2, 0.1)
	add(engine.ParamSustain, 0, 1, 0.7)
	add(engine.ParamRelease, 0, 2, 0.25)

	p.AddSource(engine.SourceVelocity)
	lfo1 := p.AddSource(engine.SourceLFO1)
	lfo2 := p.AddSource(engine.SourceLFO2)

	p.Connect(lfo1, pitch, 0)
	p.Connect(lfo2, vol, 0)

	return p
}
