package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 44100.0

// testProgram is the patch used across the engine tests: stock voice
// params with very short envelope times so lifecycle tests stay fast.
func testProgram() *Program[float64] {
	p := NewProgram[float64]()
	p.AddParam(ParamVolume, Values[float64]{Min: 0, Max: 1, Initial: 1})
	p.AddParam(ParamPitch, Values[float64]{Min: -24, Max: 24, Initial: 0})
	p.AddParam(ParamWave1, Values[float64]{Min: 0, Max: 3, Initial: 0})
	p.AddParam(ParamWave2, Values[float64]{Min: 0, Max: 3, Initial: 1})
	p.AddParam(ParamOsc1Amp, Values[float64]{Min: 0, Max: 1, Initial: 1})
	p.AddParam(ParamOsc2Amp, Values[float64]{Min: 0, Max: 1, Initial: 0})
	p.AddParam(ParamOsc2Detune, Values[float64]{Min: -12, Max: 12, Initial: 0})
	p.AddParam(ParamAttack, Values[float64]{Min: 0, Max: 2, Initial: 0.0005})
	p.AddParam(ParamDecay, Values[float64]{Min: 0, Max: 2, Initial: 0.0005})
	p.AddParam(ParamSustain, Values[float64]{Min: 0, Max: 1, Initial: 0.5})
	p.AddParam(ParamRelease, Values[float64]{Min: 0, Max: 2, Initial: 0.0005})
	p.AddSource(SourceVelocity)
	p.AddSource(SourceLFO1)
	p.AddSource(SourceLFO2)
	return p
}

func TestVoiceLifecycle(t *testing.T) {
	prog := testProgram()
	v := NewVoice(testRate, prog)

	assert.True(t, v.IsOff(prog), "a fresh voice starts off")

	v.NoteOn(prog, 69, 1)
	assert.False(t, v.IsOff(prog))
	assert.Equal(t, uint8(69), v.Key(prog))

	var heard bool
	for i := 0; i < 200; i++ {
		v.Process(prog, nil)
		l, r := v.Output(prog)
		assert.Equal(t, l, r)
		if l != 0 {
			heard = true
		}
	}
	require.True(t, heard, "an active voice must produce output")

	v.NoteOff(prog)
	for i := 0; i < 44100 && !v.IsOff(prog); i++ {
		v.Process(prog, nil)
	}
	assert.True(t, v.IsOff(prog), "release must decay to off")

	l, r := v.Output(prog)
	assert.Zero(t, l)
	assert.Zero(t, r)
}

func TestVoiceNoteOffBeforeProcess(t *testing.T) {
	prog := testProgram()
	v := NewVoice(testRate, prog)

	// note off on an idle voice stays idle
	v.NoteOff(prog)
	assert.True(t, v.IsOff(prog))
}

func TestVoiceVelocityScalesOutput(t *testing.T) {
	prog := testProgram()

	peak := func(vel float64) float64 {
		v := NewVoice(testRate, prog)
		v.NoteOn(prog, 69, vel)
		var max float64
		for i := 0; i < 500; i++ {
			v.Process(prog, nil)
			l, _ := v.Output(prog)
			if l > max {
				max = l
			}
		}
		return max
	}

	loud := peak(1)
	quiet := peak(0.25)
	require.Greater(t, loud, 0.0)
	assert.Less(t, quiet, loud)
}

func TestVoiceModulatorRaisesGain(t *testing.T) {
	peak := func(connect bool) float64 {
		prog := testProgram()
		vol, ok := prog.ParamByID(ParamVolume)
		require.True(t, ok)
		prog.Param(vol).Signal.Set(0.2)
		prog.Param(vol).Signal.smoothed = 0.2
		if connect {
			vel, ok := prog.SourceByID(SourceVelocity)
			require.True(t, ok)
			prog.Connect(vel, vol, 0.5)
		}

		v := NewVoice(testRate, prog)
		v.NoteOn(prog, 69, 1)
		var max float64
		for i := 0; i < 500; i++ {
			v.Process(prog, nil)
			l, _ := v.Output(prog)
			if l > max {
				max = l
			}
		}
		return max
	}

	plain := peak(false)
	modulated := peak(true)
	require.Greater(t, plain, 0.0)
	// velocity 1 through a 0.5 amount slot adds half the range on top of
	// the 0.2 base gain
	assert.Greater(t, modulated, plain*2)
}
