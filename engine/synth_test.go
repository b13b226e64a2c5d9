package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSynth(t *testing.T) (*Synth[float64], *Queue[float64]) {
	t.Helper()
	q := NewQueue[float64](64)
	prog := testProgram()
	return New(testRate, q, prog, nil), q
}

func push(t *testing.T, q *Queue[float64], msg Message[float64]) {
	t.Helper()
	require.True(t, q.Push(Event[float64]{Msg: msg}))
}

// checkInvariant asserts that the active and free lists are disjoint and
// together cover exactly [0, MaxVoices).
func checkInvariant(t *testing.T, s *Synth[float64]) {
	t.Helper()
	seen := make(map[int]int)
	for i := 0; i < s.active.n; i++ {
		seen[s.active.idx[i]]++
	}
	for i := 0; i < s.free.n; i++ {
		seen[s.free.idx[i]]++
	}
	require.Len(t, seen, MaxVoices)
	for idx, count := range seen {
		require.Equal(t, 1, count, "voice index %d appears %d times", idx, count)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, MaxVoices)
	}
}

func TestNoteOnAllocatesOneVoice(t *testing.T) {
	s, q := newTestSynth(t)
	checkInvariant(t, s)

	push(t, q, NoteOnMsg[float64](60, 0.8))
	s.Prepare()

	assert.Equal(t, 1, s.ActiveVoices())
	assert.Equal(t, MaxVoices-1, s.FreeVoices())
	checkInvariant(t, s)

	v := &s.voices[s.active.idx[0]]
	assert.Equal(t, uint8(60), v.Key(s.program))
	assert.Equal(t, 0.8, v.velocity)
	assert.False(t, v.IsOff(s.program))
}

func TestNoteOnExhaustedPoolDropsNote(t *testing.T) {
	s, q := newTestSynth(t)

	for i := 0; i <= MaxVoices; i++ {
		push(t, q, NoteOnMsg[float64](uint8(60+i), 1))
	}
	s.Prepare()

	assert.Equal(t, MaxVoices, s.ActiveVoices())
	assert.Equal(t, 0, s.FreeVoices())
	assert.Equal(t, uint64(1), s.Stats().NotesDropped)
	checkInvariant(t, s)

	// the dropped key never landed on any voice
	for i := range s.voices {
		assert.NotEqual(t, uint8(60+MaxVoices), s.voices[i].Key(s.program))
	}
}

func TestFreeListIsLIFOFromVoiceZero(t *testing.T) {
	s, q := newTestSynth(t)

	// the free stack is seeded so the first allocation takes index 0
	push(t, q, NoteOnMsg[float64](60, 1))
	push(t, q, NoteOnMsg[float64](62, 1))
	s.Prepare()

	assert.Equal(t, 0, s.active.idx[0])
	assert.Equal(t, 1, s.active.idx[1])
}

func TestNoteOffReleasesEveryMatchingVoice(t *testing.T) {
	s, q := newTestSynth(t)

	// the same key stacked twice, plus a bystander
	push(t, q, NoteOnMsg[float64](60, 1))
	push(t, q, NoteOnMsg[float64](60, 1))
	push(t, q, NoteOnMsg[float64](64, 1))
	s.Prepare()
	require.Equal(t, 3, s.ActiveVoices())

	push(t, q, NoteOffMsg[float64](60, 0))
	s.Prepare()

	var releasing, sounding int
	for i := 0; i < s.active.n; i++ {
		v := &s.voices[s.active.idx[i]]
		switch {
		case v.stage == envRelease:
			releasing++
			assert.Equal(t, uint8(60), v.key)
		default:
			sounding++
			assert.Equal(t, uint8(64), v.key)
		}
	}
	assert.Equal(t, 2, releasing)
	assert.Equal(t, 1, sounding)
}

func TestFinishedVoiceIsRecycledAndReused(t *testing.T) {
	s, q := newTestSynth(t)

	push(t, q, NoteOnMsg[float64](60, 1))
	s.Prepare()
	first := s.active.idx[0]

	push(t, q, NoteOffMsg[float64](60, 0))
	s.Prepare()

	for i := 0; i < 44100 && s.ActiveVoices() > 0; i++ {
		s.Process()
	}
	require.Equal(t, 0, s.ActiveVoices())
	assert.Equal(t, MaxVoices, s.FreeVoices())
	assert.Equal(t, uint64(1), s.Stats().VoicesRecycled)
	checkInvariant(t, s)

	// LIFO free list: the recycled index is first in line for reuse
	push(t, q, NoteOnMsg[float64](72, 1))
	s.Prepare()
	assert.Equal(t, first, s.active.idx[0])
}

func TestParamSetIsUnclamped(t *testing.T) {
	s, q := newTestSynth(t)
	ref, ok := s.program.ParamByID(ParamVolume)
	require.True(t, ok)

	push(t, q, ParamMsg(ref, 0.7))
	s.Prepare()
	assert.Equal(t, 0.7, s.program.Param(ref).Signal.Get())

	// direct sets bypass the range on purpose
	push(t, q, ParamMsg(ref, 1.5))
	s.Prepare()
	assert.Equal(t, 1.5, s.program.Param(ref).Signal.Get())
}

func TestParamChangeClamps(t *testing.T) {
	s, q := newTestSynth(t)
	ref, ok := s.program.ParamByID(ParamVolume)
	require.True(t, ok)
	s.program.Param(ref).Signal.Set(0.9)

	push(t, q, ParamChangeMsg(ref, 0.5))
	s.Prepare()
	assert.Equal(t, 1.0, s.program.Param(ref).Signal.Get())

	push(t, q, ParamChangeMsg(ref, -2.5))
	s.Prepare()
	assert.Equal(t, 0.0, s.program.Param(ref).Signal.Get())
}

func TestUnresolvedRefsAreSilentNoops(t *testing.T) {
	s, q := newTestSynth(t)

	push(t, q, ParamMsg(ParamRef(99), 0.7))
	push(t, q, ParamChangeMsg(ParamRef(-5), 0.1))
	push(t, q, ModAmountMsg(ParamRef(99), SourceRef(99), 0.1))
	s.Prepare()

	assert.Equal(t, uint64(3), s.Stats().Events)
	checkInvariant(t, s)
}

func TestModAmountRewritesOnlyExistingSlot(t *testing.T) {
	q := NewQueue[float64](16)
	prog := testProgram()
	vol, _ := prog.ParamByID(ParamVolume)
	pitch, _ := prog.ParamByID(ParamPitch)
	lfo1, _ := prog.SourceByID(SourceLFO1)
	lfo2, _ := prog.SourceByID(SourceLFO2)
	prog.Connect(lfo1, vol, 0.1)
	prog.Connect(lfo2, vol, 0.3)
	s := New(testRate, q, prog, nil)

	require.True(t, q.Push(Event[float64]{Msg: ModAmountMsg(vol, lfo1, 0.9)}))
	s.Prepare()
	assert.Equal(t, 0.9, prog.Param(vol).Modulators[0].Amount)
	assert.Equal(t, 0.3, prog.Param(vol).Modulators[1].Amount, "other slots untouched")

	// no slot for (lfo1, pitch): dropped, nothing is created
	require.True(t, q.Push(Event[float64]{Msg: ModAmountMsg(pitch, lfo1, 0.5)}))
	s.Prepare()
	assert.Empty(t, prog.Param(pitch).Modulators)
	assert.Equal(t, 0.9, prog.Param(vol).Modulators[0].Amount)
}

func TestProcessMixesActiveVoices(t *testing.T) {
	s, q := newTestSynth(t)

	push(t, q, NoteOnMsg[float64](60, 1))
	push(t, q, NoteOnMsg[float64](67, 1))
	s.Prepare()

	var heard bool
	for i := 0; i < 500; i++ {
		l, r := s.Process()
		assert.Equal(t, l, r)
		if l != 0 {
			heard = true
		}
	}
	assert.True(t, heard)
}

func TestProcessUpdatesParamsWithNoActiveVoices(t *testing.T) {
	s, q := newTestSynth(t)
	ref, _ := s.program.ParamByID(ParamVolume)
	s.program.Param(ref).Signal.smoothed = 0

	push(t, q, ParamMsg(ref, 1.0))
	s.Prepare()
	require.Equal(t, 0, s.ActiveVoices())

	before := s.program.Param(ref).Signal.Smoothed()
	s.Process()
	after := s.program.Param(ref).Signal.Smoothed()
	assert.Greater(t, after, before, "smoothing advances even when silent")
}

func TestInvariantUnderChurn(t *testing.T) {
	s, q := newTestSynth(t)

	keys := []uint8{60, 62, 64, 65, 67, 69, 71, 72}
	for round := 0; round < 50; round++ {
		for _, k := range keys {
			push(t, q, NoteOnMsg[float64](k, 1))
		}
		s.Prepare()
		for i := 0; i < 64; i++ {
			s.Process()
		}
		for _, k := range keys[:len(keys)/2] {
			push(t, q, NoteOffMsg[float64](k, 0))
		}
		s.Prepare()
		for i := 0; i < 256; i++ {
			s.Process()
		}
		checkInvariant(t, s)
	}
}

func BenchmarkSynthProcess(b *testing.B) {
	q := NewQueue[float64](64)
	prog := testProgram()
	s := New(testRate, q, prog, nil)
	// held notes keep the pool busy for the whole run
	for i := 0; i < 8; i++ {
		q.Push(Event[float64]{Msg: NoteOnMsg[float64](uint8(48+i), 1)})
	}
	s.Prepare()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Process()
	}
}

func BenchmarkPrepare(b *testing.B) {
	q := NewQueue[float64](256)
	prog := testProgram()
	vol, _ := prog.ParamByID(ParamVolume)
	s := New(testRate, q, prog, nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Push(Event[float64]{Msg: ParamMsg(vol, 0.5)})
		q.Push(Event[float64]{Msg: ParamChangeMsg(vol, 0.01)})
		s.Prepare()
	}
}
