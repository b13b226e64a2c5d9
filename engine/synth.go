package engine

// MaxVoices bounds the polyphony. The pool, the index lists and the per
// block work are all sized by it at compile time; nothing on the audio
// thread grows past it.
const MaxVoices = 32

// voiceList is a bounded list of pool indices. active and free voices
// each get one; between them every index in [0, MaxVoices) lives in
// exactly one list at any time.
type voiceList struct {
	idx [MaxVoices]int
	n   int
}

func (l *voiceList) push(i int) {
	l.idx[l.n] = i
	l.n++
}

// pop removes LIFO, so the most recently freed voice is reused first.
func (l *voiceList) pop() (int, bool) {
	if l.n == 0 {
		return 0, false
	}
	l.n--
	return l.idx[l.n], true
}

// swapRemove drops the entry at pos by swapping the last entry into its
// place. O(1), reorders the list; mixing is a sum so order is irrelevant.
func (l *voiceList) swapRemove(pos int) int {
	i := l.idx[pos]
	l.n--
	l.idx[pos] = l.idx[l.n]
	return i
}

func (l *voiceList) len() int {
	return l.n
}

// Counters are bumped on the audio thread and read by the host between
// blocks. Diagnostics go through these instead of printing anywhere near
// the sample loop.
type Counters struct {
	Events         uint64
	NotesStarted   uint64
	NotesDropped   uint64
	VoicesRecycled uint64
}

// Synth drains control events into patch state and mixes the voice pool
// one sample at a time. Everything it does from Prepare through Process
// is allocation free, lock free and bounded: a full pool drops the note,
// a bad ref drops the message, and neither is an error.
type Synth[F Float] struct {
	sampleRate F
	events     EventSource[F]
	program    *Program[F]
	globals    *Globals[F]
	voices     [MaxVoices]Voice[F]
	active     voiceList
	free       voiceList
	counters   Counters
}

func New[F Float](sampleRate F, events EventSource[F], program *Program[F], globals *Globals[F]) *Synth[F] {
	s := &Synth[F]{
		sampleRate: sampleRate,
		events:     events,
		program:    program,
		globals:    globals,
	}
	for i := 0; i < MaxVoices; i++ {
		s.voices[i].init(sampleRate, program)
		// seed the free stack in reverse so voice 0 is allocated first
		s.free.push(MaxVoices - i - 1)
	}
	return s
}

func (s *Synth[F]) Program() *Program[F] {
	return s.program
}

// Prepare drains the event queue to empty, applying every message in
// arrival order. Call it once per block, before processing any samples.
func (s *Synth[F]) Prepare() {
	for {
		ev, ok := s.events.Pop()
		if !ok {
			return
		}
		s.counters.Events++
		msg := ev.Msg
		switch msg.Kind {
		case MsgNoteOn:
			s.noteOn(msg.Key, msg.Velocity)
		case MsgNoteOff:
			s.noteOff(msg.Key, msg.Velocity)
		case MsgParam:
			// direct sets are intentionally unclamped
			if p := s.program.Param(msg.Param); p != nil {
				p.Signal.Set(msg.Value)
			}
		case MsgParamChange:
			if p := s.program.Param(msg.Param); p != nil {
				v := clamp(p.Signal.Get()+msg.Value, p.Values.Min, p.Values.Max)
				p.Signal.Set(v)
			}
		case MsgModAmount:
			if s.program.Source(msg.Source) == nil {
				break
			}
			p := s.program.Param(msg.Param)
			if p == nil {
				break
			}
			// only rewrites an existing slot, never creates one
			for i := range p.Modulators {
				if p.Modulators[i].Source == msg.Source {
					p.Modulators[i].Amount = msg.Value
					break
				}
			}
		}
	}
}

func (s *Synth[F]) noteOn(key uint8, velocity F) {
	index, ok := s.allocateVoice(key, velocity)
	if !ok {
		s.counters.NotesDropped++
		return
	}
	s.active.push(index)
	s.voices[index].NoteOn(s.program, key, velocity)
	s.counters.NotesStarted++
}

// noteOff releases every sounding voice holding the key, not just the
// first: the same key can be stacked across several voices.
func (s *Synth[F]) noteOff(key uint8, velocity F) {
	for i := 0; i < s.active.len(); i++ {
		voice := &s.voices[s.active.idx[i]]
		if voice.Key(s.program) == key {
			voice.NoteOff(s.program)
		}
	}
}

// allocateVoice pops any free slot. No stealing: when the pool is empty
// the note is dropped, key and velocity play no part in selection.
func (s *Synth[F]) allocateVoice(key uint8, velocity F) (int, bool) {
	return s.free.pop()
}

// Process advances every active voice one sample and returns the summed
// stereo pair. Voices that finish their release are recycled in place.
// No clipping or scaling happens here; the host owns the output stage.
func (s *Synth[F]) Process() (F, F) {
	var left, right F

	i := 0
	for i < s.active.len() {
		index := s.active.idx[i]
		voice := &s.voices[index]

		voice.Process(s.program, s.globals)
		l, r := voice.Output(s.program)
		left += l
		right += r

		if voice.IsOff(s.program) {
			s.free.push(s.active.swapRemove(i))
			s.counters.VoicesRecycled++
		} else {
			i++
		}
	}

	s.program.UpdateParams()

	return left, right
}

// ActiveVoices reports how many voices are sounding. Host-side only.
func (s *Synth[F]) ActiveVoices() int {
	return s.active.len()
}

func (s *Synth[F]) FreeVoices() int {
	return s.free.len()
}

// Stats snapshots the counters. Read it from the host between blocks,
// never concurrently with Prepare or Process.
func (s *Synth[F]) Stats() Counters {
	return s.counters
}
