package main

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/rakyll/portmidi"

	"github.com/whyrusleeping/polysynth/engine"
)

// Host owns everything around the engine core: the producer end of the
// event queue, the globals it advances per sample, and the post-mix
// effects chain. Its Stream method is the audio callback — one beep
// Stream call is one block: drain events once, then render per sample.
type Host struct {
	queue   *engine.Queue[float64]
	synth   *engine.Synth[float64]
	globals *engine.Globals[float64]
	program *engine.Program[float64]

	effects []Effect

	log *log.Logger
}

func newHost(logger *log.Logger) *Host {
	prog := defaultProgram()
	queue := engine.NewQueue[float64](256)

	lfo1, _ := prog.SourceByID(engine.SourceLFO1)
	lfo2, _ := prog.SourceByID(engine.SourceLFO2)
	globals := engine.NewGlobals(float64(sampleRate), lfo1, lfo2)
	globals.LFO(0).Freq = 5
	globals.LFO(1).Freq = 2.5
	globals.LFO(1).Shape = engine.LFOTriangle

	return &Host{
		queue:   queue,
		synth:   engine.New(float64(sampleRate), queue, prog, globals),
		globals: globals,
		program: prog,
		effects: []Effect{
			NewEQFilter(1200, 2.5),
			NewDelay(time.Millisecond*120, 0.35),
			NewCompressor(0.6, 0.5, 0.01, 0.001),
		},
		log: logger,
	}
}

func (h *Host) Stream(samples [][2]float64) (int, bool) {
	h.synth.Prepare()
	for i := range samples {
		h.globals.Update()
		l, r := h.synth.Process()
		samples[i][0] = l
		samples[i][1] = r
	}
	for _, e := range h.effects {
		e.ProcessSample(samples)
	}
	return len(samples), true
}

func (h *Host) Err() error {
	return nil
}

// send is the producer side of the queue. Control threads only; a full
// queue drops the message here, the engine never blocks for us.
func (h *Host) send(msg engine.Message[float64]) {
	ev := engine.Event[float64]{Time: time.Now().UnixNano(), Msg: msg}
	if !h.queue.Push(ev) {
		h.log.Warn("event queue full, dropping message", "kind", msg.Kind)
	}
}

func (h *Host) NoteOn(key uint8, velocity float64) {
	h.send(engine.NoteOnMsg(key, velocity))
}

func (h *Host) NoteOff(key uint8) {
	h.send(engine.NoteOffMsg[float64](key, 0))
}

// PlayNote starts a note and hands back the matching stop.
func (h *Host) PlayNote(key uint8, velocity float64) func() {
	h.NoteOn(key, velocity)
	return func() { h.NoteOff(key) }
}

func (h *Host) SetParam(id string, value float64) bool {
	ref, ok := h.program.ParamByID(id)
	if !ok {
		return false
	}
	h.send(engine.ParamMsg(ref, value))
	return true
}

func (h *Host) AdjustParam(id string, delta float64) bool {
	ref, ok := h.program.ParamByID(id)
	if !ok {
		return false
	}
	h.send(engine.ParamChangeMsg(ref, delta))
	return true
}

func (h *Host) SetModAmount(source, param string, amount float64) bool {
	sref, ok := h.program.SourceByID(source)
	if !ok {
		return false
	}
	pref, ok := h.program.ParamByID(param)
	if !ok {
		return false
	}
	h.send(engine.ModAmountMsg(pref, sref, amount))
	return true
}

// Stats snapshots the engine counters. The speaker lock keeps us out of
// the audio callback while we read them.
func (h *Host) Stats() engine.Counters {
	speaker.Lock()
	defer speaker.Unlock()
	return h.synth.Stats()
}

func (h *Host) logStats() {
	c := h.Stats()
	h.log.Info("engine stats",
		"events", c.Events,
		"started", c.NotesStarted,
		"dropped", c.NotesDropped,
		"recycled", c.VoicesRecycled)
}

func startSpeaker(h *Host) error {
	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return err
	}
	speaker.Play(h)
	return nil
}

func playTestNotes(h *Host) {
	if err := startSpeaker(h); err != nil {
		h.log.Fatal("speaker init", "err", err)
	}

	h.SetModAmount(engine.SourceLFO1, engine.ParamPitch, 0.15)

	chord := []uint8{60, 64, 67}
	for _, key := range chord {
		h.NoteOn(key, 0.8)
		time.Sleep(time.Millisecond * 50)
	}
	time.Sleep(time.Second * 2)

	// nudge the patch over the wire while the chord holds
	h.SetParam(engine.ParamOsc2Detune, 0.3)
	h.AdjustParam(engine.ParamVolume, -0.2)
	time.Sleep(time.Second)

	for _, key := range chord {
		h.NoteOff(key)
	}
	time.Sleep(time.Millisecond * 600)

	h.logStats()
}

func runMidi(h *Host) {
	portmidi.Initialize()
	defer portmidi.Terminate()

	if err := startSpeaker(h); err != nil {
		h.log.Fatal("speaker init", "err", err)
	}

	mc, err := OpenController(portmidi.DefaultInputDeviceID(), h)
	if err != nil {
		h.log.Fatal("opening midi input", "err", err)
	}
	defer mc.Shutdown()

	bindDefaultKnobs(mc)

	// periodic engine stats while we block on midi input
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range time.Tick(time.Second * 30) {
			h.logStats()
			for cc, val := range mc.KnobStates() {
				h.log.Info("knob state", "cc", cc, "val", val)
			}
		}
	}()
	wg.Wait()
}

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:  log.InfoLevel,
		Prefix: "polysynth",
	})

	h := newHost(logger)

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "test":
			playTestNotes(h)
			return
		case "draw":
			drawScope(h)
			return
		case "repl":
			if err := startSpeaker(h); err != nil {
				logger.Fatal("speaker init", "err", err)
			}
			runREPL(h, os.Stdin, os.Stdout)
			return
		case "seq":
			if err := startSpeaker(h); err != nil {
				logger.Fatal("speaker init", "err", err)
			}
			runSequence(h)
			return
		}
	}

	runMidi(h)
}
