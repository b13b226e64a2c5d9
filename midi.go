package main

import (
	"math"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/rakyll/portmidi"

	"github.com/whyrusleeping/polysynth/engine"
)

// MidiController is the control-thread producer: it turns raw portmidi
// events into engine messages on the host's queue. All logging happens
// here, far away from the audio callback.
type MidiController struct {
	host *Host

	stream *portmidi.Stream

	lk        sync.Mutex
	knobsSeen map[int64]*knobInfo
	knobBinds map[int64]*knobBind

	log *log.Logger
}

// knobBind maps a controller value (0-127) into a message for the queue.
type knobBind struct {
	mapf func(int64) float64
	send func(float64)
}

func (kb *knobBind) Update(val int64) {
	kb.send(kb.mapf(val))
}

type knobInfo struct {
	lastVal int64
}

func OpenController(id portmidi.DeviceID, h *Host) (*MidiController, error) {
	in, err := portmidi.NewInputStream(id, 1024)
	if err != nil {
		return nil, err
	}

	mc := &MidiController{
		host:      h,
		stream:    in,
		knobsSeen: make(map[int64]*knobInfo),
		knobBinds: make(map[int64]*knobBind),
		log: log.NewWithOptions(os.Stderr, log.Options{
			Level:  log.InfoLevel,
			Prefix: "midi",
		}),
	}

	go mc.run()

	return mc, nil
}

func (mc *MidiController) Shutdown() {
	mc.stream.Close()
}

func (mc *MidiController) run() {
	for {
		events, err := mc.stream.Read(1024)
		if err != nil {
			mc.log.Error("midi read", "err", err)
			return
		}

		for _, event := range events {
			mc.handleEvent(event)
		}
	}
}

func (mc *MidiController) handleEvent(event portmidi.Event) {
	switch event.Status {
	case 0x90:
		key := uint8(event.Data1)
		vel := float64(event.Data2) / 127
		if vel == 0 {
			// running status note off
			mc.host.NoteOff(key)
			return
		}
		mc.host.NoteOn(key, vel)
	case 0x80:
		mc.host.NoteOff(uint8(event.Data1))
	case 0xb0:
		// twisty knobs
		mc.lk.Lock()
		ki, ok := mc.knobsSeen[event.Data1]
		if !ok {
			ki = &knobInfo{}
			mc.knobsSeen[event.Data1] = ki
			mc.log.Info("new knob", "cc", event.Data1)
		}
		ki.lastVal = event.Data2
		kb := mc.knobBinds[event.Data1]
		mc.lk.Unlock()

		if kb != nil {
			kb.Update(event.Data2)
		}
	default:
		mc.log.Debug("unhandled midi event",
			"status", event.Status,
			"data1", event.Data1,
			"data2", event.Data2)
	}
}

// KnobStates snapshots the last value seen on every controller knob,
// bound or not.
func (mc *MidiController) KnobStates() map[int64]int64 {
	mc.lk.Lock()
	defer mc.lk.Unlock()

	out := make(map[int64]int64, len(mc.knobsSeen))
	for cc, ki := range mc.knobsSeen {
		out[cc] = ki.lastVal
	}
	return out
}

// BindKnob routes a CC number to a param set.
func (mc *MidiController) BindKnob(cc int64, param string, mapf func(int64) float64) {
	mc.lk.Lock()
	defer mc.lk.Unlock()
	mc.knobBinds[cc] = &knobBind{
		mapf: mapf,
		send: func(v float64) {
			if !mc.host.SetParam(param, v) {
				mc.log.Warn("knob bound to unknown param", "cc", cc, "param", param)
			}
		},
	}
}

// BindKnobMod routes a CC number to a modulation amount.
func (mc *MidiController) BindKnobMod(cc int64, source, param string, mapf func(int64) float64) {
	mc.lk.Lock()
	defer mc.lk.Unlock()
	mc.knobBinds[cc] = &knobBind{
		mapf: mapf,
		send: func(v float64) {
			mc.host.SetModAmount(source, param, v)
		},
	}
}

func linMap(min, max float64) func(int64) float64 {
	return func(v int64) float64 {
		return min + (max-min)*float64(v)/127
	}
}

func bindDefaultKnobs(mc *MidiController) {
	// CC 7 = channel volume on most surfaces
	mc.BindKnob(7, engine.ParamVolume, linMap(0, 1))
	mc.BindKnob(71, engine.ParamOsc2Detune, linMap(-1, 1))
	mc.BindKnob(72, engine.ParamRelease, linMap(0, 2))
	mc.BindKnob(73, engine.ParamAttack, linMap(0, 2))

	// mod wheel opens up the vibrato route
	mc.BindKnobMod(1, engine.SourceLFO1, engine.ParamPitch, func(v int64) float64 {
		return math.Pow(float64(v)/127, 2)
	})
}
