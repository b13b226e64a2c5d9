package main

import (
	"math/cmplx"
	"sync"
	"time"

	"github.com/maddyblue/go-dsp/fft"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	screenWidth  = 1000
	screenHeight = 600
)

// Recorder taps the effect chain so the scope can read recent output
// without touching the audio goroutine's state.
type Recorder struct {
	lk       sync.Mutex
	buf      [][2]float64
	position int
}

func NewRecorder(n int) *Recorder {
	return &Recorder{buf: make([][2]float64, n)}
}

func (r *Recorder) ProcessSample(samples [][2]float64) {
	r.lk.Lock()
	defer r.lk.Unlock()

	for i := range samples {
		r.buf[r.position%len(r.buf)] = samples[i]
		r.position++
	}
}

func (r *Recorder) GetSnapshot(buf [][2]float64) int {
	r.lk.Lock()
	defer r.lk.Unlock()

	lim := len(buf)
	if len(r.buf) < lim {
		lim = len(r.buf)
	}

	for i := 0; i < lim; i++ {
		buf[i] = r.buf[(r.position+i)%len(r.buf)]
	}

	return lim
}

var keyNotes = map[sdl.Keycode]uint8{
	sdl.K_a: 60,
	sdl.K_s: 62,
	sdl.K_d: 64,
	sdl.K_f: 65,
	sdl.K_g: 67,
	sdl.K_h: 69,
	sdl.K_j: 71,
	sdl.K_k: 72,
	sdl.K_l: 74,
}

func drawScope(h *Host) {
	if err := sdl.Init(sdl.INIT_EVERYTHING); err != nil {
		h.log.Fatal("initializing sdl", "err", err)
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow("polysynth", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, screenWidth, screenHeight, sdl.WINDOW_SHOWN)
	if err != nil {
		h.log.Fatal("creating window", "err", err)
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		h.log.Fatal("creating renderer", "err", err)
	}
	defer renderer.Destroy()

	rec := NewRecorder(10000)
	h.effects = append(h.effects, rec)

	if err := startSpeaker(h); err != nil {
		h.log.Fatal("speaker init", "err", err)
	}

	a := &Arp{
		notes:    []uint8{60, 64, 67, 72},
		velocity: 0.7,
		duration: time.Millisecond * 400,
		host:     h,
	}
	go a.Run()

	buf := make([][2]float64, 2000)
	dataPoints := make([]float64, len(buf))
	keystates := make(map[sdl.Keycode]bool)

	running := true
	var octaveAdjust int
	for running {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch event := event.(type) {
			case *sdl.QuitEvent:
				running = false
			case *sdl.KeyboardEvent:
				sym := event.Keysym.Sym
				note, isNote := keyNotes[sym]

				if event.Type == sdl.KEYUP {
					if !keystates[sym] {
						continue
					}
					delete(keystates, sym)
					if isNote {
						h.NoteOff(uint8(int(note) + octaveAdjust))
						continue
					}
					switch sym {
					case sdl.K_z:
						octaveAdjust -= 12
					case sdl.K_x:
						octaveAdjust += 12
					}
				} else if event.Type == sdl.KEYDOWN {
					if keystates[sym] {
						continue
					}
					keystates[sym] = true
					if isNote {
						h.NoteOn(uint8(int(note)+octaveAdjust), 0.8)
					}
				}
			}
		}

		rec.GetSnapshot(buf)
		for i, v := range buf {
			dataPoints[i] = v[0]
		}

		fftResult := fft.FFTReal(dataPoints)

		magnitudeSpectrum := make([]float64, len(fftResult)/2+1)
		for i, c := range fftResult[:len(magnitudeSpectrum)] {
			magnitudeSpectrum[i] = cmplx.Abs(c) / float64(len(dataPoints))
		}

		renderer.SetDrawColor(255, 255, 255, 255)
		renderer.Clear()

		graphData(renderer, dataPoints[:500], 50, 50, 600, 200, -1, 1)
		graphData(renderer, magnitudeSpectrum[:100], 50, 300, 600, 200, 0, 0.5)

		renderer.Present()
	}
}

func graphData(renderer *sdl.Renderer, dataPoints []float64, x, y, width, height int32, minval, maxval float64) {
	renderer.SetDrawColor(0, 0, 0, 255)
	renderer.DrawLine(x, y+height/2, x+width, y+height/2)
	renderer.DrawLine(x, y, x, y+height)

	spread := maxval - minval
	renderer.SetDrawColor(255, 0, 0, 255)
	for i := 0; i < len(dataPoints)-1; i++ {
		x1 := x + int32(float64(i)*float64(width)/float64(len(dataPoints)-1))
		y1 := y + height - int32((float64(dataPoints[i]-minval)/maxval)*float64(height)/spread)
		x2 := x + int32(float64(i+1)*float64(width)/float64(len(dataPoints)-1))
		y2 := y + height - int32((float64(dataPoints[i+1]-minval)/maxval)*float64(height)/spread)
		renderer.DrawLine(x1, y1, x2, y2)
	}
}
