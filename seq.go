package main

import "time"

// Clock drives sequences off a wall clock at the smallest division it
// knows about. Sequencing lives entirely on the control side; the engine
// just sees note events arriving on the queue.
type Clock struct {
	BPM    int
	MinDiv int

	Sequences []Seq
}

func NewClock(bpm int, mindiv int) *Clock {
	return &Clock{
		BPM:    bpm,
		MinDiv: mindiv,
	}
}

type Seq interface {
	Tick(notesize, pos int)
}

func posToNote(pos int) int {
	if pos%2 == 1 {
		return 32
	}
	if pos%4 == 2 {
		return 16
	}
	if pos%32 == 0 {
		return 1
	}
	if pos%8 == 4 {
		return 8
	}
	if pos%16 == 8 {
		return 4
	}
	if pos%32 == 16 {
		return 2
	}

	return -1
}

func (c *Clock) Run() {
	barInterval := (4 * time.Minute) / (time.Duration(c.BPM) * time.Duration(c.MinDiv))

	var pos int
	for range time.Tick(barInterval) {
		noteSize := posToNote(pos)

		for _, s := range c.Sequences {
			s.Tick(noteSize, pos)
		}
		pos++
	}
}

type Sequencer struct {
	Notes    []uint8
	Velocity float64
	NoteSize int
	Host     *Host

	curnoteStop func()

	cur int
}

func (s *Sequencer) Tick(notesize, pos int) {
	if notesize > s.NoteSize {
		return
	}
	if s.curnoteStop != nil {
		s.curnoteStop()
	}
	note := s.Notes[s.cur%len(s.Notes)]
	s.curnoteStop = s.Host.PlayNote(note, s.Velocity)
	s.cur++
}

// runSequence plays a stock bassline on a clock until killed.
func runSequence(h *Host) {
	c := NewClock(120, 32)
	c.Sequences = append(c.Sequences, &Sequencer{
		Notes:    []uint8{48, 60, 63, 67, 60, 65, 63, 58},
		Velocity: 0.8,
		NoteSize: 8,
		Host:     h,
	})
	c.Run()
}

type Arp struct {
	notes    []uint8
	velocity float64
	duration time.Duration

	host *Host
}

func (a *Arp) Run() {
	for {
		for i := 0; i < len(a.notes); i++ {
			stop := a.host.PlayNote(a.notes[i], a.velocity)
			time.Sleep(a.duration)
			stop()
		}
	}
}
