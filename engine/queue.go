package engine

import "sync/atomic"

// EventSource is the consumer end of whatever transport feeds the audio
// thread. Pop must be non-blocking and must never allocate.
type EventSource[F Float] interface {
	Pop() (Event[F], bool)
}

// Queue is a bounded single-producer single-consumer ring. One goroutine
// may call Push and one goroutine may call Pop; neither end ever blocks.
// A full queue rejects the push, an empty queue reports nothing. The
// producer decides what to do with rejected events.
type Queue[F Float] struct {
	buf  []Event[F]
	mask uint64
	head atomic.Uint64
	tail atomic.Uint64
}

// NewQueue rounds capacity up to a power of two so slot indexing is a
// single mask.
func NewQueue[F Float](capacity int) *Queue[F] {
	if capacity < 2 {
		capacity = 2
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &Queue[F]{
		buf:  make([]Event[F], size),
		mask: uint64(size - 1),
	}
}

func (q *Queue[F]) Push(ev Event[F]) bool {
	t := q.tail.Load()
	if t-q.head.Load() == uint64(len(q.buf)) {
		return false
	}
	q.buf[t&q.mask] = ev
	q.tail.Store(t + 1)
	return true
}

func (q *Queue[F]) Pop() (Event[F], bool) {
	h := q.head.Load()
	if h == q.tail.Load() {
		var zero Event[F]
		return zero, false
	}
	ev := q.buf[h&q.mask]
	q.head.Store(h + 1)
	return ev, true
}

func (q *Queue[F]) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

func (q *Queue[F]) Cap() int {
	return len(q.buf)
}
