package bench

import (
	"sync"
	"time"
)

// Stream is the unbounded, ordered queue of durations produced by a session.
// Push never blocks the producer, so memory grows with every unread value;
// a session pushes at most RunConfig.Runs values.
//
// Consume either through C or through TryDrain, not both.
type Stream struct {
	mu        sync.Mutex
	queue     []time.Duration
	finished  bool
	abandoned bool

	notify  chan struct{}
	dropped chan struct{}
	out     chan time.Duration
	once    sync.Once
	abandon sync.Once
}

func newStream() *Stream {
	return &Stream{
		notify:  make(chan struct{}, 1),
		dropped: make(chan struct{}),
		out:     make(chan time.Duration),
	}
}

// Push appends d. It fails with ErrStreamClosed after Abandon.
func (s *Stream) Push(d time.Duration) error {
	s.mu.Lock()
	if s.abandoned {
		s.mu.Unlock()
		return ErrStreamClosed
	}
	s.queue = append(s.queue, d)
	s.mu.Unlock()
	s.signal()
	return nil
}

// finish marks the end of production. Buffered values remain readable.
func (s *Stream) finish() {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
	s.signal()
}

func (s *Stream) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// C returns a channel that yields every duration in order and is closed once
// the session has finished and the queue is empty, or after Abandon.
func (s *Stream) C() <-chan time.Duration {
	s.once.Do(func() { go s.forward() })
	return s.out
}

func (s *Stream) forward() {
	defer close(s.out)
	for {
		batch, finished := s.take()
		for _, d := range batch {
			select {
			case s.out <- d:
			case <-s.dropped:
				return
			}
		}
		if len(batch) > 0 {
			continue
		}
		if finished {
			return
		}
		select {
		case <-s.notify:
		case <-s.dropped:
			return
		}
	}
}

func (s *Stream) take() ([]time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.queue
	s.queue = nil
	return batch, s.finished
}

// TryDrain returns every buffered duration without blocking, plus whether the
// producer has finished. When finished is true the returned batch is the last.
func (s *Stream) TryDrain() ([]time.Duration, bool) {
	return s.take()
}

// Len reports the number of buffered, unread durations.
func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Abandon drops the consumer side. Buffered values are discarded and the next
// Push fails, which ends the session with ErrStreamClosed.
func (s *Stream) Abandon() {
	s.abandon.Do(func() {
		s.mu.Lock()
		s.abandoned = true
		s.queue = nil
		s.mu.Unlock()
		close(s.dropped)
	})
}
