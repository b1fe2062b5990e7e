package main

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
)

// stopper collects the cooperative stop requests of a session: an input line,
// SIGINT or the dashboard's quit key. The first request closes C.
type stopper struct {
	log     *slog.Logger
	ch      chan struct{}
	once    sync.Once
	signals chan os.Signal
	quit    chan struct{}
}

func newStopper(log *slog.Logger) *stopper {
	return &stopper{
		log:  log,
		ch:   make(chan struct{}),
		quit: make(chan struct{}),
	}
}

// C is closed by the first stop request.
func (s *stopper) C() <-chan struct{} { return s.ch }

func (s *stopper) stop(source string) {
	s.once.Do(func() {
		s.log.Info("stopping after the current chunk", "source", source)
		close(s.ch)
	})
}

// watchInterrupt turns SIGINT into a stop request until release.
func (s *stopper) watchInterrupt() {
	s.signals = make(chan os.Signal, 1)
	signal.Notify(s.signals, os.Interrupt)
	go func() {
		select {
		case <-s.signals:
			s.stop("interrupt")
		case <-s.quit:
		}
	}()
}

// watchInput stops the session when a full line is read from r. End of input
// is not a stop request, so a closed or redirected stdin lets the run finish.
func (s *stopper) watchInput(r io.Reader) {
	go func() {
		if _, err := bufio.NewReader(r).ReadString('\n'); err == nil {
			s.stop("input")
		}
	}()
}

func (s *stopper) release() {
	if s.signals != nil {
		signal.Stop(s.signals)
	}
	close(s.quit)
}
