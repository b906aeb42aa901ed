// Package session ties a tail engine to one client connection. Each Session
// owns exactly one watch, accepts tail/stop-tail commands, and forwards tail
// events to the connection as wire messages.
package session

import (
	"sync"

	"github.com/atikulmunna/logdeck/internal/tailer"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Client -> server message types.
const (
	TypeTail     = "tail"
	TypeStopTail = "stop-tail"
)

// Server -> client message types.
const (
	TypeTailStarted = "tail-started"
	TypeNewLines    = "new-lines"
	TypeTruncated   = "truncated"
	TypeTailStopped = "tail-stopped"
	TypeError       = "error"
)

// Command is a client request on the session channel.
type Command struct {
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
}

// Message is a server event on the session channel.
type Message struct {
	Type    string   `json:"type"`
	Path    string   `json:"path,omitempty"`
	Lines   []string `json:"lines,omitempty"`
	Message string   `json:"message,omitempty"`
}

// Recorder observes tailed lines. It must not block.
type Recorder interface {
	Observe(lines []string)
}

const outboundBuffer = 256

// Session is the per-connection coordinator.
type Session struct {
	id     string
	engine *tailer.Engine
	rec    Recorder
	out    chan Message
	done   chan struct{}
	wg     sync.WaitGroup

	mu        sync.Mutex
	gen       uint64 // generation of the active watch, 0 when idle
	closeOnce sync.Once
}

// New creates a Session and starts its event forwarder. rec may be nil.
func New(opts tailer.Options, rec Recorder) *Session {
	s := &Session{
		id:     uuid.NewString(),
		engine: tailer.New(opts),
		rec:    rec,
		out:    make(chan Message, outboundBuffer),
		done:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.forward()
	log.Debug().Str("session", s.id).Msg("session opened")
	return s
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// Out returns the outbound message channel. It is never closed; stop reading
// once Close has been called.
func (s *Session) Out() <-chan Message {
	return s.out
}

// Done is closed when the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Handle applies one client command. Unknown commands produce an error message.
func (s *Session) Handle(cmd Command) {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		return
	default:
	}

	switch cmd.Type {
	case TypeTail:
		s.engine.Stop()
		s.gen = 0
		gen, err := s.engine.Start(cmd.Path)
		if err != nil {
			log.Debug().Err(err).Str("session", s.id).Str("path", cmd.Path).Msg("tail rejected")
			s.send(Message{Type: TypeError, Message: err.Error()})
			return
		}
		s.gen = gen
		log.Info().Str("session", s.id).Str("path", cmd.Path).Msg("tail started")
		s.send(Message{Type: TypeTailStarted, Path: cmd.Path})

	case TypeStopTail:
		s.engine.Stop()
		s.gen = 0
		log.Info().Str("session", s.id).Msg("tail stopped")
		s.send(Message{Type: TypeTailStopped})

	default:
		s.send(Message{Type: TypeError, Message: "unknown message type: " + cmd.Type})
	}
}

// Reject reports a client message that could not be decoded.
func (s *Session) Reject(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		return
	default:
	}
	s.send(Message{Type: TypeError, Message: reason})
}

// Close releases the watch and stops the forwarder. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		s.engine.Stop()
		s.gen = 0
		s.mu.Unlock()

		s.wg.Wait()
		log.Debug().Str("session", s.id).Msg("session closed")
	})
}

// Watch returns a snapshot of the session's tail state.
func (s *Session) Watch() (path string, size int64, active bool) {
	ts := s.engine.Session()
	return ts.WatchedPath, ts.LastKnownSize, ts.Active
}

// forward converts engine events to messages, dropping events that belong to
// a watch that has since been stopped or replaced.
func (s *Session) forward() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.engine.Events():
			s.mu.Lock()
			if ev.Generation == s.gen {
				s.send(toMessage(ev))
				if ev.Kind == tailer.NewLines && s.rec != nil {
					s.rec.Observe(ev.Lines)
				}
			}
			s.mu.Unlock()
		}
	}
}

// send queues a message unless the session is closed. Callers hold s.mu.
func (s *Session) send(m Message) {
	select {
	case s.out <- m:
	case <-s.done:
	}
}

func toMessage(ev tailer.Event) Message {
	switch ev.Kind {
	case tailer.NewLines:
		return Message{Type: TypeNewLines, Lines: ev.Lines}
	case tailer.Truncated:
		return Message{Type: TypeTruncated}
	default:
		msg := "tail error"
		if ev.Err != nil {
			msg = ev.Err.Error()
		}
		return Message{Type: TypeError, Message: msg}
	}
}
