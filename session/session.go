package session

import (
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"piano-relay-server/domain"
)

type State int32

const (
	Joining State = iota
	Active
	Closed
)

func (s State) String() string {
	switch s {
	case Joining:
		return "joining"
	case Active:
		return "active"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is the server-side state of one participant in one room.
type Session struct {
	conn     domain.Connection
	room     string
	colorHue int
	limiter  *rate.Limiter

	mu         sync.RWMutex
	instrument string

	state atomic.Int32
}

// New creates a session in the Joining state. A nil limiter disables
// inbound rate limiting.
func New(conn domain.Connection, room string, colorHue int, instrument string, limiter *rate.Limiter) *Session {
	return &Session{
		conn:       conn,
		room:       room,
		colorHue:   colorHue,
		instrument: instrument,
		limiter:    limiter,
	}
}

func (s *Session) ID() string    { return s.conn.ID() }
func (s *Session) Room() string  { return s.room }
func (s *Session) ColorHue() int { return s.colorHue }

func (s *Session) Instrument() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instrument
}

func (s *Session) SetInstrument(name string) {
	s.mu.Lock()
	s.instrument = name
	s.mu.Unlock()
}

func (s *Session) Info() domain.ClientInfo {
	return domain.ClientInfo{
		ID:             s.ID(),
		ColorHue:       s.colorHue,
		InstrumentName: s.Instrument(),
	}
}

// Send queues a frame on the session's connection without blocking.
func (s *Session) Send(frame []byte) error {
	return s.conn.Send(frame)
}

func (s *Session) Close() error {
	return s.conn.Close()
}

// Allow reports whether another inbound event fits the rate limit.
func (s *Session) Allow() bool {
	if s.limiter == nil {
		return true
	}
	return s.limiter.Allow()
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Activate moves a joining session to Active. It fails if the session was
// closed first.
func (s *Session) Activate() bool {
	return s.state.CompareAndSwap(int32(Joining), int32(Active))
}

// Retire moves the session to Closed and returns the state it left. Only the
// first call observes a state other than Closed.
func (s *Session) Retire() State {
	return State(s.state.Swap(int32(Closed)))
}
