package hub

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"piano-relay-server/domain"
	"piano-relay-server/metrics"
	"piano-relay-server/session"
)

var (
	ErrDuplicateSession = errors.New("session already in room")
	ErrNotMember        = errors.New("session not in room")
)

// Greeter builds the frames exchanged when a session is admitted: welcome
// goes to the joiner, announce to everyone already in the room. It runs
// inside the room's critical section.
type Greeter func(roster []domain.ClientInfo) (welcome, announce []byte, err error)

type room struct {
	name    string
	members map[string]*session.Session
	// retired is set when the room empties; a join that raced the
	// removal must look the room up again.
	retired bool
	mu      sync.RWMutex
}

type RoomStat struct {
	Name    string `json:"name"`
	Clients int    `json:"clients"`
}

type Hub struct {
	rooms    map[string]*room
	mu       sync.RWMutex
	capacity int
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func New(capacity int, logger *zap.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		rooms:    make(map[string]*room),
		capacity: capacity,
		logger:   logger,
		metrics:  m,
	}
}

// Join admits s to the named room, creating the room if needed. It returns
// the public attributes of the members already present.
func (h *Hub) Join(roomName string, s *session.Session, greet Greeter) ([]domain.ClientInfo, error) {
	for {
		r := h.getOrCreate(roomName)

		r.mu.Lock()
		if r.retired {
			r.mu.Unlock()
			continue
		}
		roster, err := h.admitLocked(r, s, greet)
		if err != nil && len(r.members) == 0 {
			h.retireLocked(r)
		}
		r.mu.Unlock()
		return roster, err
	}
}

func (h *Hub) admitLocked(r *room, s *session.Session, greet Greeter) ([]domain.ClientInfo, error) {
	if len(r.members) >= h.capacity {
		h.logger.Info("room full", zap.String("room", r.name), zap.String("clientId", s.ID()), zap.Int("clients", len(r.members)))
		return nil, fmt.Errorf("%w: %q holds %d participants", domain.ErrRoomFull, r.name, h.capacity)
	}
	if _, exists := r.members[s.ID()]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSession, s.ID())
	}

	roster := make([]domain.ClientInfo, 0, len(r.members))
	for _, m := range r.members {
		roster = append(roster, m.Info())
	}

	welcome, announce, err := greet(roster)
	if err != nil {
		return nil, err
	}
	if err := s.Send(welcome); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	h.fanOutLocked(r, s.ID(), announce)

	r.members[s.ID()] = s
	h.metrics.Sessions.Inc()
	h.logger.Info("client connected", zap.String("room", r.name), zap.String("clientId", s.ID()), zap.Int("clients", len(r.members)))
	return roster, nil
}

// Leave removes a session. When the room empties it is deleted in the same
// critical section; otherwise farewell is sent to the remaining members.
func (h *Hub) Leave(roomName, sessionID string, farewell []byte) int {
	h.mu.RLock()
	r, exists := h.rooms[roomName]
	h.mu.RUnlock()

	if !exists {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[sessionID]; !ok {
		return len(r.members)
	}
	delete(r.members, sessionID)
	h.metrics.Sessions.Dec()
	count := len(r.members)

	h.logger.Info("client disconnected", zap.String("room", roomName), zap.String("clientId", sessionID), zap.Int("clients", count))

	if count == 0 {
		h.retireLocked(r)
		return 0
	}
	if farewell != nil {
		h.fanOutLocked(r, sessionID, farewell)
	}
	return count
}

// Broadcast delivers frame to every member of the room except the sender
// and returns the number of members it was queued for.
func (h *Hub) Broadcast(roomName, senderID string, frame []byte) int {
	h.mu.RLock()
	r, exists := h.rooms[roomName]
	h.mu.RUnlock()

	if !exists {
		return 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return h.fanOutLocked(r, senderID, frame)
}

// UpdateInstrument changes a member's instrument so later rosters see it.
func (h *Hub) UpdateInstrument(roomName, sessionID, instrument string) error {
	h.mu.RLock()
	r, exists := h.rooms[roomName]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrNotMember, sessionID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.members[sessionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotMember, sessionID)
	}
	s.SetInstrument(instrument)
	return nil
}

// Members returns the public attributes of everyone in the room, and false
// if the room does not exist.
func (h *Hub) Members(roomName string) ([]domain.ClientInfo, bool) {
	h.mu.RLock()
	r, exists := h.rooms[roomName]
	h.mu.RUnlock()

	if !exists {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	// A room whose first join is still in progress is not yet visible.
	if r.retired || len(r.members) == 0 {
		return nil, false
	}
	out := make([]domain.ClientInfo, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, true
}

func (h *Hub) Stats() (rooms, clients int) {
	for _, st := range h.Rooms() {
		rooms++
		clients += st.Clients
	}
	return rooms, clients
}

// Rooms lists live rooms by name.
func (h *Hub) Rooms() []RoomStat {
	out := make([]RoomStat, 0)
	for _, r := range h.snapshot() {
		r.mu.RLock()
		if !r.retired && len(r.members) > 0 {
			out = append(out, RoomStat{Name: r.name, Clients: len(r.members)})
		}
		r.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Close closes every admitted session's connection. Each connection's own
// read loop then leaves its room.
func (h *Hub) Close() {
	for _, r := range h.snapshot() {
		r.mu.RLock()
		members := make([]*session.Session, 0, len(r.members))
		for _, m := range r.members {
			members = append(members, m)
		}
		r.mu.RUnlock()

		for _, m := range members {
			_ = m.Close()
		}
	}
}

func (h *Hub) getOrCreate(roomName string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, exists := h.rooms[roomName]
	if !exists {
		r = &room{name: roomName, members: make(map[string]*session.Session)}
		h.rooms[roomName] = r
		h.metrics.Rooms.Inc()
		h.logger.Debug("room created", zap.String("room", roomName))
	}
	return r
}

// retireLocked removes an empty room from the registry. Callers hold r.mu.
func (h *Hub) retireLocked(r *room) {
	r.retired = true

	h.mu.Lock()
	if h.rooms[r.name] == r {
		delete(h.rooms, r.name)
		h.metrics.Rooms.Dec()
	}
	h.mu.Unlock()

	h.logger.Info("room removed", zap.String("room", r.name))
}

// fanOutLocked queues frame for every member but exclude. A member whose
// queue is full is closed rather than waited on. Callers hold r.mu.
func (h *Hub) fanOutLocked(r *room, exclude string, frame []byte) int {
	sent := 0
	for id, m := range r.members {
		if id == exclude {
			continue
		}
		if err := m.Send(frame); err != nil {
			h.metrics.SlowConsumers.Inc()
			h.logger.Warn("dropping slow client", zap.String("room", r.name), zap.String("clientId", id), zap.Error(err))
			_ = m.Close()
			continue
		}
		sent++
	}
	return sent
}

func (h *Hub) snapshot() []*room {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*room, 0, len(h.rooms))
	for _, r := range h.rooms {
		out = append(out, r)
	}
	return out
}
