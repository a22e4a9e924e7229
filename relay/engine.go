// Package relay drives each connection through Joining, Active and Closed:
// it admits sessions to rooms, relays validated events to the rest of the
// room and announces departures.
package relay

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"piano-relay-server/domain"
	"piano-relay-server/hub"
	"piano-relay-server/metrics"
	"piano-relay-server/protocol"
	"piano-relay-server/session"
)

// Options tune per-session behavior. A zero RateLimit disables inbound rate
// limiting.
type Options struct {
	RateLimit float64
	RateBurst int
}

type Engine struct {
	hub     *hub.Hub
	codec   protocol.Codec
	hues    *session.HuePicker
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func New(h *hub.Hub, codec protocol.Codec, hues *session.HuePicker, opts Options, logger *zap.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		hub:     h,
		codec:   codec,
		hues:    hues,
		opts:    opts,
		logger:  logger,
		metrics: m,
	}
}

// Join validates the handshake parameters and admits the connection to its
// room. On failure the connection has been sent an Error frame and the
// caller must close it; nothing was registered or announced.
func (e *Engine) Join(conn domain.Connection, params domain.JoinParams) (*session.Session, error) {
	req, err := protocol.ValidateJoin(params)
	if err != nil {
		e.reject(conn, metrics.ReasonValidation, err)
		return nil, err
	}

	s := session.New(conn, req.RoomName, e.hues.Next(), req.InstrumentName, e.newLimiter())

	_, err = e.hub.Join(req.RoomName, s, func(roster []domain.ClientInfo) ([]byte, []byte, error) {
		self := s.Info()
		welcome, err := e.codec.Encode(protocol.NewReceiveInfo(roster, self))
		if err != nil {
			return nil, nil, err
		}
		announce, err := e.codec.Encode(protocol.NewClientConnect(self))
		if err != nil {
			return nil, nil, err
		}
		return welcome, announce, nil
	})
	if err != nil {
		reason := metrics.ReasonSend
		if errors.Is(err, domain.ErrRoomFull) {
			reason = metrics.ReasonCapacity
		}
		e.reject(conn, reason, err)
		return nil, err
	}

	s.Activate()
	return s, nil
}

// Handle processes one inbound frame from an active session. A non-nil
// error means the session has been sent an Error frame and its connection
// must be terminated.
func (e *Engine) Handle(s *session.Session, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if s.State() != session.Active {
		return domain.ErrConnectionClosed
	}

	if !s.Allow() {
		err := fmt.Errorf("%w: more than %.0f events per second", domain.ErrRateLimited, e.opts.RateLimit)
		e.kick(s, metrics.ReasonRateLimit, err)
		return err
	}

	ev, err := protocol.DecodeEvent(e.codec, data)
	if err != nil {
		e.kick(s, metrics.ReasonValidation, err)
		return err
	}

	if change, ok := ev.(protocol.InstrumentChange); ok {
		if err := e.hub.UpdateInstrument(s.Room(), s.ID(), change.InstrumentName); err != nil {
			return err
		}
	}

	frame, err := e.codec.Encode(ev.Relay(s.ID()))
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Kind(), err)
	}
	e.hub.Broadcast(s.Room(), s.ID(), frame)
	e.metrics.Events.WithLabelValues(string(ev.Kind())).Inc()
	return nil
}

// Leave retires the session. Only a session that became active is removed
// from its room and announced; repeated calls do nothing.
func (e *Engine) Leave(s *session.Session) {
	if s.Retire() != session.Active {
		return
	}

	farewell, err := e.codec.Encode(protocol.NewClientDisconnect(s.ID()))
	if err != nil {
		e.logger.Error("encode disconnect", zap.String("clientId", s.ID()), zap.Error(err))
		farewell = nil
	}
	e.hub.Leave(s.Room(), s.ID(), farewell)
}

func (e *Engine) newLimiter() *rate.Limiter {
	if e.opts.RateLimit <= 0 {
		return nil
	}
	burst := e.opts.RateBurst
	if burst <= 0 {
		burst = int(math.Ceil(e.opts.RateLimit))
	}
	// A zero burst rejects every event.
	burst = max(burst, 1)
	return rate.NewLimiter(rate.Limit(e.opts.RateLimit), burst)
}

func (e *Engine) reject(conn domain.Connection, reason string, err error) {
	e.metrics.Rejections.WithLabelValues(reason).Inc()
	e.logger.Info("join rejected", zap.String("clientId", conn.ID()), zap.String("reason", reason), zap.Error(err))
	e.sendError(conn, err)
}

func (e *Engine) kick(s *session.Session, reason string, err error) {
	e.metrics.Rejections.WithLabelValues(reason).Inc()
	e.logger.Warn("terminating client", zap.String("room", s.Room()), zap.String("clientId", s.ID()), zap.String("reason", reason), zap.Error(err))
	e.sendError(s, err)
}

// sendError is best effort; the connection is closed either way.
func (e *Engine) sendError(conn domain.Connection, cause error) {
	frame, err := e.codec.Encode(protocol.NewError(cause.Error()))
	if err != nil {
		return
	}
	if err := conn.Send(frame); err != nil {
		e.logger.Debug("error frame not delivered", zap.String("clientId", conn.ID()), zap.Error(err))
	}
}
