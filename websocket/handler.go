package websocket

import (
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"piano-relay-server/domain"
)

const (
	defaultSendBuffer     = 256
	defaultMaxMessageSize = 4096
	defaultWriteWait      = 10 * time.Second
	defaultPongWait       = 60 * time.Second
)

// Handler upgrades /ws requests and hands each connection to the relay.
type Handler struct {
	relay    Relay
	upgrader websocket.Upgrader
	opts     Options
	logger   *zap.Logger
}

// NewHandler builds the upgrade handler. An empty allowedOrigins accepts any
// origin.
func NewHandler(relay Relay, opts Options, allowedOrigins []string, logger *zap.Logger) *Handler {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = defaultMaxMessageSize
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = defaultWriteWait
	}
	if opts.PongWait <= 0 {
		opts.PongWait = defaultPongWait
	}

	return &Handler{
		relay: relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		opts:   opts,
		logger: logger,
	}
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// JoinParams reads the handshake query. The camelCase names are accepted
// too.
func JoinParams(r *http.Request) domain.JoinParams {
	q := r.URL.Query()
	params := domain.JoinParams{
		RoomName:       q.Get("room_name"),
		InstrumentName: q.Get("instrument_name"),
	}
	if params.RoomName == "" {
		params.RoomName = q.Get("roomName")
	}
	if params.InstrumentName == "" {
		params.InstrumentName = q.Get("instrumentName")
	}
	return params
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params := JoinParams(r)

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade error", zap.Error(err))
		return
	}

	conn := NewConn(uuid.NewString(), ws, h.relay, h.opts, h.logger)
	conn.Start(params)
}
