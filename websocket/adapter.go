package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"piano-relay-server/domain"
	"piano-relay-server/session"
)

// Relay is the session engine a connection drives.
type Relay interface {
	Join(conn domain.Connection, params domain.JoinParams) (*session.Session, error)
	Handle(s *session.Session, data []byte) error
	Leave(s *session.Session)
}

type Options struct {
	SendBuffer     int
	MaxMessageSize int64
	WriteWait      time.Duration
	PongWait       time.Duration
	// Binary selects binary frames for outbound messages.
	Binary bool
}

func (o Options) pingPeriod() time.Duration {
	return (o.PongWait * 9) / 10
}

type Conn struct {
	id     string
	ws     *websocket.Conn
	send   chan []byte
	quit   chan struct{}
	once   sync.Once
	relay  Relay
	opts   Options
	logger *zap.Logger
}

func NewConn(id string, ws *websocket.Conn, relay Relay, opts Options, logger *zap.Logger) *Conn {
	return &Conn{
		id:     id,
		ws:     ws,
		send:   make(chan []byte, opts.SendBuffer),
		quit:   make(chan struct{}),
		relay:  relay,
		opts:   opts,
		logger: logger.With(zap.String("clientId", id)),
	}
}

func (c *Conn) ID() string { return c.id }

// Send queues a frame without blocking.
func (c *Conn) Send(data []byte) error {
	select {
	case <-c.quit:
		return domain.ErrConnectionClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return domain.ErrSendBufferFull
	}
}

// Close stops the connection. Frames already queued are still written
// before the close frame.
func (c *Conn) Close() error {
	c.once.Do(func() { close(c.quit) })
	return nil
}

// Start admits the connection and runs its pumps. A rejected join gets its
// Error frame flushed and the socket closed.
func (c *Conn) Start(params domain.JoinParams) {
	go c.writePump()

	s, err := c.relay.Join(c, params)
	if err != nil {
		c.logger.Debug("join failed", zap.Error(err))
		c.Close()
		return
	}
	go c.readPump(s)
}

func (c *Conn) readPump(s *session.Session) {
	defer func() {
		c.relay.Leave(s)
		c.Close()
	}()

	c.ws.SetReadLimit(c.opts.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("read error", zap.Error(err))
			}
			return
		}

		if err := c.relay.Handle(s, data); err != nil {
			return
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.opts.pingPeriod())
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message := <-c.send:
			if err := c.write(message); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.quit:
			c.flush()
			c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Conn) flush() {
	for {
		select {
		case message := <-c.send:
			if err := c.write(message); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Conn) write(message []byte) error {
	kind := websocket.TextMessage
	if c.opts.Binary {
		kind = websocket.BinaryMessage
	}
	c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
	return c.ws.WriteMessage(kind, message)
}
