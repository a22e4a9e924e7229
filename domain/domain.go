package domain

import "errors"

var (
	ErrValidation       = errors.New("invalid input")
	ErrRoomFull         = errors.New("room is full")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrTransport        = errors.New("transport failure")
	ErrSendBufferFull   = errors.New("send buffer full")
	ErrConnectionClosed = errors.New("connection closed")
)

// ClientInfo is the public view of a session shared with the rest of a room.
type ClientInfo struct {
	ID             string `json:"id"`
	ColorHue       int    `json:"colorHue"`
	InstrumentName string `json:"instrumentName"`
}

// JoinParams are the handshake parameters a connection declares.
type JoinParams struct {
	RoomName       string
	InstrumentName string
}

// Connection is the transport handle owned by a single session.
type Connection interface {
	ID() string
	Send(frame []byte) error
	Close() error
}
