package protocol

import "piano-relay-server/domain"

type Kind string

const (
	KindPlay             Kind = "Play"
	KindStop             Kind = "Stop"
	KindInstrumentChange Kind = "InstrumentChange"
	KindReceiveInfo      Kind = "ReceiveInfo"
	KindClientConnect    Kind = "ClientConnect"
	KindClientDisconnect Kind = "ClientDisconnect"
	KindError            Kind = "Error"
)

// Inbound is the raw shape of every client frame. Fields are pointers so a
// missing field can be told apart from a zero value.
type Inbound struct {
	Type           Kind     `json:"type"`
	Note           *string  `json:"note,omitempty"`
	Volume         *float64 `json:"volume,omitempty"`
	Sustain        *bool    `json:"sustain,omitempty"`
	InstrumentName *string  `json:"instrumentName,omitempty"`
}

// Event is a validated client event. Relay stamps it with the sender id.
type Event interface {
	Kind() Kind
	Relay(senderID string) any
}

type Play struct {
	Note   string
	Volume float64
}

type Stop struct {
	Note    string
	Sustain bool
}

type InstrumentChange struct {
	InstrumentName string
}

func (Play) Kind() Kind             { return KindPlay }
func (Stop) Kind() Kind             { return KindStop }
func (InstrumentChange) Kind() Kind { return KindInstrumentChange }

func (e Play) Relay(senderID string) any {
	return PlayRelay{Type: KindPlay, Note: e.Note, Volume: e.Volume, ID: senderID}
}

func (e Stop) Relay(senderID string) any {
	return StopRelay{Type: KindStop, Note: e.Note, Sustain: e.Sustain, ID: senderID}
}

func (e InstrumentChange) Relay(senderID string) any {
	return InstrumentChangeRelay{Type: KindInstrumentChange, InstrumentName: e.InstrumentName, ID: senderID}
}

type PlayRelay struct {
	Type   Kind    `json:"type"`
	Note   string  `json:"note"`
	Volume float64 `json:"volume"`
	ID     string  `json:"id"`
}

type StopRelay struct {
	Type    Kind   `json:"type"`
	Note    string `json:"note"`
	Sustain bool   `json:"sustain"`
	ID      string `json:"id"`
}

type InstrumentChangeRelay struct {
	Type           Kind   `json:"type"`
	InstrumentName string `json:"instrumentName"`
	ID             string `json:"id"`
}

type Self struct {
	ID       string `json:"id"`
	ColorHue int    `json:"colorHue"`
}

// ReceiveInfo is sent once, to the joining connection only.
type ReceiveInfo struct {
	Type   Kind                `json:"type"`
	Roster []domain.ClientInfo `json:"roster"`
	Self   Self                `json:"self"`
}

type ClientConnect struct {
	Type           Kind   `json:"type"`
	ID             string `json:"id"`
	ColorHue       int    `json:"colorHue"`
	InstrumentName string `json:"instrumentName"`
}

type ClientDisconnect struct {
	Type Kind   `json:"type"`
	ID   string `json:"id"`
}

type Error struct {
	Type    Kind   `json:"type"`
	Message string `json:"message"`
}

func NewReceiveInfo(roster []domain.ClientInfo, self domain.ClientInfo) ReceiveInfo {
	if roster == nil {
		roster = []domain.ClientInfo{}
	}
	return ReceiveInfo{
		Type:   KindReceiveInfo,
		Roster: roster,
		Self:   Self{ID: self.ID, ColorHue: self.ColorHue},
	}
}

func NewClientConnect(info domain.ClientInfo) ClientConnect {
	return ClientConnect{
		Type:           KindClientConnect,
		ID:             info.ID,
		ColorHue:       info.ColorHue,
		InstrumentName: info.InstrumentName,
	}
}

func NewClientDisconnect(id string) ClientDisconnect {
	return ClientDisconnect{Type: KindClientDisconnect, ID: id}
}

func NewError(message string) Error {
	return Error{Type: KindError, Message: message}
}
