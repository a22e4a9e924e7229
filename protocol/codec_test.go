package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"piano-relay-server/domain"
)

func TestNewCodec(t *testing.T) {
	tests := []struct {
		name       string
		wantName   string
		wantBinary bool
		wantErr    bool
	}{
		{name: "", wantName: EncodingJSON},
		{name: "json", wantName: EncodingJSON},
		{name: "msgpack", wantName: EncodingMsgpack, wantBinary: true},
		{name: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCodec(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, c.Name())
			assert.Equal(t, tt.wantBinary, c.Binary())
		})
	}
}

func TestJSONCodec_ServerMessages(t *testing.T) {
	c := JSONCodec{}

	tests := []struct {
		name string
		msg  any
		want string
	}{
		{
			name: "receive info with empty roster",
			msg:  NewReceiveInfo(nil, domain.ClientInfo{ID: "a", ColorHue: 10, InstrumentName: "violin"}),
			want: `{"type":"ReceiveInfo","roster":[],"self":{"id":"a","colorHue":10}}`,
		},
		{
			name: "client connect",
			msg:  NewClientConnect(domain.ClientInfo{ID: "b", ColorHue: 300, InstrumentName: "guitar_harmonics"}),
			want: `{"type":"ClientConnect","id":"b","colorHue":300,"instrumentName":"guitar_harmonics"}`,
		},
		{
			name: "client disconnect",
			msg:  NewClientDisconnect("b"),
			want: `{"type":"ClientDisconnect","id":"b"}`,
		},
		{
			name: "relayed play",
			msg:  Play{Note: "C4", Volume: 0.8}.Relay("b"),
			want: `{"type":"Play","note":"C4","volume":0.8,"id":"b"}`,
		},
		{
			name: "relayed stop",
			msg:  Stop{Note: "C4", Sustain: true}.Relay("b"),
			want: `{"type":"Stop","note":"C4","sustain":true,"id":"b"}`,
		},
		{
			name: "relayed instrument change",
			msg:  InstrumentChange{InstrumentName: "cello"}.Relay("b"),
			want: `{"type":"InstrumentChange","instrumentName":"cello","id":"b"}`,
		},
		{
			name: "error",
			msg:  NewError("room is full"),
			want: `{"type":"Error","message":"room is full"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := c.Encode(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestMsgpackCodec_UsesNamedFields(t *testing.T) {
	c := MsgpackCodec{}

	data, err := c.Encode(Play{Note: "C4", Volume: 0.8}.Relay("b"))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, msgpack.Unmarshal(data, &got))
	assert.Equal(t, "Play", got["type"])
	assert.Equal(t, "C4", got["note"])
	assert.Equal(t, 0.8, got["volume"])
	assert.Equal(t, "b", got["id"])
}

func TestDecodeEvent_Msgpack(t *testing.T) {
	encode := func(v map[string]any) []byte {
		data, err := msgpack.Marshal(v)
		require.NoError(t, err)
		return data
	}

	ev, err := DecodeEvent(MsgpackCodec{}, encode(map[string]any{"type": "Play", "note": "D#5", "volume": 0.5}))
	require.NoError(t, err)
	assert.Equal(t, Play{Note: "D#5", Volume: 0.5}, ev)

	ev, err = DecodeEvent(MsgpackCodec{}, encode(map[string]any{"type": "Stop", "note": "D#5", "sustain": true}))
	require.NoError(t, err)
	assert.Equal(t, Stop{Note: "D#5", Sustain: true}, ev)

	_, err = DecodeEvent(MsgpackCodec{}, encode(map[string]any{"type": "Play", "note": "D#5", "volume": "loud"}))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = DecodeEvent(MsgpackCodec{}, []byte{0xc1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMsgpackCodec_TrailingBytes(t *testing.T) {
	data, err := msgpack.Marshal(map[string]any{"type": "Play", "note": "C4", "volume": 1.0})
	require.NoError(t, err)

	_, err = DecodeEvent(MsgpackCodec{}, data)
	require.NoError(t, err)

	_, err = DecodeEvent(MsgpackCodec{}, append(data, 0xc1, 0xff))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = DecodeEvent(JSONCodec{}, []byte(`{"type":"Play","note":"C4","volume":1}{}`))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestInboundJSONFieldNames(t *testing.T) {
	var in Inbound
	require.NoError(t, json.Unmarshal([]byte(`{"type":"InstrumentChange","instrumentName":"oboe"}`), &in))
	require.NotNil(t, in.InstrumentName)
	assert.Equal(t, "oboe", *in.InstrumentName)
}
