package protocol

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piano-relay-server/domain"
)

func ptr[T any](v T) *T { return &v }

func TestValidateJoin(t *testing.T) {
	tests := []struct {
		name     string
		params   domain.JoinParams
		wantRoom string
		wantErr  string
	}{
		{
			name:     "valid",
			params:   domain.JoinParams{RoomName: "jam", InstrumentName: "acoustic_grand_piano"},
			wantRoom: "jam",
		},
		{
			name:     "room name is trimmed",
			params:   domain.JoinParams{RoomName: "  jam  ", InstrumentName: "violin"},
			wantRoom: "jam",
		},
		{
			name:     "100 characters",
			params:   domain.JoinParams{RoomName: strings.Repeat("a", 100), InstrumentName: "violin"},
			wantRoom: strings.Repeat("a", 100),
		},
		{
			name:     "100 multibyte characters",
			params:   domain.JoinParams{RoomName: strings.Repeat("é", 100), InstrumentName: "violin"},
			wantRoom: strings.Repeat("é", 100),
		},
		{
			name:    "empty room",
			params:  domain.JoinParams{RoomName: "", InstrumentName: "violin"},
			wantErr: "roomName is required",
		},
		{
			name:    "blank room",
			params:  domain.JoinParams{RoomName: " \t ", InstrumentName: "violin"},
			wantErr: "roomName is required",
		},
		{
			name:    "room too long",
			params:  domain.JoinParams{RoomName: strings.Repeat("a", 101), InstrumentName: "violin"},
			wantErr: "roomName must be at most 100 characters",
		},
		{
			name:    "unknown instrument",
			params:  domain.JoinParams{RoomName: "jam", InstrumentName: "kazoo"},
			wantErr: `instrumentName "kazoo" is not a known instrument`,
		},
		{
			name:    "instrument is case sensitive",
			params:  domain.JoinParams{RoomName: "jam", InstrumentName: "Violin"},
			wantErr: "not a known instrument",
		},
		{
			name:    "missing instrument",
			params:  domain.JoinParams{RoomName: "jam"},
			wantErr: "instrumentName is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ValidateJoin(tt.params)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrValidation)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRoom, req.RoomName)
			assert.Equal(t, tt.params.InstrumentName, req.InstrumentName)
		})
	}
}

func TestValidateEvent(t *testing.T) {
	tests := []struct {
		name    string
		in      Inbound
		want    Event
		wantErr string
	}{
		{
			name: "play",
			in:   Inbound{Type: KindPlay, Note: ptr("C4"), Volume: ptr(0.8)},
			want: Play{Note: "C4", Volume: 0.8},
		},
		{
			name: "play with zero volume",
			in:   Inbound{Type: KindPlay, Note: ptr("A0"), Volume: ptr(0.0)},
			want: Play{Note: "A0", Volume: 0},
		},
		{
			name: "play with out of range volume is accepted as-is",
			in:   Inbound{Type: KindPlay, Note: ptr("A0"), Volume: ptr(-12.5)},
			want: Play{Note: "A0", Volume: -12.5},
		},
		{
			name:    "play without volume",
			in:      Inbound{Type: KindPlay, Note: ptr("C4")},
			wantErr: "volume is required",
		},
		{
			name:    "play with infinite volume",
			in:      Inbound{Type: KindPlay, Note: ptr("C4"), Volume: ptr(math.Inf(1))},
			wantErr: "volume must be a finite number",
		},
		{
			name:    "play with NaN volume",
			in:      Inbound{Type: KindPlay, Note: ptr("C4"), Volume: ptr(math.NaN())},
			wantErr: "volume must be a finite number",
		},
		{
			name:    "play with empty note",
			in:      Inbound{Type: KindPlay, Note: ptr(""), Volume: ptr(1.0)},
			wantErr: "note must not be empty",
		},
		{
			name:    "play without note",
			in:      Inbound{Type: KindPlay, Volume: ptr(1.0)},
			wantErr: "note is required",
		},
		{
			name: "stop",
			in:   Inbound{Type: KindStop, Note: ptr("C4"), Sustain: ptr(true)},
			want: Stop{Note: "C4", Sustain: true},
		},
		{
			name: "stop without sustain pedal",
			in:   Inbound{Type: KindStop, Note: ptr("C4"), Sustain: ptr(false)},
			want: Stop{Note: "C4", Sustain: false},
		},
		{
			name:    "stop without sustain",
			in:      Inbound{Type: KindStop, Note: ptr("C4")},
			wantErr: "sustain is required",
		},
		{
			name: "instrument change",
			in:   Inbound{Type: KindInstrumentChange, InstrumentName: ptr("violin")},
			want: InstrumentChange{InstrumentName: "violin"},
		},
		{
			name:    "instrument change to unknown instrument",
			in:      Inbound{Type: KindInstrumentChange, InstrumentName: ptr("kazoo")},
			wantErr: "not a known instrument",
		},
		{
			name:    "instrument change without name",
			in:      Inbound{Type: KindInstrumentChange},
			wantErr: "instrumentName is required",
		},
		{
			name:    "missing type",
			in:      Inbound{Note: ptr("C4")},
			wantErr: "missing message type",
		},
		{
			name:    "server-only type",
			in:      Inbound{Type: KindClientConnect},
			wantErr: `unknown message type "ClientConnect"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ValidateEvent(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrValidation)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, ev)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev)
		})
	}
}

func TestDecodeEvent_JSON(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    Event
		wantErr bool
	}{
		{name: "play", data: `{"type":"Play","note":"C4","volume":0.8}`, want: Play{Note: "C4", Volume: 0.8}},
		{name: "integer volume", data: `{"type":"Play","note":"C4","volume":1}`, want: Play{Note: "C4", Volume: 1}},
		{name: "stop", data: `{"type":"Stop","note":"C4","sustain":false}`, want: Stop{Note: "C4"}},
		{name: "instrument", data: `{"type":"InstrumentChange","instrumentName":"cello"}`, want: InstrumentChange{InstrumentName: "cello"}},
		{name: "non-numeric volume", data: `{"type":"Play","note":"C4","volume":"loud"}`, wantErr: true},
		{name: "null volume", data: `{"type":"Play","note":"C4","volume":null}`, wantErr: true},
		{name: "non-boolean sustain", data: `{"type":"Stop","note":"C4","sustain":"yes"}`, wantErr: true},
		{name: "numeric note", data: `{"type":"Play","note":60,"volume":1}`, wantErr: true},
		{name: "not json", data: `not json`, wantErr: true},
		{name: "array", data: `[1,2,3]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeEvent(JSONCodec{}, []byte(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev)
		})
	}
}
