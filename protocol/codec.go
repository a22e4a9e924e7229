package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec turns wire frames into values and back. Binary reports whether the
// transport should use binary frames for its output.
type Codec interface {
	Name() string
	Binary() bool
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

const (
	EncodingJSON    = "json"
	EncodingMsgpack = "msgpack"
)

// NewCodec returns the codec registered under name.
func NewCodec(name string) (Codec, error) {
	switch name {
	case EncodingJSON, "":
		return JSONCodec{}, nil
	case EncodingMsgpack:
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
}

type JSONCodec struct{}

func (JSONCodec) Name() string { return EncodingJSON }
func (JSONCodec) Binary() bool { return false }

func (JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// MsgpackCodec encodes maps keyed by the same names as the JSON encoding.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return EncodingMsgpack }
func (MsgpackCodec) Binary() bool { return true }

func (MsgpackCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode rejects frames with bytes after the first value, as the JSON
// codec does.
func (MsgpackCodec) Decode(data []byte, v any) error {
	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("json")
	if err := dec.Decode(v); err != nil {
		return err
	}
	if r.Len() > 0 {
		return fmt.Errorf("%d trailing bytes after msgpack value", r.Len())
	}
	return nil
}
