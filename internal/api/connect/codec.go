// Package connect provides Connect RPC service implementations.
package connect

import (
	"connectrpc.com/connect"
	jsoniter "github.com/json-iterator/go"
)

// codecName replaces Connect's protobuf-only JSON codec.
const codecName = "json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonCodec marshals plain Go structs as JSON.
type jsonCodec struct{}

func (jsonCodec) Name() string {
	return codecName
}

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	// An empty body is an empty message
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// WithJSONCodec returns the option that makes handlers and clients speak
// JSON with the message types of this package.
func WithJSONCodec() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
