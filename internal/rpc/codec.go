package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype the service speaks. Clients must
// dial with grpc.CallContentSubtype(CodecName); the typed client in this
// package does that per call.
const CodecName = "json"

// jsonCodec frames messages as JSON instead of protobuf. The RPC surface
// is small and operator-facing, so a self-describing encoding beats a
// generated one here.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
