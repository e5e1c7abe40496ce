// Package rpcjson lets the two inter-service RPCs (§6.3) run on real
// google.golang.org/grpc transport — framing, deadlines, status codes,
// health checking — without a protoc-generated .pb.go stub on either side.
// It registers a JSON codec under the content-subtype "json" and exposes a
// small helper for hand-building a grpc.ServiceDesc whose methods decode
// into plain tagged Go structs instead of proto.Message implementations.
package rpcjson

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const Name = "json"

func init() {
	encoding.RegisterCodec(codec{})
}

// codec implements google.golang.org/grpc/encoding.Codec over
// encoding/json instead of protobuf wire format.
type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (codec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (codec) Name() string { return Name }
