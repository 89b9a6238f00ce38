package service

import (
	"encoding/json"
	"fmt"
)

// Codec names connect derives from application/json content types.
const (
	CodecName        = "json"
	CharsetCodecName = "json; charset=utf-8"
)

// JSONCodec marshals plain Go structs. It replaces connect's protojson codec,
// which only accepts generated protobuf messages.
type JSONCodec struct{}

func (JSONCodec) Name() string { return CodecName }

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("invalid JSON payload: %w", err)
	}
	return nil
}

// charsetJSONCodec serves "application/json; charset=utf-8", which connect
// routes to a separate codec from plain "application/json".
type charsetJSONCodec struct{ JSONCodec }

func (charsetJSONCodec) Name() string { return CharsetCodecName }
