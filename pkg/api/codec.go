package api

import (
	"encoding/json"
	"fmt"
)

// CodecName is registered in place of Connect's protobuf JSON codec.
const CodecName = "json"

// Codec marshals plain Go structs with encoding/json.
type Codec struct{}

func (Codec) Name() string { return CodecName }

func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("invalid JSON message: %w", err)
	}
	return nil
}
