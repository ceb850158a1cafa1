package api

import (
	"encoding/json"
	"fmt"
)

// jsonCodec carries the availability messages as JSON instead of
// protobuf, so partners need no generated stubs.
type jsonCodec struct{}

const jsonCodecName = "json"

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json codec marshal: %w", err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json codec unmarshal: %w", err)
	}
	return nil
}

func (jsonCodec) Name() string {
	return jsonCodecName
}
