package jobrunnerv1

import (
	"encoding/json"
	"fmt"
)

// CodecName is registered under the same name as Connect's built-in JSON
// codec, so it serves application/json, application/grpc+json and
// application/grpc-web+json.
const CodecName = "json"

// Codec marshals plain Go structs as JSON.
type Codec struct{}

// Name implements connect.Codec.
func (Codec) Name() string {
	return CodecName
}

// Marshal implements connect.Codec.
func (Codec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

// Unmarshal implements connect.Codec. An empty body decodes to the zero message.
func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}
