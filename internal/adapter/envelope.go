package adapter

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope models the two payload shapes sources return: a {status, data}
// wrapper or a bare object/array. Unwrap is the single place the duality is
// resolved.
type Envelope struct {
	Status json.RawMessage `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// Unwrap returns the payload body: the data member when the payload is a
// wrapper, otherwise the payload itself.
func Unwrap(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return trimmed
	}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		return env.Data
	}
	return trimmed
}

// DecodeObjects unwraps a payload and decodes it into a slice of objects.
// A bare single object decodes to a one-element slice.
func DecodeObjects(raw []byte) ([]map[string]any, error) {
	body := Unwrap(raw)
	if len(body) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	switch body[0] {
	case '[':
		var objs []map[string]any
		if err := json.Unmarshal(body, &objs); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
		return objs, nil
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, fmt.Errorf("decode object: %w", err)
		}
		return []map[string]any{obj}, nil
	default:
		return nil, fmt.Errorf("unexpected payload shape")
	}
}
