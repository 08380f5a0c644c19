// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package codec provides the versioned marshal/unmarshal envelope
// transcript.Transcript is serialized through.
package codec

import (
	"encoding/json"
	"fmt"
)

// CodecVersion represents the codec version
type CodecVersion uint16

const (
	// CurrentVersion is the current codec version
	CurrentVersion CodecVersion = 0
)

// Codec provides marshaling/unmarshaling
var Codec = &JSONCodec{}

// JSONCodec implements JSON encoding/decoding
type JSONCodec struct{}

// envelope wraps an encoded payload with the codec version it was
// written under, so Unmarshal can report the version a blob actually
// carries rather than just assuming it matches CurrentVersion.
type envelope struct {
	Version CodecVersion    `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

// Marshal marshals an object to bytes
func (c *JSONCodec) Marshal(version CodecVersion, v interface{}) ([]byte, error) {
	if version != CurrentVersion {
		return nil, fmt.Errorf("unsupported codec version: %d", version)
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Version: version, Payload: payload})
}

// Unmarshal unmarshals bytes to an object, reporting the codec version
// the blob was actually written under.
func (c *JSONCodec) Unmarshal(data []byte, v interface{}) (CodecVersion, error) {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return 0, err
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return 0, err
	}
	return e.Version, nil
}
