package ml

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Fitted components travel between process and store as base64 blobs.
// The envelope carries a schema version so the payload format can evolve.
const blobVersion = 1

type blobEnvelope struct {
	Version int             `json:"version"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

func marshalBlob(kind string, payload interface{}) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(blobEnvelope{Version: blobVersion, Kind: kind, Payload: raw})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func unmarshalBlob(blob, kind string, payload interface{}) error {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return fmt.Errorf("decode %s blob: %w", kind, err)
	}
	var envelope blobEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decode %s blob: %w", kind, err)
	}
	if envelope.Version != blobVersion {
		return fmt.Errorf("unsupported %s blob version %d", kind, envelope.Version)
	}
	if envelope.Kind != kind {
		return fmt.Errorf("blob kind mismatch: want %s, got %s", kind, envelope.Kind)
	}
	return json.Unmarshal(envelope.Payload, payload)
}
