package codec

import (
	"bytes"
	"encoding/json"
)

// JSON encodes headers with encoding/json.
//
// Decoding is strict: unknown fields and trailing data are rejected, so a
// header of one format never silently decodes as another.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingData
	}
	return nil
}

func (JSON) Name() string { return "json" }
