package codec

import (
	"bytes"

	gojson "github.com/goccy/go-json"
)

// GoJSON encodes headers with github.com/goccy/go-json. It is the default.
//
// Its output is plain JSON without HTML escaping and decodes with the same
// strictness as JSON, so headers written by either codec read with the other.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.MarshalNoEscape(v) }

func (GoJSON) Unmarshal(data []byte, v any) error {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingData
	}
	return nil
}

func (GoJSON) Name() string { return "go-json" }
