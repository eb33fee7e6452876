// Package codec encodes request values to bytes and decodes payloads back.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Codec converts structured values to and from their wire form.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// JSON is the default codec. Numbers decode as json.Number so integer
// values survive a round trip through any.
type JSON struct{}

// Encode marshals v. HTML characters are not escaped.
func (JSON) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// Decode unmarshals data into v.
func (JSON) Decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// EncodeLines encodes each value on its own line, newline-terminated, as
// required by line-delimited bulk bodies.
func EncodeLines(c Codec, values ...any) ([]byte, error) {
	var buf bytes.Buffer
	for i, v := range values {
		line, err := c.Encode(v)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		if bytes.IndexByte(line, '\n') >= 0 {
			return nil, fmt.Errorf("line %d: encoded value spans multiple lines", i)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
