// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package listing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// RawSectionName holds the verbatim payload when it cannot be decoded
const RawSectionName = "Raw Listing"

var errNotObject = errors.New("listing is not a JSON object")

// Listing is an ordered set of named sections. Nested objects decode into
// a *Listing as well, so their keys keep the service's order.
type Listing struct {
	names  []string
	values map[string]any
}

func newListing() *Listing {
	return &Listing{values: make(map[string]any)}
}

func (l *Listing) set(name string, v any) {
	if _, ok := l.values[name]; !ok {
		l.names = append(l.names, name)
	}
	l.values[name] = v
}

// Names returns section names in service order
func (l *Listing) Names() []string {
	return append([]string(nil), l.names...)
}

func (l *Listing) Get(name string) (any, bool) {
	v, ok := l.values[name]
	return v, ok
}

func (l *Listing) Len() int {
	return len(l.names)
}

// Map returns the sections as a plain map, nested objects included
func (l *Listing) Map() map[string]any {
	m := make(map[string]any, len(l.values))
	for k, v := range l.values {
		m[k] = plain(v)
	}
	return m
}

func plain(v any) any {
	switch t := v.(type) {
	case *Listing:
		return t.Map()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plain(item)
		}
		return out
	}
	return v
}

// IsRaw reports whether decoding fell back to the verbatim text
func (l *Listing) IsRaw() bool {
	_, ok := l.values[RawSectionName]
	return ok && len(l.names) == 1
}

// MarshalJSON writes the sections as an object, keeping their order
func (l *Listing) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range l.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(l.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Format normalizes the raw listing_section value. A JSON string is cleaned
// and decoded with ParseText; a JSON object passes through unchanged; any
// other value becomes a single Raw Listing section.
func Format(raw json.RawMessage) *Listing {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err == nil {
			return ParseText(text)
		}
	}

	if l, err := decodeObject(trimmed); err == nil {
		return l
	}
	return rawListing(string(raw))
}

// ParseText strips control characters and decodes text as a JSON object.
// When that fails the original text is kept verbatim under Raw Listing.
func ParseText(text string) *Listing {
	if l, err := decodeObject([]byte(StripControl(text))); err == nil {
		return l
	}
	return rawListing(text)
}

// StripControl removes C0 control characters and DEL
func StripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

func rawListing(text string) *Listing {
	l := newListing()
	l.set(RawSectionName, text)
	return l
}

// decodeObject decodes exactly one JSON object, keeping key order
func decodeObject(data []byte) (*Listing, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errNotObject
	}

	l, err := decodeMembers(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after listing object")
	}
	return l, nil
}

// decodeMembers reads key/value pairs up to and including the closing brace
func decodeMembers(dec *json.Decoder) (*Listing, error) {
	l := newListing()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errNotObject
		}

		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		l.set(key, v)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return l, nil
}

// decodeValue reads one value. Objects become *Listing, arrays []any and
// scalars whatever the decoder's Token returns (numbers as json.Number).
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '{':
		return decodeMembers(dec)
	case '[':
		items := []any{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return items, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %q", d)
}
