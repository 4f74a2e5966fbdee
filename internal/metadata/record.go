// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// ErrorKey is the reserved property name that marks a failed extraction.
const ErrorKey = "Error"

// Entry is a single Property/Value row of a metadata record
type Entry struct {
	Key   string
	Value any
}

// Record is an ordered mapping from display name to a display-safe value.
// Values stored through Set are always normalized.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord creates an empty record
func NewRecord() *Record {
	return &Record{
		keys:   make([]string, 0, 16),
		values: make(map[string]any),
	}
}

// ErrorRecord returns a single-entry record holding only the error message
func ErrorRecord(message string) *Record {
	r := NewRecord()
	r.Set(ErrorKey, message)
	return r
}

// Set stores the normalized value under key. Re-setting a key keeps its
// original position.
func (r *Record) Set(key string, value any) {
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = Normalize(value)
}

// SetIfPresent stores the value unless it normalizes to nil or an empty string.
func (r *Record) SetIfPresent(key string, value any) {
	v := Normalize(value)
	if v == nil {
		return
	}
	if s, ok := v.(string); ok && s == "" {
		return
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value stored under key
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present
func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Delete removes key, preserving the order of the remaining entries
func (r *Record) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of entries
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Keys returns the property names in insertion order
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Entries returns the rows in insertion order
func (r *Record) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, Entry{Key: k, Value: r.values[k]})
	}
	return out
}

// IsError reports whether the record is an error sentinel
func (r *Record) IsError() bool {
	return r != nil && r.Has(ErrorKey)
}

// MarshalJSON encodes the record as a JSON object in insertion order
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			// Normalized values are JSON-safe except NaN/Inf floats.
			v, _ = json.Marshal(Stringify(e.Value))
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the record as a YAML mapping in insertion order
func (r *Record) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range r.Entries() {
		var key, value yaml.Node
		if err := key.Encode(e.Key); err != nil {
			return nil, err
		}
		if err := value.Encode(e.Value); err != nil {
			if err := value.Encode(Stringify(e.Value)); err != nil {
				return nil, err
			}
		}
		node.Content = append(node.Content, &key, &value)
	}
	return node, nil
}

// EncodeMsgpack encodes the record as a msgpack map in insertion order
func (r *Record) EncodeMsgpack(enc *msgpack.Encoder) error {
	entries := r.Entries()
	if err := enc.EncodeMapLen(len(entries)); err != nil {
		return err
	}
	for _, e := range entries {
		if err := enc.EncodeString(e.Key); err != nil {
			return err
		}
		v := e.Value
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			v = Stringify(f)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}
