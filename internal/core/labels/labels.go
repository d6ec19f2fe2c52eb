// Package labels provides an insertion-ordered string mapping for container
// metadata.
//
// Label-driven proxies read their configuration from container labels and are
// sensitive to the order directives appear in (a matcher must precede the
// handler that references it). Go maps have no order, so every label group in
// this module is carried as a Map, which remembers the position each key was
// first inserted at and serializes in that order.
package labels

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Map is an ordered mapping from string keys to string values.
// The zero value is an empty map ready to use. A nil *Map reads as empty.
type Map struct {
	keys   []string
	values map[string]string
}

// New returns an empty Map.
func New() *Map {
	return &Map{}
}

// Of builds a Map from alternating key/value arguments.
//
// Example:
//
//	labels.Of("reverse_proxy", "http://10.0.0.2:8123", "redir", "/ /admin")
//
// Panics when given an odd number of arguments.
func Of(pairs ...string) *Map {
	if len(pairs)%2 != 0 {
		panic(fmt.Sprintf("labels.Of: odd number of arguments (%d)", len(pairs)))
	}
	m := New()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

// Set stores value under key. Setting an existing key replaces its value
// but keeps the key where it was first inserted.
func (m *Map) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if !m.Has(key) {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// With is Set that returns the map, for building groups inline.
func (m *Map) With(key, value string) *Map {
	m.Set(key, value)
	return m
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return []string{}
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Each calls fn for every pair in insertion order.
func (m *Map) Each(fn func(key, value string)) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		fn(k, m.values[k])
	}
}

// Merge sets every pair of other into m, in other's order.
// On key collision the value from other wins (last write wins).
func (m *Map) Merge(other *Map) *Map {
	other.Each(m.Set)
	return m
}

// Clone returns an independent copy of m.
func (m *Map) Clone() *Map {
	return New().Merge(m)
}

// ToMap returns the pairs as a plain Go map. Order is lost.
func (m *Map) ToMap() map[string]string {
	out := make(map[string]string, m.Len())
	m.Each(func(k, v string) { out[k] = v })
	return out
}

// =============================================================================
// Serialization
// =============================================================================

// MarshalYAML encodes the map as a YAML mapping in insertion order.
// Values are always emitted as strings so that "true" or "80" are not
// re-read as booleans or integers.
func (m Map) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range m.keys {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.values[k]},
		)
	}
	return node, nil
}

// MarshalJSON encodes the map as a JSON object in insertion order.
func (m Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

