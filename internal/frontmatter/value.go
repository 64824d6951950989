// Package frontmatter parses the leading `---` metadata block of a note
// into an ordered mapping, addresses fields inside it by dotted paths,
// and serializes the mapping back to text.
package frontmatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindTime
	KindList
	KindMapping
)

// Value is a tagged variant covering everything a metadata field can
// hold. The zero Value is null.
type Value struct {
	kind    Kind
	boolVal bool
	numVal  float64
	intLike bool
	strVal  string
	timeVal time.Time
	list    []Value
	mapping *Mapping
}

// Null returns the null value.
func Null() Value {
	return Value{kind: KindNull}
}

// Bool wraps a boolean.
func Bool(b bool) Value {
	return Value{kind: KindBool, boolVal: b}
}

// Int wraps an integer number.
func Int(i int64) Value {
	return Value{kind: KindNumber, numVal: float64(i), intLike: true}
}

// Float wraps a floating-point number.
func Float(f float64) Value {
	return Value{kind: KindNumber, numVal: f}
}

// String wraps a string.
func String(s string) Value {
	return Value{kind: KindString, strVal: s}
}

// Time wraps a calendar timestamp.
func Time(t time.Time) Value {
	return Value{kind: KindTime, timeVal: t}
}

// List wraps a list of values.
func List(items ...Value) Value {
	return Value{kind: KindList, list: items}
}

// Map wraps a mapping.
func Map(m *Mapping) Value {
	if m == nil {
		m = NewMapping()
	}
	return Value{kind: KindMapping, mapping: m}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// IsMapping reports whether the value is a mapping.
func (v Value) IsMapping() bool {
	return v.kind == KindMapping
}

// IsList reports whether the value is a list.
func (v Value) IsList() bool {
	return v.kind == KindList
}

// AsMapping returns the held mapping, or false for any other variant.
func (v Value) AsMapping() (*Mapping, bool) {
	if v.kind != KindMapping {
		return nil, false
	}
	return v.mapping, true
}

// AsList returns the held list, or false for any other variant.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// AsBool returns the held boolean, or false for any other variant.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.boolVal, true
}

// AsString returns the held string, or false for any other variant.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.strVal, true
}

// AsFloat returns the held number, or false for any other variant.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.numVal, true
}

// AsTime returns the held timestamp, or false for any other variant.
func (v Value) AsTime() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.timeVal, true
}

// String renders the value in its default textual form, the form rule
// conditions compare against. Lists join their elements with ", ";
// mappings render as "{key: value, ...}".
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.boolVal {
			return "true"
		}
		return "false"
	case KindNumber:
		if v.intLike {
			return strconv.FormatInt(int64(v.numVal), 10)
		}
		return strconv.FormatFloat(v.numVal, 'g', -1, 64)
	case KindString:
		return v.strVal
	case KindTime:
		return formatTimestamp(v.timeVal)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return strings.Join(parts, ", ")
	case KindMapping:
		var sb strings.Builder
		sb.WriteByte('{')
		for i, key := range v.mapping.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			item, _ := v.mapping.Get(key)
			fmt.Fprintf(&sb, "%s: %s", key, item.String())
		}
		sb.WriteByte('}')
		return sb.String()
	}
	return ""
}

// Equal reports deep semantic equality between two values.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.boolVal == other.boolVal
	case KindNumber:
		return v.numVal == other.numVal
	case KindString:
		return v.strVal == other.strVal
	case KindTime:
		return v.timeVal.Equal(other.timeVal)
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		return v.mapping.Equal(other.mapping)
	}
	return false
}

// formatTimestamp renders a timestamp the way the serializer emits it:
// a bare date when there is no clock component, RFC 3339 otherwise.
func formatTimestamp(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

// Mapping is an ordered string-keyed collection of values. Key order is
// the order keys first appeared, preserved through parse and serialize.
type Mapping struct {
	keys   []string
	values map[string]Value
}

// NewMapping creates an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]Value)}
}

// Set stores a value, appending the key when it is new.
func (m *Mapping) Set(key string, v Value) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get looks up a key.
func (m *Mapping) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Delete removes a key if present.
func (m *Mapping) Delete(key string) {
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	return len(m.keys)
}

// Equal reports semantic equality: same keys with equal values,
// irrespective of key order.
func (m *Mapping) Equal(other *Mapping) bool {
	if m == nil || other == nil {
		return m == other
	}
	if len(m.keys) != len(other.keys) {
		return false
	}
	for key, v := range m.values {
		ov, ok := other.values[key]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
