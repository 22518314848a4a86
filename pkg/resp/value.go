package resp

import (
	"bytes"
	"math"
	"slices"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindList
	KindMap
	KindError
)

// String returns the kind name used in command responses.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindError:
		return "error"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is an immutable tagged union of every type the protocol can carry.
// The zero Value is Null.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	s     string
	raw   []byte
	list  []Value
	pairs []Pair
}

// Pair is one key/value entry of a Map value.
type Pair struct {
	Key   Value
	Value Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a float value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a text value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bytes returns a raw byte value. The slice is copied. A nil slice
// yields an empty, non-null Bytes value.
func Bytes(b []byte) Value {
	raw := make([]byte, len(b))
	copy(raw, b)
	return Value{kind: KindBytes, raw: raw}
}

// List returns an ordered list value. The element slice is copied.
func List(items ...Value) Value {
	list := make([]Value, len(items))
	copy(list, items)
	return Value{kind: KindList, list: list}
}

// Map returns a map value. When the same key appears more than once the
// last pair wins, keeping keys unique.
func Map(pairs ...Pair) Value {
	out := make([]Pair, 0, len(pairs))
	index := make(map[string]int, len(pairs))
	for _, p := range pairs {
		k := p.Key.indexKey()
		if i, dup := index[k]; dup {
			out[i].Value = p.Value
			continue
		}
		index[k] = len(out)
		out = append(out, p)
	}
	return Value{kind: KindMap, pairs: out}
}

// indexKey returns a hashable identity for v. Two values share an
// identity exactly when Equal reports them equal.
func (v Value) indexKey() string {
	return string(v.appendKey(nil))
}

// appendKey appends a self-delimiting encoding of v to b.
func (v Value) appendKey(b []byte) []byte {
	switch v.kind {
	case KindNull:
		return append(b, 'n')
	case KindBool:
		if v.b {
			return append(b, 'T')
		}
		return append(b, 'F')
	case KindInt:
		b = append(b, 'i')
		b = strconv.AppendInt(b, v.i, 10)
		return append(b, ';')
	case KindFloat:
		b = append(b, 'f')
		if v.f == 0 {
			// 0 and -0 compare equal.
			return append(b, '0', ';')
		}
		b = strconv.AppendUint(b, math.Float64bits(v.f), 16)
		return append(b, ';')
	case KindString:
		return appendSized(append(b, 's'), v.s)
	case KindBytes:
		return appendSized(append(b, 'b'), string(v.raw))
	case KindError:
		b = append(b, 'e')
		b = strconv.AppendInt(b, v.i, 10)
		return appendSized(append(b, ':'), v.s)
	case KindList:
		b = append(b, 'l')
		b = strconv.AppendInt(b, int64(len(v.list)), 10)
		b = append(b, ':')
		for _, item := range v.list {
			b = item.appendKey(b)
		}
		return b
	case KindMap:
		entries := make([]string, len(v.pairs))
		for i, p := range v.pairs {
			entries[i] = string(p.Value.appendKey(p.Key.appendKey(nil)))
		}
		slices.Sort(entries)
		b = append(b, 'm')
		b = strconv.AppendInt(b, int64(len(entries)), 10)
		b = append(b, ':')
		for _, e := range entries {
			b = append(b, e...)
		}
		return b
	}
	return append(b, '?')
}

func appendSized(b []byte, s string) []byte {
	b = strconv.AppendInt(b, int64(len(s)), 10)
	b = append(b, ':')
	return append(b, s...)
}

// Error returns an error value carrying message and code.
func Error(message string, code int) Value {
	return Value{kind: KindError, s: message, i: int64(code)}
}

// StringMap builds a Map value with text keys, in the given key order.
func StringMap(keys []string, values []Value) Value {
	pairs := make([]Pair, 0, len(keys))
	for i, k := range keys {
		pairs = append(pairs, Pair{Key: String(k), Value: values[i]})
	}
	return Map(pairs...)
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsError reports whether v is an error value.
func (v Value) IsError() bool { return v.kind == KindError }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer payload.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the float payload.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsString returns the text payload.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsBytes returns a copy of the byte payload.
func (v Value) AsBytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	out := make([]byte, len(v.raw))
	copy(out, v.raw)
	return out, true
}

// AsList returns a copy of the list elements.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	out := make([]Value, len(v.list))
	copy(out, v.list)
	return out, true
}

// AsMap returns a copy of the map pairs.
func (v Value) AsMap() ([]Pair, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	out := make([]Pair, len(v.pairs))
	copy(out, v.pairs)
	return out, true
}

// AsError returns the error message and code.
func (v Value) AsError() (string, int, bool) {
	return v.s, int(v.i), v.kind == KindError
}

// Text returns the payload of a String or Bytes value as text.
// It is how command arguments are read.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString:
		return v.s, true
	case KindBytes:
		return string(v.raw), true
	default:
		return "", false
	}
}

// Len returns the element count of a List, the pair count of a Map, or
// the byte length of a String or Bytes value, and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.pairs)
	case KindString:
		return len(v.s)
	case KindBytes:
		return len(v.raw)
	default:
		return 0
	}
}

// Index returns the i-th element of a List value.
func (v Value) Index(i int) Value {
	if v.kind != KindList || i < 0 || i >= len(v.list) {
		return Null()
	}
	return v.list[i]
}

// Lookup returns the value stored under a text key of a Map value.
func (v Value) Lookup(key string) (Value, bool) {
	if v.kind != KindMap {
		return Null(), false
	}
	for _, p := range v.pairs {
		if s, ok := p.Key.Text(); ok && s == key {
			return p.Value, true
		}
	}
	return Null(), false
}

// Equal reports whether v and o hold the same variant and payload.
// Maps compare without regard to pair order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || math.Float64bits(v.f) == math.Float64bits(o.f)
	case KindString:
		return v.s == o.s
	case KindBytes:
		return bytes.Equal(v.raw, o.raw)
	case KindError:
		return v.s == o.s && v.i == o.i
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.pairs) != len(o.pairs) {
			return false
		}
		index := make(map[string]int, len(o.pairs))
		for i, q := range o.pairs {
			index[q.Key.indexKey()] = i
		}
		for _, p := range v.pairs {
			i, ok := index[p.Key.indexKey()]
			if !ok || !p.Value.Equal(o.pairs[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders v for logs and diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "(nil)"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	case KindBytes:
		return "<" + strconv.Itoa(len(v.raw)) + " bytes>"
	case KindError:
		return "(error) " + v.s
	default:
		b, err := v.MarshalJSON()
		if err != nil {
			return "<" + v.kind.String() + ">"
		}
		return string(b)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
