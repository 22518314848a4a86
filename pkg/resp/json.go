package resp

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// MarshalJSON renders v as plain JSON: lists become arrays, maps become
// objects, bytes become base64 and errors become {"error":…,"code":…}.
// Non-finite floats are rendered as strings since JSON has no spelling
// for them.
//
// Object keys keep String keys as they are. Any other key is written as
// "~<kind>:<text>", for example "~integer:1" or "~bytes:aGk=", and a String
// key that itself starts with '~' gets a second '~'. Distinct keys of one
// map therefore never share a name.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := appendJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendJSON(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return appendJSONString(buf, formatFloat(v.f))
		}
		b, err := json.Marshal(v.f)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindString:
		return appendJSONString(buf, v.s)
	case KindBytes:
		return appendJSONString(buf, base64.StdEncoding.EncodeToString(v.raw))
	case KindError:
		buf.WriteString(`{"error":`)
		if err := appendJSONString(buf, v.s); err != nil {
			return err
		}
		buf.WriteString(`,"code":` + strconv.FormatInt(v.i, 10) + "}")
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, p := range v.pairs {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := p.Key.objectKey()
			if err != nil {
				return err
			}
			if err := appendJSONString(buf, key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := appendJSON(buf, p.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

const keyEscape = "~"

// objectKey names v when it is used as a JSON object key.
func (v Value) objectKey() (string, error) {
	var text string
	switch v.kind {
	case KindString:
		if strings.HasPrefix(v.s, keyEscape) {
			return keyEscape + v.s, nil
		}
		return v.s, nil
	case KindNull:
	case KindBool:
		text = strconv.FormatBool(v.b)
	case KindInt:
		text = strconv.FormatInt(v.i, 10)
	case KindFloat:
		switch {
		case v.f == 0:
			text = "0"
		case math.IsNaN(v.f):
			text = "nan(" + strconv.FormatUint(math.Float64bits(v.f), 16) + ")"
		default:
			text = strconv.FormatFloat(v.f, 'g', -1, 64)
		}
	case KindBytes:
		text = base64.StdEncoding.EncodeToString(v.raw)
	default:
		var buf bytes.Buffer
		if err := appendJSON(&buf, v); err != nil {
			return "", err
		}
		text = buf.String()
	}
	return keyEscape + v.kind.String() + ":" + text, nil
}

func appendJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// Native converts v into plain Go values (nil, bool, int64, float64,
// string, []byte, []any, map[string]any) for encoders that do not know
// about Value, such as YAML.
func (v Value) Native() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBytes:
		out := make([]byte, len(v.raw))
		copy(out, v.raw)
		return out
	case KindError:
		return map[string]any{"error": v.s, "code": v.i}
	case KindList:
		out := make([]any, 0, len(v.list))
		for _, item := range v.list {
			out = append(out, item.Native())
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.pairs))
		for _, p := range v.pairs {
			key, err := p.Key.objectKey()
			if err != nil {
				key = "~" + p.Key.kind.String() + ":" + p.Key.String()
			}
			out[key] = p.Value.Native()
		}
		return out
	default:
		return nil
	}
}
