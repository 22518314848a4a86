package snapshot

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/tchajed/marshal"

	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/resp"
)

// ErrCorrupt reports a data block that does not decode.
var ErrCorrupt = errors.New("snapshot: corrupt data")

// Value tags in the data block. They are part of the file format and
// must not be renumbered.
const (
	tagNull uint64 = iota
	tagBool
	tagInt
	tagFloat
	tagString
	tagBytes
	tagList
	tagMap
	tagError
)

// maxDecodeDepth is well above any nesting SET can produce.
const maxDecodeDepth = 1024

// encodeEntries writes count, then (keyLen key value) per entry, keys sorted
// so equal stores produce equal files.
func encodeEntries(data map[string]resp.Value) []byte {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var enc = make([]byte, 0, 64*len(keys))
	enc = marshal.WriteInt(enc, uint64(len(keys)))
	for _, k := range keys {
		enc = writeBlob(enc, []byte(k))
		enc = encodeValue(enc, data[k])
	}
	return enc
}

func writeBlob(enc, b []byte) []byte {
	enc = marshal.WriteInt(enc, uint64(len(b)))
	return marshal.WriteBytes(enc, b)
}

func encodeValue(enc []byte, v resp.Value) []byte {
	switch v.Kind() {
	case resp.KindBool:
		b, _ := v.AsBool()
		var n uint64
		if b {
			n = 1
		}
		enc = marshal.WriteInt(enc, tagBool)
		enc = marshal.WriteInt(enc, n)
	case resp.KindInt:
		i, _ := v.AsInt()
		enc = marshal.WriteInt(enc, tagInt)
		enc = marshal.WriteInt(enc, uint64(i))
	case resp.KindFloat:
		f, _ := v.AsFloat()
		enc = marshal.WriteInt(enc, tagFloat)
		enc = marshal.WriteInt(enc, math.Float64bits(f))
	case resp.KindString:
		s, _ := v.AsString()
		enc = marshal.WriteInt(enc, tagString)
		enc = writeBlob(enc, []byte(s))
	case resp.KindBytes:
		b, _ := v.AsBytes()
		enc = marshal.WriteInt(enc, tagBytes)
		enc = writeBlob(enc, b)
	case resp.KindList:
		items, _ := v.AsList()
		enc = marshal.WriteInt(enc, tagList)
		enc = marshal.WriteInt(enc, uint64(len(items)))
		for _, item := range items {
			enc = encodeValue(enc, item)
		}
	case resp.KindMap:
		pairs, _ := v.AsMap()
		enc = marshal.WriteInt(enc, tagMap)
		enc = marshal.WriteInt(enc, uint64(len(pairs)))
		for _, p := range pairs {
			enc = encodeValue(enc, p.Key)
			enc = encodeValue(enc, p.Value)
		}
	case resp.KindError:
		msg, code, _ := v.AsError()
		enc = marshal.WriteInt(enc, tagError)
		enc = marshal.WriteInt(enc, uint64(int64(code)))
		enc = writeBlob(enc, []byte(msg))
	default:
		enc = marshal.WriteInt(enc, tagNull)
	}
	return enc
}

// decoder walks a data block. marshal.ReadInt and ReadBytes slice without
// checking, so every read is bounds-checked here first.
type decoder struct {
	b []byte
}

func (d *decoder) int() (uint64, error) {
	if len(d.b) < 8 {
		return 0, fmt.Errorf("%w: truncated integer", ErrCorrupt)
	}
	var n uint64
	n, d.b = marshal.ReadInt(d.b)
	return n, nil
}

// count reads an element count and rejects one that cannot fit in the
// remaining bytes, given each element takes at least minSize bytes.
func (d *decoder) count(minSize int) (int, error) {
	n, err := d.int()
	if err != nil {
		return 0, err
	}
	if n > uint64(len(d.b)/minSize) {
		return 0, fmt.Errorf("%w: count %d exceeds remaining data", ErrCorrupt, n)
	}
	return int(n), nil
}

func (d *decoder) blob() ([]byte, error) {
	n, err := d.int()
	if err != nil {
		return nil, err
	}
	if n > uint64(len(d.b)) {
		return nil, fmt.Errorf("%w: blob length %d exceeds remaining data", ErrCorrupt, n)
	}
	var b []byte
	b, d.b = marshal.ReadBytesCopy(d.b, n)
	return b, nil
}

func decodeEntries(b []byte) (map[string]resp.Value, error) {
	d := &decoder{b: b}

	// Smallest entry: empty key (8) plus a null value (8).
	n, err := d.count(16)
	if err != nil {
		return nil, err
	}

	data := make(map[string]resp.Value, n)
	for i := 0; i < n; i++ {
		key, err := d.blob()
		if err != nil {
			return nil, err
		}
		v, err := d.value(0)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		data[string(key)] = v
	}
	if len(d.b) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(d.b))
	}
	return data, nil
}

func (d *decoder) value(depth int) (resp.Value, error) {
	if depth > maxDecodeDepth {
		return resp.Value{}, fmt.Errorf("%w: nesting too deep", ErrCorrupt)
	}

	tag, err := d.int()
	if err != nil {
		return resp.Value{}, err
	}

	switch tag {
	case tagNull:
		return resp.Null(), nil
	case tagBool:
		n, err := d.int()
		if err != nil {
			return resp.Value{}, err
		}
		if n > 1 {
			return resp.Value{}, fmt.Errorf("%w: bad boolean %d", ErrCorrupt, n)
		}
		return resp.Bool(n == 1), nil
	case tagInt:
		n, err := d.int()
		if err != nil {
			return resp.Value{}, err
		}
		return resp.Int(int64(n)), nil
	case tagFloat:
		n, err := d.int()
		if err != nil {
			return resp.Value{}, err
		}
		return resp.Float(math.Float64frombits(n)), nil
	case tagString:
		b, err := d.blob()
		if err != nil {
			return resp.Value{}, err
		}
		return resp.String(string(b)), nil
	case tagBytes:
		b, err := d.blob()
		if err != nil {
			return resp.Value{}, err
		}
		return resp.Bytes(b), nil
	case tagList:
		n, err := d.count(8)
		if err != nil {
			return resp.Value{}, err
		}
		items := make([]resp.Value, 0, n)
		for i := 0; i < n; i++ {
			item, err := d.value(depth + 1)
			if err != nil {
				return resp.Value{}, err
			}
			items = append(items, item)
		}
		return resp.List(items...), nil
	case tagMap:
		n, err := d.count(16)
		if err != nil {
			return resp.Value{}, err
		}
		pairs := make([]resp.Pair, 0, n)
		for i := 0; i < n; i++ {
			k, err := d.value(depth + 1)
			if err != nil {
				return resp.Value{}, err
			}
			v, err := d.value(depth + 1)
			if err != nil {
				return resp.Value{}, err
			}
			pairs = append(pairs, resp.Pair{Key: k, Value: v})
		}
		return resp.Map(pairs...), nil
	case tagError:
		code, err := d.int()
		if err != nil {
			return resp.Value{}, err
		}
		msg, err := d.blob()
		if err != nil {
			return resp.Value{}, err
		}
		return resp.Error(string(msg), int(int64(code))), nil
	default:
		return resp.Value{}, fmt.Errorf("%w: unknown value tag %d", ErrCorrupt, tag)
	}
}
