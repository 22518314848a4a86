package domain

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/resp"
)

// MaxJSONDepth bounds nesting of a JSON payload given to SET. Deeper
// documents are stored as plain strings. It leaves room under
// resp.MaxDepth for the MGET envelope so every stored value can be read back.
const MaxJSONDepth = resp.MaxDepth - 4

var errJSONTooDeep = errors.New("json nesting too deep")

// InferValue interprets a SET payload. Rules apply in order:
//
//  1. {...} or [...] parsed as JSON (integer literals become Int, other
//     numbers Float); a document that fails to parse stays a String
//  2. true / false in any letter case become Bool
//  3. a signed decimal integer that fits int64 becomes Int
//  4. a finite decimal float (3.14, 1e3) becomes Float
//  5. anything else is a String
//
// The caller is expected to trim s first.
func InferValue(s string) resp.Value {
	if looksLikeJSON(s) {
		if v, err := parseJSON(s); err == nil {
			return v
		}
		return resp.String(s)
	}

	if strings.EqualFold(s, "true") {
		return resp.Bool(true)
	}
	if strings.EqualFold(s, "false") {
		return resp.Bool(false)
	}

	if isDecimal(s, false) {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return resp.Int(i)
		}
	}

	if isDecimal(s, true) {
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) {
			return resp.Float(f)
		}
	}

	return resp.String(s)
}

func looksLikeJSON(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return (first == '{' && last == '}') || (first == '[' && last == ']')
}

// isDecimal reports whether s is an optionally signed run of ASCII digits.
// With fraction set it also allows one '.' and an exponent, which keeps
// inf, nan and hex floats away from strconv.ParseFloat.
func isDecimal(s string, fraction bool) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
	}
	digits, dot, exp := 0, false, false
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			digits++
		case fraction && c == '.' && !dot && !exp:
			dot = true
		case fraction && (c == 'e' || c == 'E') && !exp && digits > 0:
			exp = true
			if i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-') {
				i++
			}
			if i+1 >= len(s) {
				return false
			}
		default:
			return false
		}
	}
	return digits > 0
}

func parseJSON(s string) (resp.Value, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	v, err := decodeJSON(dec, 0)
	if err != nil {
		return resp.Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return resp.Value{}, errors.New("trailing data after json document")
	}
	return v, nil
}

// decodeJSON walks the token stream so object keys keep document order.
func decodeJSON(dec *json.Decoder, depth int) (resp.Value, error) {
	if depth > MaxJSONDepth {
		return resp.Value{}, errJSONTooDeep
	}

	tok, err := dec.Token()
	if err != nil {
		return resp.Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var pairs []resp.Pair
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return resp.Value{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return resp.Value{}, errors.New("json object key is not a string")
				}
				val, err := decodeJSON(dec, depth+1)
				if err != nil {
					return resp.Value{}, err
				}
				pairs = append(pairs, resp.Pair{Key: resp.String(key), Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return resp.Value{}, err
			}
			return resp.Map(pairs...), nil
		case '[':
			var items []resp.Value
			for dec.More() {
				val, err := decodeJSON(dec, depth+1)
				if err != nil {
					return resp.Value{}, err
				}
				items = append(items, val)
			}
			if _, err := dec.Token(); err != nil {
				return resp.Value{}, err
			}
			return resp.List(items...), nil
		}
		return resp.Value{}, errors.New("unexpected json delimiter")
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return resp.Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return resp.Value{}, err
		}
		return resp.Float(f), nil
	case string:
		return resp.String(t), nil
	case bool:
		return resp.Bool(t), nil
	case nil:
		return resp.Null(), nil
	}
	return resp.Value{}, errors.New("unexpected json token")
}
