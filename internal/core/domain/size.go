package domain

import "github.com/PhantomXD-nepal/KrishnaBackend/pkg/resp"

// SerializedSize returns the size reported by SET and GETSIZE: the raw
// length for bytes, the length of the JSON rendering for everything else.
//
//	SET x 123    -> 3
//	SET x hello  -> 7 ("hello" with quotes)
func SerializedSize(v resp.Value) int {
	if b, ok := v.AsBytes(); ok {
		return len(b)
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return len(v.String())
	}
	return len(b)
}
