package snapshot

import (
	"crypto/sha256"
	"errors"
	"math"
	"testing"

	"github.com/tchajed/marshal"

	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/resp"
)

func sha256Sum(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

func TestCodec_RoundTrip(t *testing.T) {
	data := sampleData()
	data["nan"] = resp.Float(math.NaN())
	data["neg"] = resp.Int(math.MinInt64)
	data["err"] = resp.Error("boom", 500)

	got, err := decodeEntries(encodeEntries(data))
	if err != nil {
		t.Fatalf("decodeEntries: %v", err)
	}
	assertSameData(t, got, data)
}

func TestCodec_Deterministic(t *testing.T) {
	a := encodeEntries(sampleData())
	b := encodeEntries(sampleData())
	if string(a) != string(b) {
		t.Error("encoding the same data twice differs")
	}
}

func TestCodec_Corrupt(t *testing.T) {
	valid := encodeEntries(map[string]resp.Value{"k": resp.String("value")})

	var hugeCount []byte
	hugeCount = marshal.WriteInt(hugeCount, math.MaxUint64)

	var badTag []byte
	badTag = marshal.WriteInt(badTag, 1)
	badTag = writeBlob(badTag, []byte("k"))
	badTag = marshal.WriteInt(badTag, 99)

	var badBool []byte
	badBool = marshal.WriteInt(badBool, 1)
	badBool = writeBlob(badBool, []byte("k"))
	badBool = marshal.WriteInt(badBool, tagBool)
	badBool = marshal.WriteInt(badBool, 2)

	tests := []struct {
		name string
		b    []byte
	}{
		{"empty", nil},
		{"short count", []byte{1, 2, 3}},
		{"truncated", valid[:len(valid)-2]},
		{"trailing", append(append([]byte{}, valid...), 0)},
		{"huge count", hugeCount},
		{"unknown tag", badTag},
		{"bad bool", badBool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeEntries(tt.b); !errors.Is(err, ErrCorrupt) {
				t.Errorf("decodeEntries error = %v, want ErrCorrupt", err)
			}
		})
	}
}
