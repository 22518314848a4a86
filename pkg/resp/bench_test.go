package resp

import (
	"bytes"
	"io"
	"testing"
)

func BenchmarkWriter_Command(b *testing.B) {
	w := NewWriter(io.Discard)
	cmd := Command("SET", "user:1001", `{"name":"krishna","age":7}`)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = w.Write(cmd)
	}
	_ = w.Flush()
}

func BenchmarkReader_Command(b *testing.B) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	_ = w.Write(Command("SET", "user:1001", `{"name":"krishna","age":7}`))
	_ = w.Flush()
	frame := buf.Bytes()

	b.ReportAllocs()
	b.SetBytes(int64(len(frame)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r := NewReader(bytes.NewReader(frame))
		if _, err := r.Read(); err != nil {
			b.Fatal(err)
		}
	}
}
