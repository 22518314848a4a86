package resp

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Writer encodes values onto a byte stream. Output is buffered until
// Flush is called.
type Writer struct {
	bw *bufio.Writer
}

// NewWriter returns a Writer over w. If w is already a *bufio.Writer it
// is used directly.
func NewWriter(w io.Writer) *Writer {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	return &Writer{bw: bw}
}

// Flush writes any buffered data to the underlying stream.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// Write encodes v.
//
// The variants are checked in a fixed order: boolean, string, bytes,
// integer, float, error, list, map, and null last. Booleans must come
// before integers so that a true/false is never written as 1/0.
func (w *Writer) Write(v Value) error {
	return writeValue(w.bw, v)
}

func writeValue(bw *bufio.Writer, v Value) error {
	switch v.kind {
	case KindBool:
		return WriteBoolean(bw, v.b)
	case KindString:
		return WriteBulkString(bw, v.s)
	case KindBytes:
		return WriteBulkBytes(bw, v.raw)
	case KindInt:
		return WriteInteger(bw, v.i)
	case KindFloat:
		return WriteFloat(bw, v.f)
	case KindError:
		return WriteError(bw, v.s)
	case KindList:
		if err := WriteArrayHeader(bw, len(v.list)); err != nil {
			return err
		}
		for _, item := range v.list {
			if err := writeValue(bw, item); err != nil {
				return err
			}
		}
		return nil
	case KindMap:
		if err := WriteMapHeader(bw, len(v.pairs)); err != nil {
			return err
		}
		for _, p := range v.pairs {
			if err := writeValue(bw, p.Key); err != nil {
				return err
			}
			if err := writeValue(bw, p.Value); err != nil {
				return err
			}
		}
		return nil
	default:
		return WriteNullBulk(bw)
	}
}

// lineSafe strips CR and LF so a line-oriented frame cannot be split.
func lineSafe(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

func WriteSimpleString(w *bufio.Writer, s string) error {
	_, err := w.WriteString("+" + lineSafe(s) + "\r\n")
	return err
}

func WriteError(w *bufio.Writer, s string) error {
	_, err := w.WriteString("-" + lineSafe(s) + "\r\n")
	return err
}

func WriteInteger(w *bufio.Writer, n int64) error {
	_, err := w.WriteString(":" + strconv.FormatInt(n, 10) + "\r\n")
	return err
}

func WriteFloat(w *bufio.Writer, f float64) error {
	_, err := w.WriteString("," + formatFloat(f) + "\r\n")
	return err
}

func WriteBoolean(w *bufio.Writer, b bool) error {
	if b {
		_, err := w.WriteString("#t\r\n")
		return err
	}
	_, err := w.WriteString("#f\r\n")
	return err
}

func WriteNullBulk(w *bufio.Writer) error {
	_, err := w.WriteString("$-1\r\n")
	return err
}

func WriteBulk(w *bufio.Writer, b []byte) error {
	if b == nil {
		return WriteNullBulk(w)
	}
	return writeBlob(w, TagBulkString, b)
}

func WriteBulkString(w *bufio.Writer, s string) error {
	if _, err := w.WriteString("$" + strconv.Itoa(len(s)) + "\r\n"); err != nil {
		return err
	}
	if _, err := w.WriteString(s); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n")
	return err
}

func WriteBulkBytes(w *bufio.Writer, b []byte) error {
	return writeBlob(w, TagBulkBytes, b)
}

func writeBlob(w *bufio.Writer, tag byte, b []byte) error {
	if _, err := w.WriteString(string(tag) + strconv.Itoa(len(b)) + "\r\n"); err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n")
	return err
}

func WriteArrayHeader(w *bufio.Writer, n int) error {
	_, err := w.WriteString("*" + strconv.Itoa(n) + "\r\n")
	return err
}

func WriteNullArray(w *bufio.Writer) error {
	_, err := w.WriteString("*-1\r\n")
	return err
}

func WriteMapHeader(w *bufio.Writer, n int) error {
	_, err := w.WriteString("%" + strconv.Itoa(n) + "\r\n")
	return err
}

// Command builds the request array for a command and its arguments.
func Command(name string, args ...string) Value {
	items := make([]Value, 0, len(args)+1)
	items = append(items, String(name))
	for _, a := range args {
		items = append(items, String(a))
	}
	return Value{kind: KindList, list: items}
}
