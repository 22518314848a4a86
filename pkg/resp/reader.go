package resp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Type tags.
const (
	TagSimpleString = '+'
	TagError        = '-'
	TagInteger      = ':'
	TagFloat        = ','
	TagBulkString   = '$'
	TagBulkBytes    = '='
	TagArray        = '*'
	TagMap          = '%'
	TagBoolean      = '#'
)

// Protocol limits.
const (
	// MaxLineLen limits a single CRLF-terminated header or scalar line.
	MaxLineLen = 64 * 1024

	// DefaultMaxBulkLen limits a single bulk payload (512MB).
	DefaultMaxBulkLen = 512 * 1024 * 1024

	// DefaultMaxElements limits the element count of one array or map.
	DefaultMaxElements = 1024 * 1024

	// MaxDepth limits nesting of arrays and maps.
	MaxDepth = 64
)

// bulkChunk is the initial buffer for a bulk payload.
const bulkChunk = 64 * 1024

// DefaultErrorCode is the code attached to decoded error frames, since
// codes are not carried on the wire.
const DefaultErrorCode = 500

var (
	// ErrProtocol reports a malformed frame.
	ErrProtocol = errors.New("resp: protocol error")

	// ErrLimitExceeded reports a frame over one of the protocol limits.
	// It matches ErrProtocol under errors.Is.
	ErrLimitExceeded = fmt.Errorf("%w: limit exceeded", ErrProtocol)

	// ErrDisconnect reports a clean end of stream between frames.
	ErrDisconnect = errors.New("resp: disconnected")
)

// Reader decodes values from a byte stream.
type Reader struct {
	br          *bufio.Reader
	maxBulkLen  int
	maxElements int
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxBulkLen overrides DefaultMaxBulkLen.
func WithMaxBulkLen(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.maxBulkLen = n
		}
	}
}

// WithMaxElements overrides DefaultMaxElements.
func WithMaxElements(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.maxElements = n
		}
	}
}

// NewReader returns a Reader over rd. If rd is already a *bufio.Reader it
// is used directly.
func NewReader(rd io.Reader, opts ...ReaderOption) *Reader {
	br, ok := rd.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(rd)
	}
	r := &Reader{
		br:          br,
		maxBulkLen:  DefaultMaxBulkLen,
		maxElements: DefaultMaxElements,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Buffered returns the number of bytes already read from the stream but
// not yet decoded.
func (r *Reader) Buffered() int {
	return r.br.Buffered()
}

// Wait blocks until the first byte of the next frame is available without
// consuming it. It returns ErrDisconnect on a clean end of stream.
func (r *Reader) Wait() error {
	if _, err := r.br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrDisconnect
		}
		return err
	}
	return nil
}

// Read decodes exactly one value. It returns ErrDisconnect when the stream
// ends before the first byte of a frame.
func (r *Reader) Read() (Value, error) {
	tag, err := r.br.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, ErrDisconnect
		}
		return Value{}, err
	}
	return r.readTagged(tag, 0)
}

func (r *Reader) read(depth int) (Value, error) {
	tag, err := r.br.ReadByte()
	if err != nil {
		return Value{}, unexpected(err)
	}
	return r.readTagged(tag, depth)
}

func (r *Reader) readTagged(tag byte, depth int) (Value, error) {
	switch tag {
	case TagSimpleString:
		line, err := r.readLine()
		if err != nil {
			return Value{}, err
		}
		return String(line), nil
	case TagError:
		line, err := r.readLine()
		if err != nil {
			return Value{}, err
		}
		return Error(line, DefaultErrorCode), nil
	case TagInteger:
		return r.readInteger()
	case TagFloat:
		return r.readFloat()
	case TagBulkString:
		return r.readBulk(false)
	case TagBulkBytes:
		return r.readBulk(true)
	case TagArray:
		return r.readArray(depth)
	case TagMap:
		return r.readMap(depth)
	case TagBoolean:
		return r.readBoolean()
	default:
		return Value{}, fmt.Errorf("%w: unknown type tag %q", ErrProtocol, tag)
	}
}

func (r *Reader) readInteger() (Value, error) {
	line, err := r.readLine()
	if err != nil {
		return Value{}, err
	}
	n, err := strconv.ParseInt(line, 10, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: invalid integer %q", ErrProtocol, line)
	}
	return Int(n), nil
}

func (r *Reader) readFloat() (Value, error) {
	line, err := r.readLine()
	if err != nil {
		return Value{}, err
	}
	switch strings.ToLower(line) {
	case "inf", "+inf":
		return Float(math.Inf(1)), nil
	case "-inf":
		return Float(math.Inf(-1)), nil
	case "nan":
		return Float(math.NaN()), nil
	}
	f, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: invalid float %q", ErrProtocol, line)
	}
	return Float(f), nil
}

func (r *Reader) readBoolean() (Value, error) {
	line, err := r.readLine()
	if err != nil {
		return Value{}, err
	}
	switch line {
	case "t":
		return Bool(true), nil
	case "f":
		return Bool(false), nil
	default:
		return Value{}, fmt.Errorf("%w: invalid boolean %q", ErrProtocol, line)
	}
}

func (r *Reader) readBulk(raw bool) (Value, error) {
	n, err := r.readLength(r.maxBulkLen, "bulk")
	if err != nil {
		return Value{}, err
	}
	if n == -1 {
		return Null(), nil
	}

	// The buffer grows with the bytes that actually arrive, so a large
	// declared length costs nothing until the payload is sent.
	var buf bytes.Buffer
	buf.Grow(min(n, bulkChunk))
	if _, err := io.CopyN(&buf, r.br, int64(n)); err != nil {
		return Value{}, unexpected(err)
	}
	var crlf [2]byte
	if _, err := io.ReadFull(r.br, crlf[:]); err != nil {
		return Value{}, unexpected(err)
	}
	if crlf != [2]byte{'\r', '\n'} {
		return Value{}, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
	}
	if raw {
		return Value{kind: KindBytes, raw: buf.Bytes()}, nil
	}
	return String(buf.String()), nil
}

func (r *Reader) readArray(depth int) (Value, error) {
	n, err := r.readLength(r.maxElements, "array")
	if err != nil {
		return Value{}, err
	}
	if n == -1 {
		return Null(), nil
	}
	if depth+1 > MaxDepth {
		return Value{}, fmt.Errorf("%w: nesting deeper than %d", ErrLimitExceeded, MaxDepth)
	}

	items := make([]Value, 0, min(n, 1024))
	for i := 0; i < n; i++ {
		v, err := r.read(depth + 1)
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
	return Value{kind: KindList, list: items}, nil
}

func (r *Reader) readMap(depth int) (Value, error) {
	n, err := r.readLength(r.maxElements, "map")
	if err != nil {
		return Value{}, err
	}
	if n == -1 {
		return Null(), nil
	}
	if depth+1 > MaxDepth {
		return Value{}, fmt.Errorf("%w: nesting deeper than %d", ErrLimitExceeded, MaxDepth)
	}

	pairs := make([]Pair, 0, min(n, 1024))
	for i := 0; i < n; i++ {
		k, err := r.read(depth + 1)
		if err != nil {
			return Value{}, err
		}
		v, err := r.read(depth + 1)
		if err != nil {
			return Value{}, err
		}
		pairs = append(pairs, Pair{Key: k, Value: v})
	}
	return Map(pairs...), nil
}

// readLength reads a length header. -1 is returned as is and means null.
func (r *Reader) readLength(limit int, what string) (int, error) {
	line, err := r.readLine()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s length %q", ErrProtocol, what, line)
	}
	if n == -1 {
		return -1, nil
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: invalid %s length %d", ErrProtocol, what, n)
	}
	if n > limit {
		return 0, fmt.Errorf("%w: %s length %d exceeds limit %d", ErrLimitExceeded, what, n, limit)
	}
	return n, nil
}

func (r *Reader) readLine() (string, error) {
	var buf []byte
	for {
		frag, err := r.br.ReadSlice('\n')
		if err == nil {
			buf = append(buf, frag...)
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			buf = append(buf, frag...)
			if len(buf) > MaxLineLen {
				return "", fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, MaxLineLen)
			}
			continue
		}
		return "", unexpected(err)
	}

	if len(buf) > MaxLineLen {
		return "", fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, MaxLineLen)
	}
	if len(buf) < 2 || buf[len(buf)-2] != '\r' {
		return "", fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}
	return string(buf[:len(buf)-2]), nil
}

// unexpected maps an end of stream inside a frame to a protocol error.
func unexpected(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrProtocol, io.ErrUnexpectedEOF)
	}
	return err
}
