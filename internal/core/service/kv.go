package service

import (
	"context"
	"encoding/binary"
	"errors"
	"io/fs"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PhantomXD-nepal/KrishnaBackend/internal/core/domain"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/storage/memory"
	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/resp"
)

// Soft results returned as plain strings rather than errors.
const (
	ReplyOK          = "OK"
	ReplyPong        = "PONG"
	ReplyKeyNotFound = "Key not found"
)

// DefaultMaxValueSize bounds SETFILE and TESTINSERT payloads when no
// limit is configured.
const DefaultMaxValueSize = resp.DefaultMaxBulkLen

// KVRepository defines the storage interface the commands run against.
type KVRepository interface {
	// Get returns the value under key.
	Get(key string) (resp.Value, bool)

	// Set stores v under key.
	Set(key string, v resp.Value)

	// Delete removes key and reports whether it existed.
	Delete(key string) bool

	// Flush removes all keys and returns how many there were.
	Flush() int

	// Edit replaces an existing key's value; it never creates a key.
	Edit(key string, v resp.Value) (resp.Value, bool)

	// MGet looks up several keys at once.
	MGet(keys []string) ([]resp.Value, []bool)

	// MSet stores several entries at once.
	MSet(entries []memory.Entry)
}

// KVService executes commands against a repository.
type KVService struct {
	repo         KVRepository
	maxValueSize int64
	now          func() time.Time
}

// Option configures a KVService.
type Option func(*KVService)

// WithMaxValueSize bounds the payload of SETFILE and TESTINSERT.
func WithMaxValueSize(n int64) Option {
	return func(s *KVService) {
		if n > 0 {
			s.maxValueSize = n
		}
	}
}

// NewKVService creates a new KVService.
func NewKVService(repo KVRepository, opts ...Option) *KVService {
	s := &KVService{
		repo:         repo,
		maxValueSize: DefaultMaxValueSize,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxValueSize returns the payload limit for SETFILE and TESTINSERT.
func (s *KVService) MaxValueSize() int64 {
	return s.maxValueSize
}

// Ping answers PONG, or echoes msg when one is given.
func (s *KVService) Ping(_ context.Context, msg ...string) resp.Value {
	if len(msg) > 0 {
		return resp.String(msg[0])
	}
	return resp.String(ReplyPong)
}

// Get returns the stored value itself, or Null when key is absent.
func (s *KVService) Get(_ context.Context, key string) resp.Value {
	v, ok := s.repo.Get(key)
	if !ok {
		return resp.Null()
	}
	return v
}

// Set joins parts with single spaces, trims the result, infers its type
// and stores it.
func (s *KVService) Set(_ context.Context, key string, parts ...string) resp.Value {
	v := domain.InferValue(strings.TrimSpace(strings.Join(parts, " ")))
	s.repo.Set(key, v)

	return record(
		field("status", resp.String(ReplyOK)),
		field("type", resp.String(v.Kind().String())),
		field("size", resp.Int(int64(domain.SerializedSize(v)))),
	)
}

// Delete removes key. The reply is OK or "Key not found".
func (s *KVService) Delete(_ context.Context, key string) resp.Value {
	if !s.repo.Delete(key) {
		return resp.String(ReplyKeyNotFound)
	}
	return resp.String(ReplyOK)
}

// Flush clears the store and reports how many keys were removed.
func (s *KVService) Flush(_ context.Context) resp.Value {
	n := s.repo.Flush()
	return record(
		field("status", resp.String(ReplyOK)),
		field("deleted", resp.Int(int64(n))),
	)
}

// MGet returns one {type, value} record per key in argument order, with
// Null for a missing key.
func (s *KVService) MGet(_ context.Context, keys ...string) resp.Value {
	values, found := s.repo.MGet(keys)

	out := make([]resp.Value, len(keys))
	for i, v := range values {
		if !found[i] {
			out[i] = resp.Null()
			continue
		}
		out[i] = record(
			field("type", resp.String(v.Kind().String())),
			field("value", v),
		)
	}
	return resp.List(out...)
}

// MSet stores each adjacent key/value pair as a raw string. A trailing
// unpaired argument is ignored.
func (s *KVService) MSet(_ context.Context, items ...string) resp.Value {
	entries := make([]memory.Entry, 0, len(items)/2)
	for i := 0; i+1 < len(items); i += 2 {
		entries = append(entries, memory.Entry{Key: items[i], Value: resp.String(items[i+1])})
	}
	s.repo.MSet(entries)

	return record(
		field("status", resp.String(ReplyOK)),
		field("count", resp.Int(int64(len(entries)))),
	)
}

// Edit overwrites an existing key with the space-joined parts as a raw
// string. A missing key is reported, never created.
func (s *KVService) Edit(_ context.Context, key string, parts ...string) resp.Value {
	v := resp.String(strings.Join(parts, " "))
	old, ok := s.repo.Edit(key, v)
	if !ok {
		return resp.String(ReplyKeyNotFound)
	}

	return record(
		field("status", resp.String(ReplyOK)),
		field("previous_type", resp.String(old.Kind().String())),
		field("type", resp.String(v.Kind().String())),
	)
}

// SetFile stores the contents of the file at path, read on the server
// host, as bytes. A missing file is a soft "File not found" reply; a
// directory, an unreadable file or one above the size limit fails.
func (s *KVService) SetFile(ctx context.Context, key, path string) (resp.Value, error) {
	if err := ctx.Err(); err != nil {
		return resp.Value{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return resp.String("File not found: " + path), nil
		}
		return resp.Value{}, domain.NewCommandError("Cannot read file: %s", path).WithCause(err)
	}
	if !info.Mode().IsRegular() {
		return resp.Value{}, domain.NewCommandError("Not a regular file: %s", path)
	}
	if info.Size() > s.maxValueSize {
		return resp.Value{}, domain.NewCommandError("File too large: %d bytes (max %d)", info.Size(), s.maxValueSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return resp.Value{}, domain.NewCommandError("Cannot read file: %s", path).WithCause(err)
	}
	if int64(len(content)) > s.maxValueSize {
		return resp.Value{}, domain.NewCommandError("File too large: %d bytes (max %d)", len(content), s.maxValueSize)
	}

	s.repo.Set(key, resp.Bytes(content))

	return record(
		field("status", resp.String(ReplyOK)),
		field("type", resp.String(resp.KindBytes.String())),
		field("size", resp.Int(int64(len(content)))),
	), nil
}

// GetSize returns {key, type, size} for a stored key, or Null.
func (s *KVService) GetSize(_ context.Context, key string) resp.Value {
	v, ok := s.repo.Get(key)
	if !ok {
		return resp.Null()
	}
	return record(
		field("key", resp.String(key)),
		field("type", resp.String(v.Kind().String())),
		field("size", resp.Int(int64(domain.SerializedSize(v)))),
	)
}

// TestInsert stores sizeKB KiB of pseudo-random bytes under key, for load
// testing, and reports how long generating and storing took.
func (s *KVService) TestInsert(_ context.Context, key, sizeKB string) (resp.Value, error) {
	kb, err := strconv.ParseInt(sizeKB, 10, 64)
	if err != nil || kb < 0 {
		return resp.Value{}, domain.ErrInvalidSize
	}
	if kb > s.maxValueSize/1024 {
		return resp.Value{}, domain.NewCommandError("Size too large: %d KB (max %d)", kb, s.maxValueSize/1024)
	}

	start := s.now()
	payload := randomPayload(int(kb) * 1024)
	s.repo.Set(key, resp.Bytes(payload))
	elapsed := s.now().Sub(start)

	return record(
		field("status", resp.String(ReplyOK)),
		field("size", resp.Int(int64(len(payload)))),
		field("latency_us", resp.Float(float64(elapsed.Nanoseconds())/1e3)),
	), nil
}

func randomPayload(n int) []byte {
	b := make([]byte, n)
	i := 0
	for ; i+8 <= n; i += 8 {
		binary.LittleEndian.PutUint64(b[i:], rand.Uint64())
	}
	if i < n {
		var tail [8]byte
		binary.LittleEndian.PutUint64(tail[:], rand.Uint64())
		copy(b[i:], tail[:])
	}
	return b
}

func field(name string, v resp.Value) resp.Pair {
	return resp.Pair{Key: resp.String(name), Value: v}
}

func record(pairs ...resp.Pair) resp.Value {
	return resp.Map(pairs...)
}
