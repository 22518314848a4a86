package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PhantomXD-nepal/KrishnaBackend/internal/core/domain"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/storage/memory"
	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/resp"
)

func newTestService(opts ...Option) (*KVService, *memory.Store) {
	store := memory.New()
	return NewKVService(store, opts...), store
}

func lookup(t *testing.T, v resp.Value, key string) resp.Value {
	t.Helper()
	got, ok := v.Lookup(key)
	if !ok {
		t.Fatalf("reply %v has no field %q", v, key)
	}
	return got
}

func TestKVService_Ping(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if got := svc.Ping(ctx); !got.Equal(resp.String("PONG")) {
		t.Errorf("Ping() = %v, want PONG", got)
	}
	if got := svc.Ping(ctx, "hello"); !got.Equal(resp.String("hello")) {
		t.Errorf("Ping(hello) = %v, want hello", got)
	}
}

func TestKVService_SetInfersType(t *testing.T) {
	tests := []struct {
		name     string
		parts    []string
		wantType string
		wantSize int64
		want     resp.Value
	}{
		{"integer", []string{"123"}, "integer", 3, resp.Int(123)},
		{"boolean", []string{"true"}, "boolean", 4, resp.Bool(true)},
		{"float", []string{"3.14"}, "float", 4, resp.Float(3.14)},
		{"string", []string{"hello"}, "string", 7, resp.String("hello")},
		{"joined", []string{" hello", "big", "world "}, "string", 17, resp.String("hello big world")},
		{"json map", []string{`{"a":1}`}, "map", 7, resp.Map(resp.Pair{Key: resp.String("a"), Value: resp.Int(1)})},
		{"json split across args", []string{`{"a":`, `1}`}, "map", 7, resp.Map(resp.Pair{Key: resp.String("a"), Value: resp.Int(1)})},
		{"json list", []string{"[1,2]"}, "list", 5, resp.List(resp.Int(1), resp.Int(2))},
		{"empty", nil, "string", 2, resp.String("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService()
			reply := svc.Set(context.Background(), "k", tt.parts...)

			if got := lookup(t, reply, "status"); !got.Equal(resp.String("OK")) {
				t.Errorf("status = %v", got)
			}
			if got := lookup(t, reply, "type"); !got.Equal(resp.String(tt.wantType)) {
				t.Errorf("type = %v, want %s", got, tt.wantType)
			}
			if got := lookup(t, reply, "size"); !got.Equal(resp.Int(tt.wantSize)) {
				t.Errorf("size = %v, want %d", got, tt.wantSize)
			}
			if stored, _ := store.Get("k"); !stored.Equal(tt.want) {
				t.Errorf("stored = %v, want %v", stored, tt.want)
			}
		})
	}
}

func TestKVService_GetDelete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if got := svc.Get(ctx, "x"); !got.IsNull() {
		t.Fatalf("Get(absent) = %v, want null", got)
	}

	svc.Set(ctx, "x", "123")
	if got := svc.Get(ctx, "x"); !got.Equal(resp.Int(123)) {
		t.Fatalf("Get(x) = %v, want 123", got)
	}

	if got := svc.Delete(ctx, "x"); !got.Equal(resp.String("OK")) {
		t.Errorf("Delete(x) = %v, want OK", got)
	}
	if got := svc.Delete(ctx, "x"); !got.Equal(resp.String("Key not found")) {
		t.Errorf("second Delete(x) = %v, want Key not found", got)
	}
	if got := svc.Get(ctx, "x"); !got.IsNull() {
		t.Errorf("Get after Delete = %v, want null", got)
	}
}

func TestKVService_Flush(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	svc.MSet(ctx, "a", "1", "b", "2", "c", "3")

	reply := svc.Flush(ctx)
	if got := lookup(t, reply, "deleted"); !got.Equal(resp.Int(3)) {
		t.Errorf("deleted = %v, want 3", got)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d after Flush", store.Len())
	}
}

func TestKVService_MSetOddArgs(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	reply := svc.MSet(ctx, "a", "1", "b", "2", "dangling")
	if got := lookup(t, reply, "count"); !got.Equal(resp.Int(2)) {
		t.Errorf("count = %v, want 2", got)
	}
	if _, ok := store.Get("dangling"); ok {
		t.Error("trailing unpaired argument was stored as a key")
	}
	if got, _ := store.Get("a"); !got.Equal(resp.String("1")) {
		t.Errorf("a = %v, want raw string 1", got)
	}
}

func TestKVService_MGet(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	svc.Set(ctx, "n", "42")
	svc.Set(ctx, "s", "hi")

	reply := svc.MGet(ctx, "s", "missing", "n")
	items, ok := reply.AsList()
	if !ok || len(items) != 3 {
		t.Fatalf("MGet() = %v, want list of 3", reply)
	}

	if got := lookup(t, items[0], "type"); !got.Equal(resp.String("string")) {
		t.Errorf("items[0].type = %v", got)
	}
	if got := lookup(t, items[0], "value"); !got.Equal(resp.String("hi")) {
		t.Errorf("items[0].value = %v", got)
	}
	if !items[1].IsNull() {
		t.Errorf("items[1] = %v, want null", items[1])
	}
	if got := lookup(t, items[2], "value"); !got.Equal(resp.Int(42)) {
		t.Errorf("items[2].value = %v", got)
	}
}

func TestKVService_Edit(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	if got := svc.Edit(ctx, "k", "v"); !got.Equal(resp.String("Key not found")) {
		t.Fatalf("Edit(absent) = %v", got)
	}
	if store.Len() != 0 {
		t.Fatal("Edit created a key")
	}

	svc.Set(ctx, "k", "42")
	reply := svc.Edit(ctx, "k", "forty", "two")
	if got := lookup(t, reply, "previous_type"); !got.Equal(resp.String("integer")) {
		t.Errorf("previous_type = %v", got)
	}
	if got := lookup(t, reply, "type"); !got.Equal(resp.String("string")) {
		t.Errorf("type = %v", got)
	}
	if got, _ := store.Get("k"); !got.Equal(resp.String("forty two")) {
		t.Errorf("stored = %v, want raw string", got)
	}
}

func TestKVService_SetFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x00, 0xff}
	path := filepath.Join(dir, "img.png")
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	svc, store := newTestService(WithMaxValueSize(1024))
	ctx := context.Background()

	reply, err := svc.SetFile(ctx, "img", path)
	if err != nil {
		t.Fatalf("SetFile: %v", err)
	}
	if got := lookup(t, reply, "type"); !got.Equal(resp.String("bytes")) {
		t.Errorf("type = %v", got)
	}
	if got := lookup(t, reply, "size"); !got.Equal(resp.Int(int64(len(content)))) {
		t.Errorf("size = %v", got)
	}
	if got, _ := store.Get("img"); !got.Equal(resp.Bytes(content)) {
		t.Errorf("stored = %v", got)
	}

	t.Run("missing file is a soft reply", func(t *testing.T) {
		missing := filepath.Join(dir, "nope")
		reply, err := svc.SetFile(ctx, "k", missing)
		if err != nil {
			t.Fatalf("SetFile: %v", err)
		}
		if !reply.Equal(resp.String("File not found: " + missing)) {
			t.Errorf("reply = %v", reply)
		}
	})

	t.Run("directory fails", func(t *testing.T) {
		_, err := svc.SetFile(ctx, "k", dir)
		if !domain.IsCommandError(err) {
			t.Errorf("error = %v, want CommandError", err)
		}
	})

	t.Run("too large fails", func(t *testing.T) {
		big := filepath.Join(dir, "big")
		if err := os.WriteFile(big, make([]byte, 2048), 0600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		_, err := svc.SetFile(ctx, "k", big)
		if !domain.IsCommandError(err) || !strings.Contains(err.Error(), "File too large") {
			t.Errorf("error = %v, want File too large", err)
		}
	})
}

func TestKVService_GetSize(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if got := svc.GetSize(ctx, "x"); !got.IsNull() {
		t.Errorf("GetSize(absent) = %v, want null", got)
	}

	svc.Set(ctx, "x", "hello")
	reply := svc.GetSize(ctx, "x")
	if got := lookup(t, reply, "key"); !got.Equal(resp.String("x")) {
		t.Errorf("key = %v", got)
	}
	if got := lookup(t, reply, "size"); !got.Equal(resp.Int(7)) {
		t.Errorf("size = %v, want 7", got)
	}
}

func TestKVService_TestInsert(t *testing.T) {
	svc, store := newTestService(WithMaxValueSize(64 * 1024))
	ctx := context.Background()

	reply, err := svc.TestInsert(ctx, "load", "3")
	if err != nil {
		t.Fatalf("TestInsert: %v", err)
	}
	if got := lookup(t, reply, "size"); !got.Equal(resp.Int(3072)) {
		t.Errorf("size = %v, want 3072", got)
	}
	if got := lookup(t, reply, "latency_us"); got.Kind() != resp.KindFloat {
		t.Errorf("latency_us kind = %s, want float", got.Kind())
	}
	stored, _ := store.Get("load")
	if b, ok := stored.AsBytes(); !ok || len(b) != 3072 {
		t.Errorf("stored = %s of %d bytes", stored.Kind(), len(b))
	}

	for _, bad := range []string{"abc", "-1", "1.5", ""} {
		if _, err := svc.TestInsert(ctx, "k", bad); !errors.Is(err, domain.ErrInvalidSize) {
			t.Errorf("TestInsert(%q) error = %v, want ErrInvalidSize", bad, err)
		}
	}

	if _, err := svc.TestInsert(ctx, "k", "65"); !domain.IsCommandError(err) {
		t.Errorf("oversized TestInsert error = %v, want CommandError", err)
	}
}

func TestRandomPayload(t *testing.T) {
	for _, n := range []int{0, 1, 7, 8, 9, 1024} {
		if got := len(randomPayload(n)); got != n {
			t.Errorf("len(randomPayload(%d)) = %d", n, got)
		}
	}
}
