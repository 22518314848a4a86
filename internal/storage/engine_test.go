package storage

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PhantomXD-nepal/KrishnaBackend/internal/telemetry/metric"
	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/resp"
)

func newTestEngine(t *testing.T, cfg Config) (*Engine, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	cfg.Logger = slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, &logs
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/tmp/test-data")

	if cfg.DataDir != "/tmp/test-data" {
		t.Errorf("DataDir = %s, want /tmp/test-data", cfg.DataDir)
	}
	if got := cfg.SnapshotPath(); got != filepath.Join("/tmp/test-data", DefaultSnapshotFile) {
		t.Errorf("SnapshotPath() = %s", got)
	}

	cfg.SnapshotFile = "/var/lib/krishnadb/other.kdb"
	if got := cfg.SnapshotPath(); got != "/var/lib/krishnadb/other.kdb" {
		t.Errorf("absolute SnapshotPath() = %s", got)
	}
}

func TestEngine_New(t *testing.T) {
	t.Run("missing data_dir", func(t *testing.T) {
		if _, err := New(Config{}); err == nil {
			t.Error("expected error for missing data_dir")
		}
	})

	t.Run("short encryption key", func(t *testing.T) {
		cfg := DefaultConfig(t.TempDir())
		cfg.EncryptionKey = []byte("short")
		if _, err := New(cfg); err == nil {
			t.Error("expected error for short encryption key")
		}
	})
}

func TestEngine_SaveAndRecover(t *testing.T) {
	dir := t.TempDir()

	e1, _ := newTestEngine(t, DefaultConfig(dir))
	if err := e1.Recover(context.Background()); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	e1.Store().Set("x", resp.Int(123))
	e1.Store().Set("f", resp.Bytes([]byte{0, 1, 2}))
	if err := e1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	e2, _ := newTestEngine(t, DefaultConfig(dir))
	if err := e2.Recover(context.Background()); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if got, ok := e2.Store().Get("x"); !ok || !got.Equal(resp.Int(123)) {
		t.Errorf("x = %v, %v; want 123", got, ok)
	}
	if got, ok := e2.Store().Get("f"); !ok || !got.Equal(resp.Bytes([]byte{0, 1, 2})) {
		t.Errorf("f = %v, %v", got, ok)
	}
}

func TestEngine_RecoverMissingSnapshot(t *testing.T) {
	e, logs := newTestEngine(t, DefaultConfig(t.TempDir()))

	if err := e.Recover(context.Background()); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if e.Store().Len() != 0 {
		t.Errorf("Len() = %d, want 0", e.Store().Len())
	}
	if !strings.Contains(logs.String(), "no snapshot found") {
		t.Errorf("missing-file log not found in %s", logs.String())
	}
}

func TestEngine_RecoverCorruptedSnapshot(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)

	e1, _ := newTestEngine(t, cfg)
	e1.Store().Set("x", resp.String("value"))
	if _, err := e1.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := cfg.SnapshotPath()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	raw[len(raw)/2] ^= 0xff
	if err := os.WriteFile(path, raw, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	e2, logs := newTestEngine(t, cfg)
	if err := e2.Recover(context.Background()); err != nil {
		t.Fatalf("Recover should not fail on corruption: %v", err)
	}
	if e2.Store().Len() != 0 {
		t.Errorf("Len() = %d, want 0 after corrupted snapshot", e2.Store().Len())
	}
	if !strings.Contains(logs.String(), `"level":"ERROR"`) {
		t.Errorf("corruption not logged at error level: %s", logs.String())
	}
}

func TestEngine_EncryptedRoundTripAndWrongKey(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.EncryptionKey = []byte("correct horse battery staple")

	e1, _ := newTestEngine(t, cfg)
	e1.Store().Set("secret", resp.String("s3cr3t"))
	if err := e1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, _ := os.ReadFile(cfg.SnapshotPath())
	if bytes.Contains(raw, []byte("s3cr3t")) {
		t.Error("plaintext value found in encrypted snapshot")
	}

	e2, _ := newTestEngine(t, cfg)
	_ = e2.Recover(context.Background())
	if got, _ := e2.Store().Get("secret"); !got.Equal(resp.String("s3cr3t")) {
		t.Errorf("secret = %v after recovery with the right key", got)
	}

	wrong := cfg
	wrong.EncryptionKey = []byte("a different sixteen+ key")
	e3, logs := newTestEngine(t, wrong)
	_ = e3.Recover(context.Background())
	if e3.Store().Len() != 0 {
		t.Errorf("Len() = %d with the wrong key, want 0", e3.Store().Len())
	}
	if !strings.Contains(logs.String(), "decryption failed") {
		t.Errorf("decryption failure not logged: %s", logs.String())
	}
}

func TestEngine_CloseSavesOnce(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	cfg.Metrics = metric.NewRegistry()

	e, _ := newTestEngine(t, cfg)
	e.Store().Set("a", resp.Int(1))

	if err := e.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	e.Store().Set("b", resp.Int(2))
	if err := e.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	e2, _ := newTestEngine(t, DefaultConfig(cfg.DataDir))
	_ = e2.Recover(context.Background())
	if _, ok := e2.Store().Get("b"); ok {
		t.Error("second Close wrote the snapshot again")
	}
	if _, ok := e2.Store().Get("a"); !ok {
		t.Error("first Close did not write the snapshot")
	}
}

func TestEngine_SaveFailureIsReturned(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	e, logs := newTestEngine(t, cfg)

	// Replace the data directory with a file so the temp file cannot be created.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if err := os.WriteFile(dir, []byte("not a dir"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Cleanup(func() { os.Remove(dir) })

	if _, err := e.Save(context.Background()); err == nil {
		t.Fatal("Save into a missing directory should fail")
	}
	if !strings.Contains(logs.String(), "snapshot save failed") {
		t.Errorf("save failure not logged: %s", logs.String())
	}
}

func TestEngine_RecoverCanceled(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig(t.TempDir()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := e.Recover(ctx); err == nil {
		t.Error("Recover with canceled context should fail")
	}
}
