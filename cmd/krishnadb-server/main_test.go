package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/PhantomXD-nepal/KrishnaBackend/internal/infra/confloader"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/telemetry/logger"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "krishnadb.yaml")
	content := []byte(`
server:
  addr: "127.0.0.1:7000"
  max_clients: 8
  max_bulk_len: 1MiB
storage:
  data_dir: /tmp/krishnadb
log:
  level: debug
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:7000" || cfg.Server.MaxClients != 8 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.MaxBulkLen != 1<<20 {
		t.Errorf("MaxBulkLen = %d, want 1MiB", cfg.Server.MaxBulkLen)
	}
	if cfg.Storage.SnapshotFile != "db.kdb" {
		t.Errorf("SnapshotFile = %q, want default db.kdb", cfg.Storage.SnapshotFile)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server:\n  max_clients: -1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Error("loadConfig() accepted max_clients -1")
	}
}

func TestReloadLogLevel(t *testing.T) {
	defer func() { _ = logger.SetLevel("info") }()
	_ = logger.SetLevel("info")

	path := filepath.Join(t.TempDir(), "krishnadb.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	reloadLogLevel(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if got := logger.GetLevel(); got != "warn" {
		t.Errorf("level after reload = %q, want warn", got)
	}

	if err := os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	reloadLogLevel(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if got := logger.GetLevel(); got != "warn" {
		t.Errorf("level after rejected reload = %q, want warn", got)
	}
}

func TestLoadConfig_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yaml")
	if err := os.WriteFile(path, []byte("server:\n  max_client: 8\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := loadConfig(path)
	var uerr *confloader.UnknownKeyError
	if !errors.As(err, &uerr) {
		t.Fatalf("loadConfig() error = %v, want UnknownKeyError", err)
	}
	if len(uerr.Keys) != 1 || uerr.Keys[0] != "server.max_client" {
		t.Errorf("unknown keys = %v", uerr.Keys)
	}
}
