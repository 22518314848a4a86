package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/PhantomXD-nepal/KrishnaBackend/internal/storage/snapshot"
	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/crypto/adaptive"
)

// MaxBulkLenLimit is the largest accepted server.max_bulk_len.
const MaxBulkLenLimit = ByteSize(4 << 30)

// Verify validates the configuration and returns the first problem found.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if err := verifyAddr("server.addr", cfg.Addr); err != nil {
		return err
	}
	if cfg.MaxClients < 1 {
		return errors.New("server.max_clients must be at least 1")
	}
	if cfg.IdleTimeout < 0 {
		return errors.New("server.idle_timeout must not be negative")
	}
	if cfg.MaxBulkLen < 1 || cfg.MaxBulkLen > MaxBulkLenLimit {
		return fmt.Errorf("server.max_bulk_len must be between 1B and %s", MaxBulkLenLimit)
	}

	if cfg.Admin.Enabled {
		if err := verifyAddr("server.admin.addr", cfg.Admin.Addr); err != nil {
			return err
		}
		if cfg.Admin.Addr == cfg.Addr {
			return errors.New("server.admin.addr must differ from server.addr")
		}
		for _, entry := range cfg.Admin.AllowList {
			if !validACLEntry(entry) {
				return fmt.Errorf("server.admin.allow_list: invalid entry %q", entry)
			}
		}
	}
	return nil
}

func verifyAddr(key, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", key)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func validACLEntry(entry string) bool {
	if strings.Contains(entry, "/") {
		_, _, err := net.ParseCIDR(entry)
		return err == nil
	}
	return net.ParseIP(entry) != nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if cfg.SnapshotFile == "" {
		return errors.New("storage.snapshot_file is required")
	}
	if err := snapshot.ValidateKey([]byte(cfg.EncryptionKey)); err != nil {
		return fmt.Errorf("storage.encryption_key: %w", err)
	}
	switch adaptive.CipherType(cfg.Cipher) {
	case "", adaptive.CipherAESGCM, adaptive.CipherXChaCha20:
	default:
		return fmt.Errorf("storage.cipher: unknown cipher %q", cfg.Cipher)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
	return nil
}
