package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/PhantomXD-nepal/KrishnaBackend/internal/storage/memory"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/storage/snapshot"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/telemetry/metric"
	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/crypto/adaptive"
)

// Default configuration values.
const (
	DefaultDataDir      = "data"
	DefaultSnapshotFile = "db.kdb"
)

// Config configures the storage engine.
type Config struct {
	// DataDir is the base directory for storage files.
	DataDir string

	// SnapshotFile is the snapshot file name. A relative name is
	// resolved against DataDir.
	SnapshotFile string

	// EncryptionKey enables at-rest encryption of the snapshot.
	EncryptionKey []byte

	// Cipher selects the snapshot cipher; empty picks by hardware.
	Cipher adaptive.CipherType

	// Logger is the structured logger.
	Logger *slog.Logger

	// Metrics is optional.
	Metrics *metric.Registry
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:      dataDir,
		SnapshotFile: DefaultSnapshotFile,
		Logger:       slog.Default(),
	}
}

// SnapshotPath returns the resolved snapshot file path.
func (c Config) SnapshotPath() string {
	name := c.SnapshotFile
	if name == "" {
		name = DefaultSnapshotFile
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// Engine owns the key space and its snapshot.
type Engine struct {
	cfg Config

	store    *memory.Store
	snapshot *snapshot.Manager

	logger  *slog.Logger
	metrics *metric.Registry

	closeOnce sync.Once
	closeErr  error
}

// New creates a new storage engine with an empty store.
//
// Call Recover() after New() to load existing data.
func New(cfg Config) (*Engine, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("storage: data_dir is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	snapMgr, err := snapshot.NewManager(snapshot.Config{
		Path:          cfg.SnapshotPath(),
		EncryptionKey: cfg.EncryptionKey,
		Cipher:        cfg.Cipher,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create snapshot manager: %w", err)
	}

	store := memory.New()
	cfg.Metrics.MustRegister(metric.NewCollector(store))

	return &Engine{
		cfg:      cfg,
		store:    store,
		snapshot: snapMgr,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}, nil
}

// Store returns the in-memory key space.
func (e *Engine) Store() *memory.Store {
	return e.store
}

// Recover loads the snapshot into the store.
//
// A missing snapshot is normal on first start. Any other failure (bad
// magic, checksum mismatch, wrong key, truncated data) is logged at error
// level and the store stays empty: the server still starts. The only
// error returned is ctx's.
func (e *Engine) Recover(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	startTime := time.Now()
	path := e.snapshot.Path()
	e.logger.Info("storage recovery started", "path", path)

	data, info, err := e.snapshot.Load()
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			e.logger.Info("no snapshot found, starting with empty store", "path", path)
			return nil
		}
		e.logger.Error("snapshot unreadable, starting with empty store",
			"path", path,
			"error", err)
		return nil
	}

	e.store.LoadFromSnapshot(data)
	e.metrics.SnapshotLoaded(info.Size)

	if e.snapshot.Encrypted() && !info.Encrypted {
		e.logger.Warn("snapshot is not encrypted, it will be encrypted on next save", "path", path)
	}

	e.logger.Info("recovery completed",
		"path", path,
		"key_count", info.KeyCount,
		"size_bytes", info.Size,
		"encrypted", info.Encrypted,
		"elapsed", time.Since(startTime))

	return nil
}

// Save writes the current key space to the snapshot file. The error is
// logged and returned for inspection; it is never retried.
func (e *Engine) Save(ctx context.Context) (*snapshot.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	data := e.store.Snapshot()

	info, err := e.snapshot.Save(data)
	if err != nil {
		e.metrics.SnapshotSaved(err, 0)
		e.logger.Error("snapshot save failed",
			"path", e.snapshot.Path(),
			"key_count", len(data),
			"error", err)
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	e.metrics.SnapshotSaved(nil, info.Size)

	e.logger.Info("snapshot saved",
		"path", info.Path,
		"key_count", info.KeyCount,
		"size_bytes", info.Size,
		"encrypted", info.Encrypted,
		"elapsed", time.Since(startTime))

	return info, nil
}

// Close saves the snapshot exactly once. Later calls return the first
// call's result without writing again.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		_, e.closeErr = e.Save(context.Background())
	})
	return e.closeErr
}
