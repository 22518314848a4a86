// Command krishnadb-server runs the KrishnaDB key-value server.
//
// It loads configuration from an optional YAML file and KRISHNADB_*
// environment variables, restores the snapshot, serves the TCP protocol
// and, when enabled, the admin HTTP endpoints. On SIGINT or SIGTERM it
// stops accepting, drains connections and saves the snapshot once.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/urfave/cli/v2"

	"github.com/PhantomXD-nepal/KrishnaBackend/internal/core/service"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/infra/buildinfo"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/infra/confloader"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/infra/shutdown"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/server/config"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/server/httpserver"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/server/kvserver"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/storage"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/telemetry/logger"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/telemetry/metric"
	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/crypto/adaptive"
)

func main() {
	app := &cli.App{
		Name:    "krishnadb-server",
		Usage:   "KrishnaDB key-value server",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"KRISHNADB_CONFIG"},
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, c.String("config"))
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slogger := log.Slog()

	info := buildinfo.Get()
	log.Info("starting krishnadb-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	metrics := metric.NewRegistry()

	engine, err := storage.New(storage.Config{
		DataDir:       cfg.Storage.DataDir,
		SnapshotFile:  cfg.Storage.SnapshotFile,
		EncryptionKey: []byte(cfg.Storage.EncryptionKey),
		Cipher:        adaptive.CipherType(cfg.Storage.Cipher),
		Logger:        slogger.With("component", "storage"),
		Metrics:       metrics,
	})
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if err := engine.Recover(ctx); err != nil {
		return fmt.Errorf("storage recovery: %w", err)
	}

	svc := service.NewKVService(engine.Store(), service.WithMaxValueSize(int64(cfg.Server.MaxBulkLen)))
	dispatcher := kvserver.NewDispatcher(svc, slogger.With("component", "dispatcher"), metrics)
	kvSrv := kvserver.New(kvserver.Config{
		Addr:        cfg.Server.Addr,
		MaxClients:  cfg.Server.MaxClients,
		IdleTimeout: cfg.Server.IdleTimeout,
		MaxBulkLen:  int(cfg.Server.MaxBulkLen),
	}, dispatcher, slogger.With("component", "kvserver"), metrics)

	// Hooks run in reverse: the snapshot is written after every server
	// has stopped taking writes.
	sh := shutdown.NewHandler(shutdown.DefaultTimeout, slogger)
	sh.OnShutdown("storage", func(context.Context) error {
		return engine.Close()
	})

	if err := kvSrv.Start(ctx); err != nil {
		_ = engine.Close()
		return fmt.Errorf("start kv server: %w", err)
	}
	sh.OnShutdown("kv server", kvSrv.Shutdown)

	var ready atomic.Bool
	if cfg.Server.Admin.Enabled {
		adminSrv := httpserver.New(cfg.Server.Admin.Addr, httpserver.NewRouter(&httpserver.RouterConfig{
			Keys:      engine.Store(),
			Ready:     ready.Load,
			Metrics:   metrics,
			Version:   info.Version,
			Logger:    slogger.With("component", "admin"),
			AllowList: cfg.Server.Admin.AllowList,
		}))
		errCh, err := adminSrv.Start()
		if err != nil {
			_ = sh.Shutdown()
			return fmt.Errorf("start admin server: %w", err)
		}
		go func() {
			if err := <-errCh; err != nil {
				log.Error("admin server error", "error", err)
			}
		}()
		sh.OnShutdown("admin server", adminSrv.Shutdown)
		log.Info("admin server listening", "address", adminSrv.Addr().String())
	}

	if configFile != "" {
		watcher, err := watchConfig(configFile, slogger)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			sh.OnShutdown("config watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	ready.Store(true)
	log.Info("server started", "address", kvSrv.Addr().String())

	if err := sh.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// loadConfig layers defaults, the optional file and the environment, then
// validates the result.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithKeys(config.Keys()...)}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// watchConfig applies log level changes from the config file at runtime.
// Other settings need a restart.
func watchConfig(configFile string, log *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(configFile); err != nil {
		_ = w.Stop()
		return nil, err
	}
	w.OnChange(func(path string) {
		reloadLogLevel(path, log)
	})
	w.StartAsync()
	return w, nil
}

func reloadLogLevel(path string, log *slog.Logger) {
	cfg, err := loadConfig(path)
	if err != nil {
		log.Warn("config reload rejected", "file", path, "error", err)
		return
	}
	if cfg.Log.Level == logger.GetLevel() {
		return
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		log.Warn("config reload rejected", "file", path, "error", err)
		return
	}
	log.Info("log level changed", "level", cfg.Log.Level)
}
