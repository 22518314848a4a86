package config

import "time"

// ServerConfig is the root configuration for krishnadb-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures the TCP endpoint.
type ServerSection struct {
	Addr string `koanf:"addr"`

	// MaxClients is the size of the connection worker pool.
	MaxClients int `koanf:"max_clients"`

	// IdleTimeout closes connections idle between requests. 0 disables it.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// MaxBulkLen limits one bulk payload, SETFILE and TESTINSERT sizes.
	MaxBulkLen ByteSize `koanf:"max_bulk_len"`

	Admin AdminConfig `koanf:"admin"`
}

// AdminConfig configures the admin HTTP server.
type AdminConfig struct {
	Enabled   bool     `koanf:"enabled"`
	Addr      string   `koanf:"addr"`
	AllowList []string `koanf:"allow_list"`
}

// StorageSection configures snapshot persistence.
type StorageSection struct {
	DataDir      string `koanf:"data_dir"`
	SnapshotFile string `koanf:"snapshot_file"`

	// EncryptionKey enables at-rest encryption of the snapshot when set.
	EncryptionKey string `koanf:"encryption_key"`

	// Cipher selects the AEAD; empty picks one for the platform.
	Cipher string `koanf:"cipher"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Keys lists every configuration key. The env loader uses it to tell
// nesting apart from underscores inside a key name.
func Keys() []string {
	return []string{
		"server.addr",
		"server.max_clients",
		"server.idle_timeout",
		"server.max_bulk_len",
		"server.admin.enabled",
		"server.admin.addr",
		"server.admin.allow_list",
		"storage.data_dir",
		"storage.snapshot_file",
		"storage.encryption_key",
		"storage.cipher",
		"log.level",
		"log.format",
	}
}
