package config

// Default configuration values.
const (
	DefaultAddr       = "127.0.0.1:6666"
	DefaultMaxClients = 64
	DefaultMaxBulkLen = ByteSize(512 * 1024 * 1024)
	DefaultAdminAddr  = "127.0.0.1:6667"

	DefaultDataDir      = "data"
	DefaultSnapshotFile = "db.kdb"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Addr:       DefaultAddr,
			MaxClients: DefaultMaxClients,
			MaxBulkLen: DefaultMaxBulkLen,
			Admin: AdminConfig{
				Enabled: false,
				Addr:    DefaultAdminAddr,
			},
		},
		Storage: StorageSection{
			DataDir:      DefaultDataDir,
			SnapshotFile: DefaultSnapshotFile,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
