package confloader

import (
	"fmt"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the prefix of environment overrides.
const DefaultEnvPrefix = "KRISHNADB_"

// UnknownKeyError lists file keys that match no registered key.
type UnknownKeyError struct {
	File string
	Keys []string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("%s: unknown configuration key(s): %s", e.File, strings.Join(e.Keys, ", "))
}

// Loader merges the file and environment sources into a struct with
// koanf tags.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string

	// envKeys maps "server_max_clients" to "server.max_clients".
	envKeys map[string]string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix replaces DefaultEnvPrefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the YAML file. Without it only the environment is read.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithKeys registers the known keys. KRISHNADB_STORAGE_DATA_DIR then maps
// to storage.data_dir rather than storage.data.dir, and the file is
// checked against the set.
func WithKeys(keys ...string) Option {
	return func(l *Loader) {
		for _, k := range keys {
			l.envKeys[strings.ReplaceAll(k, ".", "_")] = k
		}
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
		envKeys:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the file, then the environment, and unmarshals the merged
// result over target. Fields absent from both keep their current value.
func (l *Loader) Load(target any) error {
	if l.filePath != "" {
		if err := l.loadFile(l.filePath); err != nil {
			return err
		}
	}

	if err := l.k.Load(env.Provider(l.envPrefix, ".", l.envKey), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func (l *Loader) loadFile(path string) error {
	fk := koanf.New(".")
	if err := fk.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load config file %s: %w", path, err)
	}

	if unknown := l.unknown(fk.Keys()); len(unknown) > 0 {
		return &UnknownKeyError{File: path, Keys: unknown}
	}
	return l.k.Merge(fk)
}

// unknown returns the keys not registered with WithKeys. It is empty when
// no keys were registered.
func (l *Loader) unknown(keys []string) []string {
	if len(l.envKeys) == 0 {
		return nil
	}
	var out []string
	for _, k := range keys {
		if _, ok := l.envKeys[strings.ReplaceAll(k, ".", "_")]; !ok {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// envKey maps KRISHNADB_SERVER_MAX_CLIENTS to server.max_clients. Names
// that match no registered key split at every underscore.
func (l *Loader) envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
	if k, ok := l.envKeys[s]; ok {
		return k
	}
	return strings.ReplaceAll(s, "_", ".")
}
