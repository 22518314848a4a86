// Package confloader layers krishnadb configuration sources on top of koanf.
//
// Sources, later ones winning:
//
//  1. defaults already present in the target struct
//  2. a YAML file
//  3. KRISHNADB_* environment variables
//
// When the known keys are registered with WithKeys, a file that names any
// other key is rejected, so a typo such as max_client fails at startup
// instead of silently keeping the default.
//
// Watcher reports edits to the config file through fsnotify.
package confloader
