// Package storage provides the storage engine for KrishnaDB.
//
// The engine pairs the in-memory store with the snapshot file:
//
//   - Memory Store: the authoritative key space at runtime
//   - Snapshot: a full copy of the key space on disk
//
// The snapshot is read once before the server accepts connections
// (Recover) and written once on controlled shutdown (Close). There is no
// write-ahead log: an unclean exit loses every change since start.
//
// Persistence failures never stop the process. A snapshot that cannot be
// decoded is logged and the store starts empty; a failed save is logged
// and the in-memory data stays as it was.
package storage
