// Package memory provides the in-memory key space of KrishnaDB.
//
// Keys map to immutable resp.Value entries held in a single Go map.
//
// Thread Safety:
//
// One sync.RWMutex guards the whole map. Read operations use RLock,
// every mutation uses Lock, so a compound command (EDIT checking then
// overwriting, FLUSH counting then clearing, MSET writing several keys)
// is atomic relative to all others.
package memory
