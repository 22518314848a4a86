// Package snapshot persists the whole key space to a single file.
//
// File layout (default data/db.kdb):
//
//	[magic:8 "KRISHDB1"]
//	[HeaderLen:4][HeaderJSON:HeaderLen]   {version, created_at, key_count, encrypted, cipher, salt}
//	[DataLen:8][Data:DataLen]             marshal-encoded entries, or the sealed form of them
//	[checksum:32 SHA-256 of all bytes above]
//
// Entries are encoded with github.com/tchajed/marshal: a u64 count, then
// per entry the key (u64 length + bytes) and a tagged value.
//
// Encryption:
//
// When a key is configured the data block is sealed with the cipher from
// pkg/crypto/adaptive. The cipher key is derived per file from the
// configured key and a random salt (Argon2id, then HKDF-SHA256). The
// header JSON is the additional authenticated data.
package snapshot
