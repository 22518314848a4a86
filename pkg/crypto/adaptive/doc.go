// Package adaptive provides the authenticated cipher used for encrypted
// snapshots.
//
// Supported Algorithms:
//
//   - AES-256-GCM: preferred when the CPU has AES instructions
//   - XChaCha20-Poly1305: fallback elsewhere, 24-byte random nonces
//
// The chosen algorithm is recorded next to the ciphertext so a file
// written on one machine opens on another.
//
// Usage:
//
//	c, err := adaptive.New(key)
//	sealed, err := c.Encrypt(plaintext, aad)
//	plain, err := c.Decrypt(sealed, aad)
package adaptive
