package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/crypto/adaptive"
	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/resp"
)

// Magic bytes identify snapshot files.
var magicBytes = []byte("KRISHDB1")

const (
	checksumSize = 32

	// headerVersion 2 widened the data length to 8 bytes. Version 1
	// files, with a 4-byte length, still load.
	headerVersion = 2

	// maxHeaderLen bounds the header JSON, which holds a handful of fields.
	maxHeaderLen = 64 * 1024

	// DefaultFile is the snapshot path used when none is configured.
	DefaultFile = "data/db.kdb"
)

type snapshotHeader struct {
	Version   int                 `json:"version"`
	CreatedAt int64               `json:"created_at"`
	KeyCount  uint64              `json:"key_count"`
	Encrypted bool                `json:"encrypted"`
	Cipher    adaptive.CipherType `json:"cipher,omitempty"`
	Salt      []byte              `json:"salt,omitempty"`
}

var (
	ErrInvalidMagic     = errors.New("snapshot: invalid magic bytes")
	ErrChecksumMismatch = errors.New("snapshot: checksum mismatch")
	ErrNotFound         = errors.New("snapshot: not found")
)

// Config configures the snapshot manager.
type Config struct {
	// Path is the snapshot file. Its directory is created on demand.
	Path string

	// EncryptionKey turns on at-rest encryption when non-empty.
	EncryptionKey []byte

	// Cipher selects the algorithm for new files. Empty means the
	// hardware preferred one. Loading always follows the file header.
	Cipher adaptive.CipherType
}

// DefaultConfig returns a plaintext configuration for path.
func DefaultConfig(path string) Config {
	return Config{Path: path}
}

// Manager reads and writes the single snapshot file.
type Manager struct {
	cfg Config
}

// NewManager validates cfg and prepares the snapshot directory.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("snapshot: path is required")
	}
	if err := ValidateKey(cfg.EncryptionKey); err != nil {
		return nil, err
	}
	if len(cfg.EncryptionKey) > 0 {
		if _, err := adaptive.NewWithType(make([]byte, adaptive.KeySize), cfg.Cipher); err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0750); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}

	return &Manager{cfg: cfg}, nil
}

// Path returns the snapshot file path.
func (m *Manager) Path() string {
	return m.cfg.Path
}

// Encrypted reports whether Save writes encrypted files.
func (m *Manager) Encrypted() bool {
	return len(m.cfg.EncryptionKey) > 0
}

// Info contains metadata about a snapshot.
type Info struct {
	Path      string              `json:"path"`
	KeyCount  int64               `json:"key_count"`
	CreatedAt int64               `json:"created_at"`
	Size      int64               `json:"size"`
	Checksum  string              `json:"checksum"`
	Encrypted bool                `json:"encrypted"`
	Cipher    adaptive.CipherType `json:"cipher,omitempty"`
}

// Save writes data to the snapshot file. The file is built under a
// temporary name, synced, then renamed over the previous one, so a crash
// leaves either the old or the new snapshot in place.
func (m *Manager) Save(data map[string]resp.Value) (*Info, error) {
	now := time.Now()

	hdr := snapshotHeader{
		Version:   headerVersion,
		CreatedAt: now.UnixMilli(),
		KeyCount:  uint64(len(data)),
	}
	if m.Encrypted() {
		salt, err := NewSalt()
		if err != nil {
			return nil, err
		}
		hdr.Encrypted = true
		hdr.Cipher = m.cfg.Cipher
		if hdr.Cipher == "" {
			hdr.Cipher = adaptive.Preferred()
		}
		hdr.Salt = salt
	}

	hdrJSON, err := json.Marshal(hdr)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal header: %w", err)
	}

	block := encodeEntries(data)
	if hdr.Encrypted {
		block, err = seal(m.cfg.EncryptionKey, hdr.Cipher, hdr.Salt, block, hdrJSON)
		if err != nil {
			return nil, fmt.Errorf("snapshot: encrypt: %w", err)
		}
	}
	file, err := os.CreateTemp(filepath.Dir(m.cfg.Path), filepath.Base(m.cfg.Path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("snapshot: create temp file: %w", err)
	}
	tempPath := file.Name()
	defer os.Remove(tempPath)

	hash := sha256.New()
	writer := io.MultiWriter(file, hash)

	if err := writeFrame(writer, hdrJSON, block); err != nil {
		file.Close()
		return nil, err
	}

	// Checksum trailer (not included in hash).
	sum := hash.Sum(nil)
	if _, err := file.Write(sum); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: write checksum: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: sync: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("snapshot: close: %w", err)
	}

	stat, err := os.Stat(tempPath)
	if err != nil {
		return nil, err
	}

	if err := os.Rename(tempPath, m.cfg.Path); err != nil {
		return nil, fmt.Errorf("snapshot: rename: %w", err)
	}

	return &Info{
		Path:      m.cfg.Path,
		KeyCount:  int64(len(data)),
		CreatedAt: hdr.CreatedAt,
		Size:      stat.Size(),
		Checksum:  hex.EncodeToString(sum),
		Encrypted: hdr.Encrypted,
		Cipher:    hdr.Cipher,
	}, nil
}

func writeFrame(w io.Writer, hdrJSON, block []byte) error {
	if _, err := w.Write(magicBytes); err != nil {
		return fmt.Errorf("snapshot: write magic: %w", err)
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(hdrJSON)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("snapshot: write header length: %w", err)
	}
	if _, err := w.Write(hdrJSON); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}

	var dataLen [8]byte
	binary.BigEndian.PutUint64(dataLen[:], uint64(len(block)))
	if _, err := w.Write(dataLen[:]); err != nil {
		return fmt.Errorf("snapshot: write data length: %w", err)
	}
	if _, err := w.Write(block); err != nil {
		return fmt.Errorf("snapshot: write data: %w", err)
	}
	return nil
}

// Load reads the snapshot file. A missing file returns ErrNotFound.
// A plaintext file loads even when encryption is configured; the next
// Save writes it encrypted.
func (m *Manager) Load() (map[string]resp.Value, *Info, error) {
	raw, err := os.ReadFile(m.cfg.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, m.cfg.Path)
		}
		return nil, nil, fmt.Errorf("snapshot: read: %w", err)
	}

	if len(raw) < len(magicBytes)+8+checksumSize {
		return nil, nil, fmt.Errorf("%w: file too small (%d bytes)", ErrChecksumMismatch, len(raw))
	}

	body, expected := raw[:len(raw)-checksumSize], raw[len(raw)-checksumSize:]
	sum := sha256.Sum256(body)
	if !bytes.Equal(sum[:], expected) {
		return nil, nil, ErrChecksumMismatch
	}

	if !bytes.Equal(body[:len(magicBytes)], magicBytes) {
		return nil, nil, ErrInvalidMagic
	}
	rest := body[len(magicBytes):]

	hdrJSON, rest, err := readSection(rest, 4, maxHeaderLen, "header")
	if err != nil {
		return nil, nil, err
	}
	var hdr snapshotHeader
	if err := json.Unmarshal(hdrJSON, &hdr); err != nil {
		return nil, nil, fmt.Errorf("%w: unmarshal header: %v", ErrCorrupt, err)
	}
	lenSize := 8
	switch hdr.Version {
	case 1:
		lenSize = 4
	case headerVersion:
	default:
		return nil, nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, hdr.Version)
	}

	block, rest, err := readSection(rest, lenSize, len(rest), "data")
	if err != nil {
		return nil, nil, err
	}
	if len(rest) != 0 {
		return nil, nil, fmt.Errorf("%w: %d bytes after data block", ErrCorrupt, len(rest))
	}

	if hdr.Encrypted {
		block, err = open(m.cfg.EncryptionKey, hdr.Cipher, hdr.Salt, block, hdrJSON)
		if err != nil {
			return nil, nil, err
		}
	}

	data, err := decodeEntries(block)
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(data)) != hdr.KeyCount {
		return nil, nil, fmt.Errorf("%w: header says %d keys, data has %d", ErrCorrupt, hdr.KeyCount, len(data))
	}

	info := &Info{
		Path:      m.cfg.Path,
		KeyCount:  int64(len(data)),
		CreatedAt: hdr.CreatedAt,
		Size:      int64(len(raw)),
		Checksum:  hex.EncodeToString(expected),
		Encrypted: hdr.Encrypted,
		Cipher:    hdr.Cipher,
	}
	return data, info, nil
}

// readSection reads a big-endian length of lenSize (4 or 8) bytes and
// then that many bytes.
func readSection(b []byte, lenSize, limit int, what string) (section, rest []byte, err error) {
	if len(b) < lenSize {
		return nil, nil, fmt.Errorf("%w: missing %s length", ErrCorrupt, what)
	}
	var n uint64
	if lenSize == 8 {
		n = binary.BigEndian.Uint64(b[:8])
	} else {
		n = uint64(binary.BigEndian.Uint32(b[:4]))
	}
	b = b[lenSize:]
	if n > uint64(limit) || n > uint64(len(b)) {
		return nil, nil, fmt.Errorf("%w: %s length %d out of range", ErrCorrupt, what, n)
	}
	return b[:n], b[n:], nil
}
