package config

import (
	"fmt"

	"github.com/docker/go-units"
)

// ByteSize is a byte count that unmarshals from "512MB", "64k" or a plain
// number. Units are binary (1MB = 1024*1024).
type ByteSize int64

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *ByteSize) UnmarshalText(text []byte) error {
	n, err := units.RAMInBytes(string(text))
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", text, err)
	}
	*b = ByteSize(n)
	return nil
}

// String renders the size in binary units.
func (b ByteSize) String() string {
	return units.BytesSize(float64(b))
}
