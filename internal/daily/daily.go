// internal/daily/daily.go
//
// Deterministic "daily" games.
// Every session started on the same UTC date with the same salt gets the same
// engine seed, and therefore the same shape sequence.

package daily

import (
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"
)

const layout = "2006-01-02"

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format(layout)
}

// ParseDateKey validates a YYYY-MM-DD key.
func ParseDateKey(s string) (string, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateKey(t), nil
}

// Seed returns the engine seed for the date's key using a keyed BLAKE2b MAC
// over YYYY-MM-DD. Salts longer than a BLAKE2b key are hashed down first.
func Seed(date time.Time, salt string) uint64 {
	return SeedForKey(DateKey(date), salt)
}

// SeedForKey is Seed for an already formatted date key.
func SeedForKey(key, salt string) uint64 {
	mac := []byte(salt)
	if len(mac) > blake2b.Size {
		sum := blake2b.Sum256(mac)
		mac = sum[:]
	}
	h, err := blake2b.New256(mac)
	if err != nil {
		// only reachable for keys over 64 bytes, handled above
		panic(err)
	}
	h.Write([]byte(key))
	return binary.BigEndian.Uint64(h.Sum(nil)[:8])
}
