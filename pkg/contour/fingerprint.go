package contour

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github.com/chazu/relief/pkg/geom"
)

// Fingerprint is a content-derived key for a contour. Two passes that detect
// the same outer boundary produce the same fingerprint regardless of the
// position the boundary takes in the contour list.
type Fingerprint [16]byte

// String returns the hex form of the fingerprint.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short returns the first 8 hex characters.
func (f Fingerprint) Short() string {
	return f.String()[:8]
}

// IsZero reports whether the fingerprint is unset.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// FingerprintOf hashes the vertex sequence of c. The hash is rotation
// sensitive: extraction routines emit a stable start vertex for the same
// boundary, so no canonical rotation is attempted.
func FingerprintOf(c geom.Contour) Fingerprint {
	h, err := blake2b.New(16, nil)
	if err != nil {
		// Only returned for invalid sizes or keys.
		panic(err)
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(len(c)))
	h.Write(buf[:8])
	for _, p := range c {
		binary.LittleEndian.PutUint64(buf[:8], uint64(int64(p.X)))
		binary.LittleEndian.PutUint64(buf[8:], uint64(int64(p.Y)))
		h.Write(buf[:])
	}
	var f Fingerprint
	copy(f[:], h.Sum(nil))
	return f
}
