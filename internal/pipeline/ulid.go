package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Job ids are ULIDs: 26 Crockford Base32 characters, millisecond
// timestamp first, so they sort by creation time.

var (
	ulidMu  sync.Mutex
	lastTS  uint64
	lastSeq uint16
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// NewID returns a new ULID.
func NewID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	ts := uint64(time.Now().UnixMilli())
	if ts == lastTS {
		lastSeq++
	} else {
		lastTS = ts
		lastSeq = 0
	}

	var b [16]byte
	for i := range 6 {
		b[i] = byte(ts >> (40 - 8*i))
	}
	_, _ = rand.Read(b[6:])
	// Sequence in bytes 6-7 keeps ids unique within one millisecond.
	binary.BigEndian.PutUint16(b[6:8], lastSeq)

	return encode(b)
}

// encode writes the 128 bits as 26 five-bit groups. The first group
// carries two implicit leading zero bits.
func encode(b [16]byte) string {
	var out [26]byte
	for i := range out {
		var v byte
		for k := range 5 {
			p := i*5 - 2 + k
			v <<= 1
			if p >= 0 && b[p/8]&(0x80>>(p%8)) != 0 {
				v |= 1
			}
		}
		out[i] = crockford[v]
	}
	return string(out[:])
}
