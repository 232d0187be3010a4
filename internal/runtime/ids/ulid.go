package ids

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// CreateULID returns a time-sortable ULID encoded as a 26-character string.
// Used for watermill message UUIDs and producer instance identifiers.
func CreateULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	return id.String()
}

// Int64Source yields independent 64-bit values. It is safe for concurrent use.
type Int64Source struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewInt64Source returns a ChaCha8 generator seeded from crypto/rand.
func NewInt64Source() *Int64Source {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		// crypto/rand only fails on broken platforms; fall back to the clock.
		binary.LittleEndian.PutUint64(seed[:], uint64(time.Now().UnixNano()))
	}
	return &Int64Source{rng: mrand.New(mrand.NewChaCha8(seed))}
}

// Int64 returns the next value across the full signed 64-bit range.
func (s *Int64Source) Int64() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(s.rng.Uint64())
}
