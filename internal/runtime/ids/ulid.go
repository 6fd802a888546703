package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const connectionPrefix = "conn_"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// CreateULID returns a time-sortable ULID encoded as a 26-character string.
func CreateULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewConnectionID identifies one duplex connection for its whole lifetime.
func NewConnectionID() string {
	return connectionPrefix + CreateULID()
}

// ConnectionTime extracts the accept time encoded in a connection id.
func ConnectionTime(id string) (time.Time, bool) {
	if len(id) <= len(connectionPrefix) || id[:len(connectionPrefix)] != connectionPrefix {
		return time.Time{}, false
	}
	parsed, err := ulid.Parse(id[len(connectionPrefix):])
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(parsed.Time()), true
}
