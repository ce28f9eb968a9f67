// Package cache provides byte stores the resource manager consults
// before going to the network. Entries are encoded image payloads
// wrapped in a small msgpack envelope; decoding back to an image is the
// fetcher's job, keeping stores format-agnostic.
package cache

import (
	"context"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Store is a keyed byte cache. Implementations must be safe for
// concurrent use; the fetcher reads and writes them from worker
// goroutines.
type Store interface {
	// Get returns the entry stored under key. The second return value
	// reports whether the key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means the implementation's
	// default retention.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Remove drops the entry for key. Removing an absent key is not an
	// error.
	Remove(ctx context.Context, key string) error
}

// envelope is the serialized form of a cached entry.
type envelope struct {
	Format   string    `msgpack:"format"`
	Payload  []byte    `msgpack:"payload"`
	StoredAt time.Time `msgpack:"stored_at"`
}

// Encode wraps an encoded image payload and its format name ("png",
// "jpeg", ...) into the msgpack envelope stores hold.
func Encode(format string, payload []byte) ([]byte, error) {
	return msgpack.Marshal(envelope{
		Format:   format,
		Payload:  payload,
		StoredAt: time.Now(),
	})
}

// Decode unwraps an envelope produced by Encode.
func Decode(data []byte) (format string, payload []byte, err error) {
	var e envelope
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return "", nil, err
	}
	return e.Format, e.Payload, nil
}
