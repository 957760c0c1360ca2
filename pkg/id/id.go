// Package id generates the time-sortable identifiers used for backtest runs.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	// Monotonic entropy keeps IDs from the same millisecond increasing.
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a ULID string for the current time.
func New() string {
	return At(time.Now())
}

// At returns a ULID string stamped with t. IDs sort by t, then by
// generation order.
func At(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t.UTC()), mono)
	if err != nil {
		// Only fails if the entropy source is exhausted within one millisecond.
		panic(err)
	}
	return id.String()
}

// Time returns the millisecond timestamp encoded in a run ID.
func Time(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid run id %q: %w", s, err)
	}
	return ulid.Time(u.Time()), nil
}

// Valid reports whether s is a well-formed run ID.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
