package spill

import (
	"crypto/rand"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Namer hands out sortable, collision-free file name stems.
type Namer struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewNamer creates a Namer.
func NewNamer() *Namer {
	return &Namer{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Next returns prefix followed by a fresh ULID.
func (n *Namer) Next(prefix string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return prefix + ulid.MustNew(ulid.Now(), n.entropy).String()
}

var defaultNamer = NewNamer()

// TempName returns a unique name stem using the package-level Namer.
func TempName(prefix string) string {
	return defaultNamer.Next(prefix)
}
