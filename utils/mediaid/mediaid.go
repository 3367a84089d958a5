package mediaid

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyOnce sync.Once
	entropyMu   sync.Mutex
	entropy     *ulid.MonotonicEntropy
)

func newEntropy() *ulid.MonotonicEntropy {
	entropyOnce.Do(func() {
		source := rand.NewSource(time.Now().UnixNano())
		entropy = ulid.Monotonic(rand.New(source), 0)
	})
	return entropy
}

// New returns a td_* ULID string.
func New() string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy())
	entropyMu.Unlock()
	return "td_" + strings.ToLower(id.String())
}

// IsValid reports whether the string is a td_* ULID.
func IsValid(value string) bool {
	if !strings.HasPrefix(value, "td_") {
		return false
	}
	_, err := Parse(value)
	return err == nil
}

// Parse strips the td_ prefix and returns the ULID.
func Parse(value string) (ulid.ULID, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "td_")
	value = strings.TrimPrefix(value, "TD_")
	return ulid.Parse(value)
}
