package middleware

import "sync"

const (
	tripAfterErrors     = 5
	recoverAfterSuccess = 3
)

// storeBreaker tracks the health of the primary window store. It trips after
// tripAfterErrors consecutive errors and resets once recoverAfterSuccess
// consecutive calls succeed while tripped.
type storeBreaker struct {
	mu      sync.Mutex
	tripped bool
	errors  int
	streak  int
}

// success records a successful primary call and reports whether the primary
// store is trusted again.
func (b *storeBreaker) success() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.tripped {
		b.errors = 0
		return true
	}
	b.streak++
	if b.streak < recoverAfterSuccess {
		return false
	}
	b.tripped, b.errors, b.streak = false, 0, 0
	return true
}

// failure records a primary error and reports whether the breaker is tripped.
func (b *storeBreaker) failure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.streak = 0
	b.errors++
	if b.errors >= tripAfterErrors {
		b.tripped = true
	}
	return b.tripped
}
