package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreBreakerTripsAndRecovers(t *testing.T) {
	b := &storeBreaker{}
	for range tripAfterErrors - 1 {
		assert.False(t, b.failure())
	}
	assert.True(t, b.failure())

	for range recoverAfterSuccess - 1 {
		assert.False(t, b.success())
	}
	assert.True(t, b.success())
	assert.False(t, b.failure(), "error count restarts after recovery")
}

func TestStoreBreakerErrorDuringRecoveryRestartsStreak(t *testing.T) {
	b := &storeBreaker{}
	for range tripAfterErrors {
		b.failure()
	}
	assert.False(t, b.success())
	assert.True(t, b.failure())
	assert.False(t, b.success())
	assert.False(t, b.success())
	assert.True(t, b.success())
}

func TestStoreBreakerSuccessResetsErrorsWhileClosed(t *testing.T) {
	b := &storeBreaker{}
	for range tripAfterErrors - 1 {
		b.failure()
	}
	assert.True(t, b.success())
	assert.False(t, b.failure())
}
