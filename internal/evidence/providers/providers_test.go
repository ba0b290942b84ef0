package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "trustlessid/pkg/domain-errors"
)

type fakeProvider struct {
	id   string
	kind Kind
	err  error
}

func (f fakeProvider) ID() string                   { return f.id }
func (f fakeProvider) Kind() Kind                   { return f.kind }
func (f fakeProvider) Health(context.Context) error { return f.err }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(fakeProvider{id: "b-fraud", kind: KindFraudDetection, err: errors.New("down")}))
	require.NoError(t, r.Register(fakeProvider{id: "a-analysis", kind: KindDocumentAnalysis}))
	require.Error(t, r.Register(fakeProvider{id: "a-analysis"}))

	report := r.Check(context.Background())
	require.Len(t, report, 2)
	assert.Equal(t, "a-analysis", report[0].ID)
	assert.True(t, report[0].Healthy)
	assert.Equal(t, "b-fraud", report[1].ID)
	assert.False(t, report[1].Healthy)
	assert.Equal(t, "down", report[1].Error)
}

func TestProviderErrorCategory(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewProviderError(ErrorRejected, "remote", "Verification failed", nil))
	assert.Equal(t, ErrorRejected, GetCategory(err))
	assert.Equal(t, "Verification failed", Message(err, "fallback"))

	assert.Equal(t, ErrorInternal, GetCategory(errors.New("plain")))
	assert.Equal(t, "fallback", Message(errors.New("plain"), "fallback"))
}

func TestSimulatorBounds(t *testing.T) {
	sim := NewSimulator(42, 0, 0)
	for range 500 {
		v := sim.Between(85, 99)
		assert.GreaterOrEqual(t, v, 85)
		assert.LessOrEqual(t, v, 99)
	}
	assert.Equal(t, 7, sim.Between(7, 7))
	assert.Contains(t, []string{"x", "y"}, sim.Pick([]string{"x", "y"}))
	assert.Equal(t, "", sim.Pick(nil))
}

func TestSimulatorIsDeterministicForSeed(t *testing.T) {
	a, b := NewSimulator(7, 0, 0), NewSimulator(7, 0, 0)
	for range 20 {
		assert.Equal(t, a.Between(0, 1000), b.Between(0, 1000))
	}
}

func TestSimulatorCall(t *testing.T) {
	t.Run("always fails at rate one", func(t *testing.T) {
		err := NewSimulator(1, 0, 1).Call(context.Background(), "sim")
		require.Error(t, err)
		assert.Equal(t, ErrorProviderOutage, GetCategory(err))
	})

	t.Run("never fails at rate zero", func(t *testing.T) {
		assert.NoError(t, NewSimulator(1, 0, 0).Call(context.Background(), "sim"))
	})

	t.Run("cancellation during latency is a timeout", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewSimulator(1, time.Hour, 0).Call(ctx, "sim")
		require.Error(t, err)
		assert.Equal(t, ErrorTimeout, GetCategory(err))
	})
}

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code dErrors.Code
	}{
		{"timeout", NewProviderError(ErrorTimeout, "p", "slow", nil), dErrors.CodeTimeout},
		{"outage", NewProviderError(ErrorProviderOutage, "p", "down", nil), dErrors.CodeUnavailable},
		{"rejected", NewProviderError(ErrorRejected, "p", "no", nil), dErrors.CodeUnavailable},
		{"auth", NewProviderError(ErrorAuthentication, "p", "who", nil), dErrors.CodeUnauthorized},
		{"plain", errors.New("boom"), dErrors.CodeInternal},
		{"already coded", dErrors.New(dErrors.CodeValidation, "bad"), dErrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ToDomainError(tt.err, "Verification failed")
			assert.True(t, dErrors.HasCode(err, tt.code), "got %v", err)
		})
	}
	assert.NoError(t, ToDomainError(nil, "x"))
}
