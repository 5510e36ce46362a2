package reddit

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker() *circuitBreaker {
	return newCircuitBreaker(3, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCircuitBreaker_InitialState(t *testing.T) {
	cb := newTestBreaker()
	assert.NoError(t, cb.canAttempt(familyListing))
}

func TestCircuitBreaker_OpensAfterThresholdFailures(t *testing.T) {
	cb := newTestBreaker()
	testErr := errors.New("boom")

	for i := 0; i < cb.failureThreshold-1; i++ {
		cb.recordFailure(familyListing, testErr)
	}
	require.NoError(t, cb.canAttempt(familyListing), "should stay closed below threshold")

	cb.recordFailure(familyListing, testErr)
	err := cb.canAttempt(familyListing)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_FamiliesAreIndependent(t *testing.T) {
	cb := newTestBreaker()
	for i := 0; i < cb.failureThreshold; i++ {
		cb.recordFailure(familyUser, errors.New("boom"))
	}

	assert.ErrorIs(t, cb.canAttempt(familyUser), ErrCircuitOpen)
	assert.NoError(t, cb.canAttempt(familyListing))
	assert.NoError(t, cb.canAttempt(familyComments))
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := newTestBreaker()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }

	for i := 0; i < cb.failureThreshold; i++ {
		cb.recordFailure(familySearch, errors.New("boom"))
	}
	require.ErrorIs(t, cb.canAttempt(familySearch), ErrCircuitOpen)

	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.canAttempt(familySearch), "should move to half-open after cooldown")
	assert.Equal(t, stateHalfOpen, cb.state[familySearch])

	cb.recordSuccess(familySearch)
	assert.Equal(t, stateClosed, cb.state[familySearch])
	assert.Zero(t, cb.failures[familySearch])
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := newTestBreaker()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }

	for i := 0; i < cb.failureThreshold; i++ {
		cb.recordFailure(familyWrite, errors.New("boom"))
	}
	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.canAttempt(familyWrite))

	cb.recordFailure(familyWrite, errors.New("still down"))
	assert.ErrorIs(t, cb.canAttempt(familyWrite), ErrCircuitOpen)
}
