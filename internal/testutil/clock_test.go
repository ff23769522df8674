package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_StartsAtZero(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, uint64(0), clock.Current())
}

func TestDeterministicClock_NowIncrementsMonotonically(t *testing.T) {
	clock := NewDeterministicClock()

	assert.Equal(t, uint64(1), clock.Now())
	assert.Equal(t, uint64(1), clock.Current())

	assert.Equal(t, uint64(2), clock.Now())
	assert.Equal(t, uint64(3), clock.Now())
	assert.Equal(t, uint64(3), clock.Current())
}

func TestDeterministicClock_CustomStep(t *testing.T) {
	clock := NewDeterministicClockAt(1_000, 500)

	assert.Equal(t, uint64(1_500), clock.Now())
	assert.Equal(t, uint64(2_000), clock.Now())
}

func TestDeterministicClock_ZeroStepStandsStill(t *testing.T) {
	clock := NewDeterministicClockAt(7, 0)

	assert.Equal(t, uint64(7), clock.Now())
	assert.Equal(t, uint64(7), clock.Now())
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock()
	clock.Now()
	clock.Now()

	clock.Reset()
	assert.Equal(t, uint64(0), clock.Current())
	assert.Equal(t, uint64(1), clock.Now())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()
	const numGoroutines = 50
	const callsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make([][]uint64, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		results[i] = make([]uint64, callsPerGoroutine)
		go func(idx int) {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				results[idx][j] = clock.Now()
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool)
	for _, row := range results {
		for _, v := range row {
			require.False(t, seen[v], "duplicate value %d", v)
			seen[v] = true
		}
	}
	assert.Len(t, seen, numGoroutines*callsPerGoroutine)
}
