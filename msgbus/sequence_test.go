package msgbus

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceTracker_StartsAtOne(t *testing.T) {
	tracker := NewSequenceTracker()
	assert.Equal(t, uint64(1), tracker.Next())
	assert.Equal(t, uint64(2), tracker.Next())
}

func TestSequenceTracker_MonotonicUnderConcurrency(t *testing.T) {
	tracker := NewSequenceTracker()

	const goroutines = 8
	const perGoroutine = 250

	var mu sync.Mutex
	seen := make([]uint64, 0, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id := tracker.Next()
				mu.Lock()
				seen = append(seen, id)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, goroutines*perGoroutine)
	sort.Slice(seen, func(i, j int) bool { return seen[i] < seen[j] })
	for i := 1; i < len(seen); i++ {
		require.Less(t, seen[i-1], seen[i], "duplicate sequence id issued")
	}
}

func TestIsNewer(t *testing.T) {
	assert.True(t, IsNewer(2, 1))
	assert.False(t, IsNewer(1, 1))
	assert.False(t, IsNewer(0, 1))
	assert.True(t, IsNewer(1, 0))
}

func TestObserve_AtMostOnce(t *testing.T) {
	tracker := NewSequenceTracker()

	// First observation accepted, replay of the same id rejected.
	assert.True(t, tracker.Observe(ChannelAction, 5))
	assert.False(t, tracker.Observe(ChannelAction, 5))
	assert.Equal(t, uint64(5), tracker.LastSeen(ChannelAction))

	// Stale ids never regress the watermark.
	assert.False(t, tracker.Observe(ChannelAction, 3))
	assert.Equal(t, uint64(5), tracker.LastSeen(ChannelAction))

	// Gaps are fine; only strict increase matters.
	assert.True(t, tracker.Observe(ChannelAction, 9))
	assert.Equal(t, uint64(9), tracker.LastSeen(ChannelAction))
}

func TestObserve_ChannelsAreIndependentStreams(t *testing.T) {
	tracker := NewSequenceTracker()

	assert.True(t, tracker.Observe(ChannelGameState, 10))
	assert.True(t, tracker.Observe(ChannelActionResult, 2))
	assert.Equal(t, uint64(10), tracker.LastSeen(ChannelGameState))
	assert.Equal(t, uint64(2), tracker.LastSeen(ChannelActionResult))
	assert.Equal(t, uint64(0), tracker.LastSeen(ChannelAction))
}
