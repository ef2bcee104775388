package redis_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingredis "transit-ticketing/internal/booking/redis"
)

func setupHolds(t *testing.T) (*bookingredis.Holds, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return bookingredis.NewHolds(client, time.Minute), mr
}

func TestHoldSeat(t *testing.T) {
	holds, _ := setupHolds(t)

	ok, err := holds.HoldSeat("sched-1", "seat-1", "BK1")
	require.NoError(t, err)
	assert.True(t, ok)

	// Contested hold goes to exactly one booking.
	ok, err = holds.HoldSeat("sched-1", "seat-1", "BK2")
	require.NoError(t, err)
	assert.False(t, ok)

	// Same seat id on a different schedule is a different lock.
	ok, err = holds.HoldSeat("sched-2", "seat-1", "BK2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReleaseHold_OwnerOnly(t *testing.T) {
	holds, _ := setupHolds(t)

	ok, err := holds.HoldSeat("sched-1", "seat-1", "BK1")
	require.NoError(t, err)
	require.True(t, ok)

	// A non-owner release is a no-op.
	require.NoError(t, holds.ReleaseHold("sched-1", "seat-1", "BK2"))
	ok, err = holds.HoldSeat("sched-1", "seat-1", "BK3")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, holds.ReleaseHold("sched-1", "seat-1", "BK1"))
	ok, err = holds.HoldSeat("sched-1", "seat-1", "BK3")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHoldSeats_AllOrNothing(t *testing.T) {
	holds, _ := setupHolds(t)

	// seat-2 is already held by another booking.
	ok, err := holds.HoldSeat("sched-1", "seat-2", "BK-other")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = holds.HoldSeats("sched-1", []string{"seat-1", "seat-2", "seat-3"}, "BK1")
	require.NoError(t, err)
	assert.False(t, ok)

	// The partial hold on seat-1 was rolled back.
	ok, err = holds.HoldSeat("sched-1", "seat-1", "BK2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHoldSeats_ReleaseHolds(t *testing.T) {
	holds, _ := setupHolds(t)

	ok, err := holds.HoldSeats("sched-1", []string{"seat-1", "seat-2"}, "BK1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, holds.ReleaseHolds("sched-1", []string{"seat-1", "seat-2"}, "BK1"))

	ok, err = holds.HoldSeats("sched-1", []string{"seat-1", "seat-2"}, "BK2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHoldSeats_ConcurrentSingleWinner(t *testing.T) {
	holds, _ := setupHolds(t)

	const contenders = 10
	results := make([]bool, contenders)
	errs := make([]error, contenders)

	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bookingID := fmt.Sprintf("BK%d", i)
			results[i], errs[i] = holds.HoldSeats("sched-1", []string{"seat-1", "seat-2"}, bookingID)
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := 0; i < contenders; i++ {
		require.NoError(t, errs[i])
		if results[i] {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestHold_Expires(t *testing.T) {
	holds, mr := setupHolds(t)

	ok, err := holds.HoldSeat("sched-1", "seat-1", "BK1")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = holds.HoldSeat("sched-1", "seat-1", "BK2")
	require.NoError(t, err)
	assert.True(t, ok)
}
