package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Holds keeps short-lived per-(schedule, seat) locks in redis, bridging the
// gap between seat selection and the transactional claim in the database.
// The DB assignment row stays authoritative; a hold only stops two users
// from walking the same seats through checkout at once.
type Holds struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewHolds(client *redis.Client, ttl time.Duration) *Holds {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Holds{Client: client, TTL: ttl}
}

func key(scheduleID, seatID string) string {
	return fmt.Sprintf("seat_hold:%s:%s", scheduleID, seatID)
}

// HoldSeat takes a hold on a single seat. Returns false if another booking
// already holds it.
func (h *Holds) HoldSeat(scheduleID, seatID, bookingID string) (bool, error) {
	return h.Client.SetNX(context.Background(), key(scheduleID, seatID), bookingID, h.TTL).Result()
}

// ReleaseHold removes a hold, but only if this booking owns it.
func (h *Holds) ReleaseHold(scheduleID, seatID, bookingID string) error {
	ctx := context.Background()
	k := key(scheduleID, seatID)
	val, err := h.Client.Get(ctx, k).Result()
	if err == redis.Nil {
		return nil // already expired
	}
	if err != nil {
		return err
	}
	if val == bookingID {
		_, err := h.Client.Del(ctx, k).Result()
		return err
	}
	return nil
}

// HoldSeats takes holds on all seats or none: a failed or contested hold
// rolls back the holds already taken.
func (h *Holds) HoldSeats(scheduleID string, seatIDs []string, bookingID string) (bool, error) {
	held := []string{}
	for _, seatID := range seatIDs {
		ok, err := h.HoldSeat(scheduleID, seatID, bookingID)
		if err != nil {
			for _, s := range held {
				_ = h.ReleaseHold(scheduleID, s, bookingID)
			}
			return false, err
		}
		if !ok {
			for _, s := range held {
				_ = h.ReleaseHold(scheduleID, s, bookingID)
			}
			return false, nil
		}
		held = append(held, seatID)
	}
	return true, nil
}

// ReleaseHolds removes this booking's holds on the given seats.
func (h *Holds) ReleaseHolds(scheduleID string, seatIDs []string, bookingID string) error {
	var firstErr error
	for _, seatID := range seatIDs {
		if err := h.ReleaseHold(scheduleID, seatID, bookingID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
