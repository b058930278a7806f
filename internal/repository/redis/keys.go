package redis

import (
	"fmt"

	"github.com/google/uuid"
)

const ns = "spacebook:v1"

// KeySpaceSlots holds the resolved slots of one space on one date (YYYY-MM-DD).
func KeySpaceSlots(spaceID uuid.UUID, date string) string {
	return fmt.Sprintf("%s:space:%s:slots:%s", ns, spaceID, date)
}

// KeySpaceSlotsPattern matches every cached date of a space.
func KeySpaceSlotsPattern(spaceID uuid.UUID) string {
	return fmt.Sprintf("%s:space:%s:slots:*", ns, spaceID)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func KeyIdemBooking(actorID uuid.UUID, spaceID uuid.UUID, idemKey string) string {
	return fmt.Sprintf("%s:idem:bookings:%s:%s:%s", ns, actorID, spaceID, idemKey)
}

// ChannelBookingEvents is where the redis notifier publishes booking lifecycle events.
func ChannelBookingEvents() string {
	return ns + ":bookings:events"
}
