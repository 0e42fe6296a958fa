package constants

import (
	"fmt"
	"time"
)

// Redis Cache Configuration
// Pattern: tablebook:{module}:{operation}:{identifier}:{params?}

// ================== CACHE TTL DURATIONS ==================

// Highly Dynamic (Micro TTL: real-time sensitive)
const (
	TTL_REALTIME_SHORT = 30 * time.Second // 30 seconds - for slot availability
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "tablebook"
)

// ================== AVAILABILITY MODULE ==================

// Availability Cache Keys
const (
	// Slot listings per location and date
	CACHE_KEY_AVAILABILITY = CACHE_PREFIX + ":availability:location:" // + location-id:date:D:party:P:ticket:T:channel:C
)

// Availability Cache TTLs
const (
	TTL_AVAILABILITY = TTL_REALTIME_SHORT // 30 seconds
)

// ================== ASSIGNMENT MODULE ==================

// Assignment lock keys. One key per physical table and date.
const (
	LOCK_KEY_TABLE = CACHE_PREFIX + ":lock:table:" // + location-id:date:table-id
)

// ================== RATE LIMIT MODULE ==================

const (
	RATE_LIMIT_PREFIX = CACHE_PREFIX + ":ratelimit:" // + category:client
)

// ================== HELPER FUNCTIONS ==================

// BuildAvailabilityKey -> "tablebook:availability:location:L:date:2025-12-24:party:2:ticket:all:channel:widget"
func BuildAvailabilityKey(locationID, date string, partySize int, ticketID, channel string) string {
	if ticketID == "" {
		ticketID = "all"
	}
	return fmt.Sprintf("%s%s:date:%s:party:%d:ticket:%s:channel:%s",
		CACHE_KEY_AVAILABILITY, locationID, date, partySize, ticketID, channel)
}

// BuildAvailabilityPattern matches every cached listing of a location and date.
func BuildAvailabilityPattern(locationID, date string) string {
	return CACHE_KEY_AVAILABILITY + locationID + ":date:" + date + ":*"
}

// BuildTableLockKey -> "tablebook:lock:table:L:2025-12-24:T"
func BuildTableLockKey(locationID, date, tableID string) string {
	return LOCK_KEY_TABLE + locationID + ":" + date + ":" + tableID
}

/*
INVALIDATION EXAMPLES:

1. When a reservation is created, moved or cancelled:
   - Invalidate: tablebook:availability:location:L:date:D:*
*/
