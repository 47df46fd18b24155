package redisx

import (
	"fmt"
	"time"
)

const (
	// order_status:{order_id} -> CachedStatus JSON
	KeyOrderStatus = "order_status:%s"

	// dedup:{consumer}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)

func statusKey(orderID string) string { return fmt.Sprintf(KeyOrderStatus, orderID) }

func dedupKey(consumer, eventID string) string { return fmt.Sprintf(KeyDedup, consumer, eventID) }
