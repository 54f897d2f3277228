package redisx

import "time"

const (
	// Active session: sess:{jti} -> uid
	KeySession = "sess:%s"

	// Cache of a full catalog snapshot: menu:{category} ("all" for everything)
	KeyMenuCache = "menu:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Pub/sub channel for live-query invalidation per collection: live:{collection}
	ChanLive = "live:%s"

	// Pub/sub channel for session state per user: sessions:{uid} ("in"|"out")
	ChanSession = "sessions:%s"
)

var (
	TTLSession   = 72 * time.Hour
	TTLMenuCache = 5 * time.Minute
	TTLDedup     = 48 * time.Hour
)
