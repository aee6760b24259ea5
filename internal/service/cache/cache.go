package cache

import "time"

// BytesCache stores raw response bodies with a TTL. Both the in-process
// and Redis-backed caches implement it, so handlers do not care which one
// they were handed.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
