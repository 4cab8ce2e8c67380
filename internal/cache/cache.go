// Package cache is a fail-open key-value cache for denormalized read models.
// The database stays authoritative; any entry may vanish at any time.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// DefaultTTL applies when a caller passes a non-positive ttl.
const DefaultTTL = time.Hour

// Status is the outcome of a lookup.
type Status int

const (
	Miss Status = iota
	Hit
	Unavailable
)

func (s Status) String() string {
	switch s {
	case Hit:
		return "hit"
	case Unavailable:
		return "unavailable"
	default:
		return "miss"
	}
}

// Result of Get. Value is only set on Hit.
type Result struct {
	Status Status
	Value  []byte
}

// Decode unmarshals a hit into dst. It reports false for misses and
// undecodable payloads.
func (r Result) Decode(dst interface{}) bool {
	if r.Status != Hit {
		return false
	}
	return json.Unmarshal(r.Value, dst) == nil
}

// Cache never returns errors: backing-store failures are logged and
// degrade to Unavailable on reads and to no-ops on writes.
type Cache interface {
	Get(ctx context.Context, key string) Result
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	DeletePattern(ctx context.Context, prefix string)
}
