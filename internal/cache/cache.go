// Package cache memoizes read results in front of the stores. Backends are
// interchangeable: an in-process map or Redis.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"time"
)

// maxKeyLength bounds derived keys; longer keys are content-hashed.
const maxKeyLength = 250

// Cache is the capability injected into services.
type Cache interface {
	// Get returns the stored bytes; found is false on a miss or an expired entry.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set stores value for ttl; a zero ttl uses the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// ClearPrefix removes every key starting with prefix and returns how many were removed.
	ClearPrefix(ctx context.Context, prefix string) (int, error)
	// Clear removes every entry owned by this cache.
	Clear(ctx context.Context) error
	// Stats reports backend counters.
	Stats(ctx context.Context) (Stats, error)
	// Name identifies the backend ("memory" or "redis").
	Name() string
}

// Stats is the payload of the cache stats endpoint.
type Stats struct {
	Backend string `json:"backend"`
	Entries int64  `json:"entries"`
	Expired int64  `json:"expired,omitempty"`
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	Breaker string `json:"breaker,omitempty"`
}

// Key derives a deterministic key from a prefix, positional args and named
// params (sorted by name): "prefix:a:b:k1=v1:k2=v2", each segment query-escaped
// so separators inside values stay distinct. Keys longer than 250
// characters become "prefix:hash:<md5>".
func Key(prefix string, args []string, params map[string]string) string {
	parts := make([]string, 0, len(args)+len(params))
	for _, arg := range args {
		parts = append(parts, url.QueryEscape(arg))
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, url.QueryEscape(name)+"="+url.QueryEscape(params[name]))
	}

	key := prefix + ":" + strings.Join(parts, ":")
	if len(key) > maxKeyLength {
		sum := md5.Sum([]byte(key))
		return prefix + ":hash:" + hex.EncodeToString(sum[:])
	}
	return key
}
