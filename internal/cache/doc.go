// Package cache provides a small generic LRU cache with a soft limit.
//
// When the cache grows past its limit, the least recently used quarter of
// the entries is evicted in one pass.
package cache
