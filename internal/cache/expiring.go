// Package cache provides an expiring set used to track in-flight requests
// (inventory the node has already asked a peer for, but hasn't received
// yet) without growing without bound if a peer never answers.
package cache

import "time"

// Expiring is a set of keys, each carrying its own expiry time. Entries
// aren't actively swept on a timer; Has and Len lazily drop anything
// that's expired the moment they notice it, so the cache never holds more
// dead weight than whatever accumulated since the last lookup.
type Expiring[K comparable] struct {
	entries map[K]time.Time
	ttl     time.Duration
}

// NewExpiring builds a cache whose entries expire ttl after insertion.
func NewExpiring[K comparable](ttl time.Duration) *Expiring[K] {
	return &Expiring[K]{
		entries: make(map[K]time.Time),
		ttl:     ttl,
	}
}

// Insert adds key with a fresh expiry, overwriting any existing entry.
func (e *Expiring[K]) Insert(key K) {
	e.entries[key] = time.Now().Add(e.ttl)
}

// Has reports whether key is present and not yet expired, removing it
// first if it has.
func (e *Expiring[K]) Has(key K) bool {
	expiry, ok := e.entries[key]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(e.entries, key)
		return false
	}
	return true
}

// Remove drops key unconditionally.
func (e *Expiring[K]) Remove(key K) {
	delete(e.entries, key)
}

// Len reports the number of entries, after sweeping anything expired.
func (e *Expiring[K]) Len() int {
	now := time.Now()
	for key, expiry := range e.entries {
		if now.After(expiry) {
			delete(e.entries, key)
		}
	}
	return len(e.entries)
}
