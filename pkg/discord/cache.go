package discord

import (
	"sync"
	"time"
)

// MemberCache holds a guild member snapshot for a fixed TTL so roster
// reads do not hammer the members endpoint.
type MemberCache struct {
	mu        sync.RWMutex
	members   []Member
	fetchedAt time.Time
	ttl       time.Duration

	now func() time.Time
}

// NewMemberCache creates a member cache with the given TTL.
func NewMemberCache(ttl time.Duration) *MemberCache {
	return &MemberCache{
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the cached snapshot if it is still fresh.
func (c *MemberCache) Get() ([]Member, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.members == nil {
		return nil, false
	}
	if c.now().Sub(c.fetchedAt) > c.ttl {
		return nil, false
	}
	return c.members, true
}

// Set stores a fresh snapshot.
func (c *MemberCache) Set(members []Member) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.members = members
	c.fetchedAt = c.now()
}

// Invalidate drops the snapshot so the next read fetches live data.
func (c *MemberCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.members = nil
}
