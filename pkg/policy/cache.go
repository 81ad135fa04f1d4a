package policy

import (
	"sync"
	"time"

	"github.com/codeready-toolchain/npcorchestrator/pkg/models"
)

// snapshot holds one named policy's active version plus the instant it was
// fetched, so Get can decide staleness without a second map lookup.
type snapshot struct {
	policy    *models.Policy
	fetchedAt time.Time
}

// cache is a thread-safe in-memory snapshot store keyed by policy name, with
// lazy TTL expiration — no background goroutine, expired entries are
// dropped on the next Get.
type cache struct {
	mu      sync.RWMutex
	entries map[string]*snapshot
	ttl     time.Duration
}

func newCache(ttl time.Duration) *cache {
	return &cache{entries: make(map[string]*snapshot), ttl: ttl}
}

// get returns the cached policy if present and not expired.
func (c *cache) get(name string) (*models.Policy, bool) {
	c.mu.RLock()
	entry, ok := c.entries[name]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if time.Since(entry.fetchedAt) > c.ttl {
		c.mu.Lock()
		if current, ok := c.entries[name]; ok && time.Since(current.fetchedAt) > c.ttl {
			delete(c.entries, name)
		}
		c.mu.Unlock()
		return nil, false
	}

	return entry.policy, true
}

// set stores the policy with the current timestamp.
func (c *cache) set(name string, p *models.Policy) {
	c.mu.Lock()
	c.entries[name] = &snapshot{policy: p, fetchedAt: time.Now()}
	c.mu.Unlock()
}

// invalidate drops a name's cached snapshot, forcing the next Get to refetch.
// Used after CreateVersion/SetActiveVersion so a hot reload is immediate
// rather than waiting out the TTL.
func (c *cache) invalidate(name string) {
	c.mu.Lock()
	delete(c.entries, name)
	c.mu.Unlock()
}
