package gridc

import "sync"

// CacheInvalidator is implemented by downstream components that cache state
// keyed by a program's build identifier. When a program is rebuilt or
// released, every registered invalidator is told to drop entries for the
// identifier that just went stale.
type CacheInvalidator interface {
	InvalidateProgram(uid uint64)
}

// Context is the owner of a set of Programs, standing in for the execution
// engine's context. Programs hold a back-reference to their Context but do
// not own it. A Context is safe for concurrent use.
type Context struct {
	mu           sync.Mutex
	invalidators []CacheInvalidator
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{}
}

// RegisterInvalidator adds a cache invalidation consumer. Registration order
// is notification order.
func (c *Context) RegisterInvalidator(inv CacheInvalidator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidators = append(c.invalidators, inv)
}

// invalidate notifies every registered consumer that the given build
// identifier is stale.
func (c *Context) invalidate(uid uint64) {
	c.mu.Lock()
	invs := make([]CacheInvalidator, len(c.invalidators))
	copy(invs, c.invalidators)
	c.mu.Unlock()
	for _, inv := range invs {
		inv.InvalidateProgram(uid)
	}
}
