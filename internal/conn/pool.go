package conn

import (
	"net"
	"sync"
)

// defaultSlabSize is the pool's initial pre-allocation, "on the order of
// 10^5" per spec §4.1, used when NewPool is given a non-positive size.
// NewPool allocates a Connection for every slot up front, so the whole slab
// is paid for whether or not that many connections arrive; a worker that
// does see them won't stall acquiring slots mid-traffic.
const defaultSlabSize = 1 << 15

// Pool is a slab of pre-allocated Connection slots with a LIFO free stack
// (spec §4.1). The accept-loop goroutine calls Acquire and every
// per-connection goroutine calls Release on its own connection when it
// closes — both mutate the free stack, so a mutex guards it. This is in
// addition to, not instead of, worker.activeMu, which guards a different
// slice (the active-connection set) entirely.
type Pool struct {
	mu   sync.Mutex
	slab []*Connection
	free []*Connection
}

// NewPool pre-allocates size slots, matching the "slab of pre-allocated
// connection slots" component description (spec §2).
func NewPool(size int) *Pool {
	if size <= 0 {
		size = defaultSlabSize
	}
	p := &Pool{
		slab: make([]*Connection, 0, size),
		free: make([]*Connection, 0, size),
	}
	for i := 0; i < size; i++ {
		c := &Connection{PoolIndex: poolIndexSentinel, State: Closing}
		p.slab = append(p.slab, c)
		p.free = append(p.free, c)
	}
	return p
}

// Acquire pops a connection off the free stack, resets it for nc, and
// returns it. If the free stack is empty a new slot is appended to the
// slab (spec §4.1: "grows on exhaustion; resets on release").
func (p *Pool) Acquire(nc net.Conn) *Connection {
	p.mu.Lock()
	var c *Connection
	if n := len(p.free); n > 0 {
		c = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		c = &Connection{}
		p.slab = append(p.slab, c)
	}
	p.mu.Unlock()
	c.reset(nc)
	return c
}

// Release resets c and returns it to the free stack. The caller must have
// already removed c from any active-connection sequence (the pool does not
// know about that sequence; see worker.removeActive for the swap-and-pop side
// of spec §4.4's Close path).
func (p *Pool) Release(c *Connection) {
	c.reset(nil)
	c.State = Closing
	p.mu.Lock()
	p.free = append(p.free, c)
	p.mu.Unlock()
}

// Size returns the total number of slots the pool has ever allocated.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slab)
}

// FreeCount returns the number of slots currently on the free stack.
func (p *Pool) FreeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// InUseCount returns the number of slots currently checked out.
func (p *Pool) InUseCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slab) - len(p.free)
}
