// Package frame holds decoded frames and the playback cache.
//
// A Frame owns exactly one pixel buffer taken from a Pool. Releasing the frame
// returns the buffer once; the pool counts live buffers so leaks are observable.
package frame

import (
	"sync"
	"sync/atomic"
)

// Pool recycles pixel buffers.
type Pool struct {
	pool sync.Pool
	live atomic.Int64
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{}
}

// get returns a buffer of exactly n bytes. Its content is undefined.
func (p *Pool) get(n int) []byte {
	p.live.Add(1)
	if v := p.pool.Get(); v != nil {
		buf := *(v.(*[]byte))
		if cap(buf) >= n {
			return buf[:n]
		}
	}
	return make([]byte, n)
}

func (p *Pool) put(buf []byte) {
	p.live.Add(-1)
	buf = buf[:0]
	p.pool.Put(&buf)
}

// Live returns the number of buffers handed out and not yet released.
func (p *Pool) Live() int64 {
	return p.live.Load()
}

// DefaultPool is shared by frames created without an explicit pool.
var DefaultPool = NewPool()
