package odbc

import (
	"sync"
	"sync/atomic"
)

// Buffer size classes served by the staging pool. Larger requests are
// allocated directly and never pooled.
const (
	smallBufferSize  = 1 << 10
	mediumBufferSize = 1 << 14
	largeBufferSize  = 1 << 18
)

// BufferPool hands out byte buffers for parameter staging and large object
// probes. A buffer is owned by exactly one bind+execute cycle or one read and
// goes back with PutBuffer when that owner is done with it.
type BufferPool struct {
	small  sync.Pool
	medium sync.Pool
	large  sync.Pool

	// Statistics for monitoring and tuning
	gets     uint64
	puts     uint64
	misses   uint64
	discards uint64
}

// NewBufferPool creates a new buffer pool with default settings
func NewBufferPool() *BufferPool {
	p := &BufferPool{}
	p.small.New = p.alloc(smallBufferSize)
	p.medium.New = p.alloc(mediumBufferSize)
	p.large.New = p.alloc(largeBufferSize)
	return p
}

func (p *BufferPool) alloc(size int) func() any {
	return func() any {
		atomic.AddUint64(&p.misses, 1)
		b := make([]byte, size)
		return &b
	}
}

func (p *BufferPool) class(size int) *sync.Pool {
	switch {
	case size <= smallBufferSize:
		return &p.small
	case size <= mediumBufferSize:
		return &p.medium
	case size <= largeBufferSize:
		return &p.large
	}
	return nil
}

// GetBuffer returns a zeroed buffer of length n.
func (p *BufferPool) GetBuffer(n int) []byte {
	atomic.AddUint64(&p.gets, 1)

	pool := p.class(n)
	if pool == nil {
		atomic.AddUint64(&p.misses, 1)
		return make([]byte, n)
	}

	bp := pool.Get().(*[]byte)
	b := (*bp)[:n]
	clear(b)
	return b
}

// PutBuffer returns a buffer obtained from GetBuffer. Buffers whose capacity
// does not match a size class are dropped.
func (p *BufferPool) PutBuffer(b []byte) {
	if b == nil {
		return
	}
	atomic.AddUint64(&p.puts, 1)

	c := cap(b)
	if c != smallBufferSize && c != mediumBufferSize && c != largeBufferSize {
		atomic.AddUint64(&p.discards, 1)
		return
	}

	b = b[:c]
	p.class(c).Put(&b)
}

// Stats returns statistics about the buffer pool
func (p *BufferPool) Stats() map[string]uint64 {
	return map[string]uint64{
		"gets":     atomic.LoadUint64(&p.gets),
		"puts":     atomic.LoadUint64(&p.puts),
		"misses":   atomic.LoadUint64(&p.misses),
		"discards": atomic.LoadUint64(&p.discards),
	}
}

// Global buffer pool for shared use
var stagingPool = NewBufferPool()
